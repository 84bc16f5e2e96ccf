package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shorturl-go/internal/model"
)

func newTestRegistry(t *testing.T) *URLRegistry {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// 单连接串行化，内存 sqlite 在并发写下才可靠
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.ShortLink{}, &model.DailyStat{}, &model.ReservedKey{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return New(db)
}

func TestCreateNormalizesScheme(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	link, err := reg.Create(ctx, "owner-1", "example.com", "", 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if link.TargetURL != "http://example.com" {
		t.Errorf("expected http:// prefix, got %q", link.TargetURL)
	}

	link2, err := reg.Create(ctx, "owner-1", "https://secure.example.com/path", "", 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if link2.TargetURL != "https://secure.example.com/path" {
		t.Errorf("schemed URL must be stored unchanged, got %q", link2.TargetURL)
	}
}

func TestCreateGeneratedKey(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	link, err := reg.Create(ctx, "owner-1", "example.com", "", 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(link.ShortKey) != 6 {
		t.Errorf("expected 6-char key, got %q", link.ShortKey)
	}
	for _, r := range link.ShortKey {
		if !strings.ContainsRune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", r) {
			t.Errorf("key contains invalid character %q", r)
		}
	}
	if link.ClickCount != 0 {
		t.Errorf("new link must start with zero clicks, got %d", link.ClickCount)
	}
	if link.ExpiresAt != nil {
		t.Errorf("no TTL requested, expected nil ExpiresAt, got %v", link.ExpiresAt)
	}
}

func TestCreateWithTTL(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	link, err := reg.Create(ctx, "owner-1", "example.com", "", 5)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if link.ExpiresAt == nil {
		t.Fatal("expected ExpiresAt to be set")
	}

	want := startOfDay(time.Now()).AddDate(0, 0, 5)
	if !link.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, *link.ExpiresAt)
	}
	if h, m, s := link.ExpiresAt.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("expiry must be aligned to start of day, got %v", *link.ExpiresAt)
	}
}

func TestCreateCustomKey(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	link, err := reg.Create(ctx, "owner-1", "example.com", "promo1", 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if link.ShortKey != "promo1" {
		t.Errorf("expected custom key, got %q", link.ShortKey)
	}

	// 同键二次创建必须冲突，不区分归属者
	_, err = reg.Create(ctx, "owner-2", "other.com", "promo1", 0)
	if !errors.Is(err, ErrKeyTaken) {
		t.Errorf("expected ErrKeyTaken, got %v", err)
	}
}

func TestCreateCustomKeyInvalidFormat(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	for _, key := range []string{"has space", "way-too-long-key", "emoji🙂", "dash-ed"} {
		if _, err := reg.Create(ctx, "owner-1", "example.com", key, 0); !errors.Is(err, ErrInvalidKeyFormat) {
			t.Errorf("key %q: expected ErrInvalidKeyFormat, got %v", key, err)
		}
	}
}

func TestCreateReservedKeyRefused(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	if _, err := reg.CreateReservedKey(ctx, "admin"); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	_, err := reg.Create(ctx, "owner-1", "example.com", "admin", 0)
	if !errors.Is(err, ErrKeyTaken) {
		t.Errorf("expected ErrKeyTaken for reserved key, got %v", err)
	}
}

func TestCreateCustomKeyConcurrent(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Create(ctx, "owner-1", "example.com", "flash1", 0)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, conflicted := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrKeyTaken):
			conflicted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != workers-1 {
		t.Errorf("expected exactly 1 success and %d conflicts, got %d/%d", workers-1, succeeded, conflicted)
	}
}

func TestResolveNotFound(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Resolve(context.Background(), "zzzzzz")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordClickConcurrent(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	link, err := reg.Create(ctx, "owner-1", "example.com", "", 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const clicks = 20
	var wg sync.WaitGroup
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.RecordClick(ctx, link.ShortKey); err != nil {
				t.Errorf("record click failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := reg.Resolve(ctx, link.ShortKey)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got.ClickCount != clicks {
		t.Errorf("expected %d clicks, got %d", clicks, got.ClickCount)
	}
}

func TestRecordClickNotFound(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.RecordClick(context.Background(), "zzzzzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateLeavesDerivedFieldsAlone(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	link, err := reg.Create(ctx, "owner-1", "example.com", "keep1", 5)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := reg.AttachQRImage(ctx, link.ShortKey, []byte{0x89, 0x50, 0x4e, 0x47}); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := reg.RecordClick(ctx, link.ShortKey); err != nil {
		t.Fatalf("click failed: %v", err)
	}

	if err := reg.Update(ctx, link.ShortKey, "changed.example.com"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := reg.Resolve(ctx, link.ShortKey)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got.TargetURL != "http://changed.example.com" {
		t.Errorf("expected updated target, got %q", got.TargetURL)
	}
	if !got.HasQRImage() {
		t.Error("update must not touch qr_image")
	}
	if got.ClickCount != 1 {
		t.Errorf("update must not touch click_count, got %d", got.ClickCount)
	}
	if got.ExpiresAt == nil {
		t.Error("update must not touch expires_at")
	}
}

func TestUpdateNotFound(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.Update(context.Background(), "zzzzzz", "example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	link, err := reg.Create(ctx, "owner-1", "example.com", "gone1", 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := reg.Delete(ctx, link.ShortKey); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := reg.Resolve(ctx, link.ShortKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := reg.Delete(ctx, link.ShortKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestListByOwnerIsolation(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := reg.Create(ctx, "owner-1", "example.com", "", 0); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if _, err := reg.Create(ctx, "owner-2", "example.com", "", 0); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	links, total, err := reg.ListByOwner(ctx, "owner-1", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(links) != 3 {
		t.Errorf("expected 3 links for owner-1, got total=%d len=%d", total, len(links))
	}
	for _, l := range links {
		if l.OwnerID != "owner-1" {
			t.Errorf("list leaked foreign link %q", l.ShortKey)
		}
	}
}

func TestDailyStatUpsert(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	link, err := reg.Create(ctx, "owner-1", "example.com", "", 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := reg.UpsertDailyStat(ctx, link.ID, "2026-09-01", 3, 2); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	// 同日二次写入应覆盖而不是追加行
	if err := reg.UpsertDailyStat(ctx, link.ID, "2026-09-01", 7, 4); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := reg.UpsertDailyStat(ctx, link.ID, "2026-08-31", 1, 1); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	stats, err := reg.StatsByShortLinkID(ctx, link.ID)
	if err != nil {
		t.Fatalf("stats query failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 stat rows, got %d", len(stats))
	}
	if stats[0].Date != "2026-09-01" || stats[0].Clicks != 7 || stats[0].Visitors != 4 {
		t.Errorf("unexpected latest stat row: %+v", stats[0])
	}
}

func TestReservedKeyLifecycle(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	reserved, err := reg.CreateReservedKey(ctx, "api")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if _, err := reg.CreateReservedKey(ctx, "api"); !errors.Is(err, ErrKeyTaken) {
		t.Errorf("expected ErrKeyTaken on duplicate reservation, got %v", err)
	}
	if _, err := reg.CreateReservedKey(ctx, "bad key"); !errors.Is(err, ErrInvalidKeyFormat) {
		t.Errorf("expected ErrInvalidKeyFormat, got %v", err)
	}

	keys, total, err := reg.ListReservedKeys(ctx, 1, 10)
	if err != nil || total != 1 || len(keys) != 1 {
		t.Fatalf("list reserved: keys=%v total=%d err=%v", keys, total, err)
	}

	if err := reg.DeleteReservedKey(ctx, reserved.ID); err != nil {
		t.Fatalf("delete reserved failed: %v", err)
	}
	if err := reg.DeleteReservedKey(ctx, reserved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
