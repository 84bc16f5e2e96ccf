package registry

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shorturl-go/internal/keygen"
	"shorturl-go/internal/model"
	"shorturl-go/pkg/utils"
)

var (
	ErrNotFound         = errors.New("short link not found")
	ErrKeyTaken         = errors.New("short key already in use")
	ErrInvalidKeyFormat = errors.New("invalid short key format")
	ErrInvalidTargetURL = errors.New("invalid target url")
)

// maxGenerateAttempts 随机键入库冲突的重试上限。62^6 的键空间下基本不会用到
const maxGenerateAttempts = 5

// URLRegistry 短键到目标 URL 的存储/查询引擎。
// 唯一性由 short_key 上的唯一索引兜底，check-then-act 竞态在存储层关闭
type URLRegistry struct {
	db *gorm.DB
}

func New(db *gorm.DB) *URLRegistry {
	return &URLRegistry{db: db}
}

// Create 创建短链映射。customKey 为空时由系统生成随机短键并在冲突时重试；
// ttlDays > 0 时设置过期日期（按当天零点对齐）
func (r *URLRegistry) Create(ctx context.Context, ownerID, targetURL, customKey string, ttlDays int) (*model.ShortLink, error) {
	targetURL = utils.NormalizeTargetURL(targetURL)
	if err := utils.ValidateTargetURL(targetURL); err != nil {
		return nil, ErrInvalidTargetURL
	}

	link := &model.ShortLink{
		OwnerID:   ownerID,
		TargetURL: targetURL,
	}

	if ttlDays > 0 {
		expiresAt := startOfDay(time.Now()).AddDate(0, 0, ttlDays)
		link.ExpiresAt = &expiresAt
	}

	if customKey != "" {
		if err := keygen.ValidateCustomKey(customKey); err != nil {
			return nil, ErrInvalidKeyFormat
		}
		reserved, err := r.IsKeyReserved(ctx, customKey)
		if err != nil {
			return nil, err
		}
		if reserved {
			return nil, ErrKeyTaken
		}

		link.ShortKey = customKey
		if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrKeyTaken
			}
			return nil, err
		}
		return link, nil
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		link.ID = 0
		link.ShortKey = keygen.Generate()
		err := r.db.WithContext(ctx).Create(link).Error
		if err == nil {
			return link, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, err
	}
	return nil, ErrKeyTaken
}

// Resolve 纯查询，不做过期过滤（过期判定属于跳转编排层）
func (r *URLRegistry) Resolve(ctx context.Context, shortKey string) (*model.ShortLink, error) {
	var link model.ShortLink
	err := r.db.WithContext(ctx).Where("short_key = ?", shortKey).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// RecordClick 点击数单列原子自增，避免整行读写在并发下丢失更新
func (r *URLRegistry) RecordClick(ctx context.Context, shortKey string) error {
	result := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("short_key = ?", shortKey).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachQRImage 创建后的第二步写入，只更新 qr_image 列，不触发 updated_at
func (r *URLRegistry) AttachQRImage(ctx context.Context, shortKey string, png []byte) error {
	result := r.db.WithContext(ctx).Model(&model.ShortLink{}).
		Where("short_key = ?", shortKey).
		UpdateColumn("qr_image", png)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Update 仅覆盖 target_url 并刷新 updated_at，不触碰 qr_image/click_count/expires_at
func (r *URLRegistry) Update(ctx context.Context, shortKey, newTargetURL string) error {
	newTargetURL = utils.NormalizeTargetURL(newTargetURL)
	if err := utils.ValidateTargetURL(newTargetURL); err != nil {
		return ErrInvalidTargetURL
	}

	var existing model.ShortLink
	if err := r.db.WithContext(ctx).Where("short_key = ?", shortKey).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return r.db.WithContext(ctx).Model(&existing).
		Updates(map[string]interface{}{"target_url": newTargetURL}).Error
}

// Delete 硬删除，无软删除、无级联
func (r *URLRegistry) Delete(ctx context.Context, shortKey string) error {
	result := r.db.WithContext(ctx).Where("short_key = ?", shortKey).Delete(&model.ShortLink{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner 分页返回归属者自己的短链，新建在前
func (r *URLRegistry) ListByOwner(ctx context.Context, ownerID string, page, size int) ([]model.ShortLink, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.ShortLink{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if total == 0 {
		return []model.ShortLink{}, 0, nil
	}

	var links []model.ShortLink
	if err := db.
		Limit(size).
		Offset((page - 1) * size).
		Order("id DESC").
		Find(&links).Error; err != nil {
		return nil, 0, err
	}

	return links, total, nil
}

// FindByID 按主键查询（统计落库用）
func (r *URLRegistry) FindByID(ctx context.Context, id uint) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := r.db.WithContext(ctx).First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
