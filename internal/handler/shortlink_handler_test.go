package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shorturl-go/internal/dto"
	"shorturl-go/internal/middleware"
	"shorturl-go/internal/model"
	"shorturl-go/internal/registry"
	"shorturl-go/internal/service"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	viper.Set("shortlink.domain", "mysite.test")
	viper.Set("shortlink.scheme", "https")
	viper.Set("shortlink.default_ttl_days", 5)
	viper.Set("shortlink.resolve_timeout_ms", 2000)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.ShortLink{}, &model.DailyStat{}, &model.ReservedKey{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	redirectService := service.NewRedirectService(registry.New(db), nil)
	h := NewShortLinkHandler(redirectService)

	r := gin.New()
	r.Use(middleware.GlobalErrorMiddleware())

	api := r.Group("/api")
	api.Use(middleware.OwnerMiddleware())
	{
		api.POST("/shortlink", h.Create)
		api.GET("/shortlink", h.List)
		api.PUT("/shortlink/:key", h.Update)
		api.DELETE("/shortlink/:key", h.Delete)
		api.GET("/shortlink/:key/qr", h.GetQRImage)
	}

	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusNotFound)
			return
		}
		h.Redirect(c)
	})

	return r
}

func createLink(t *testing.T, r *gin.Engine, owner, body string) dto.ShortLinkResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/shortlink", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", owner)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("create returned %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool                  `json:"success"`
		Data    dto.ShortLinkResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("create not successful: %s", w.Body.String())
	}
	return resp.Data
}

func TestCreateAndRedirect(t *testing.T) {
	r := setupRouter(t)

	link := createLink(t, r, "owner-1", `{"targetUrl":"example.com"}`)
	if len(link.ShortKey) != 6 {
		t.Errorf("expected generated 6-char key, got %q", link.ShortKey)
	}

	req := httptest.NewRequest(http.MethodGet, "/"+link.ShortKey, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "http://example.com" {
		t.Errorf("unexpected redirect target %q", loc)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("redirect must not be cacheable, got %q", cc)
	}
}

func TestRedirectUnknownKey(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/zzzzzz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCreateRequiresOwner(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/shortlink", strings.NewReader(`{"targetUrl":"example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without owner header, got %d", w.Code)
	}
}

func TestCustomKeyConflictStatus(t *testing.T) {
	r := setupRouter(t)

	createLink(t, r, "owner-1", `{"targetUrl":"example.com","customKey":"promo1"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/shortlink", strings.NewReader(`{"targetUrl":"other.com","customKey":"promo1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", "owner-2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestQRImageEndpoint(t *testing.T) {
	r := setupRouter(t)

	link := createLink(t, r, "owner-1", `{"targetUrl":"example.com"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/shortlink/"+link.ShortKey+"/qr", nil)
	req.Header.Set("X-Owner-ID", "owner-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	// PNG 魔数
	if body := w.Body.Bytes(); len(body) < 8 || body[0] != 0x89 || string(body[1:4]) != "PNG" {
		t.Error("response body is not a PNG")
	}
}

func TestUpdateForeignLinkForbidden(t *testing.T) {
	r := setupRouter(t)

	link := createLink(t, r, "owner-1", `{"targetUrl":"example.com"}`)

	req := httptest.NewRequest(http.MethodPut, "/api/shortlink/"+link.ShortKey, strings.NewReader(`{"targetUrl":"evil.example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", "intruder")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}
