package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"shorturl-go/constant"
	"shorturl-go/internal/apperrors"
	"shorturl-go/internal/dto"
	"shorturl-go/internal/model"
	"shorturl-go/internal/qr"
	"shorturl-go/internal/registry"
	"shorturl-go/pkg/utils"
	"shorturl-go/response"
)

// RedirectService 面向请求的编排层：短键分配、解析、过期判定、点击计数、二维码。
// 所有落库操作统一走 URLRegistry，redis 仅作为解析缓存与日统计缓冲
type RedirectService struct {
	registry *registry.URLRegistry
	// 可为 nil（无缓存模式，测试环境）
	redis *redis.Pool

	domain         string
	scheme         string
	defaultTTLDays int
	resolveTimeout time.Duration
}

func NewRedirectService(reg *registry.URLRegistry, pool *redis.Pool) *RedirectService {
	domain := viper.GetString("shortlink.domain")
	if domain == "" {
		domain = "localhost:8080"
	}
	scheme := viper.GetString("shortlink.scheme")
	if scheme == "" {
		scheme = "http"
	}
	ttlDays := viper.GetInt("shortlink.default_ttl_days")
	timeoutMs := viper.GetInt("shortlink.resolve_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 2000
	}

	return &RedirectService{
		registry:       reg,
		redis:          pool,
		domain:         domain,
		scheme:         scheme,
		defaultTTLDays: ttlDays,
		resolveTimeout: time.Duration(timeoutMs) * time.Millisecond,
	}
}

// CanonicalURL 规范跳转地址 {scheme}://{domain}/{shortKey}，即二维码的内容
func (s *RedirectService) CanonicalURL(shortKey string) string {
	return s.scheme + "://" + s.domain + "/" + shortKey
}

// CreateShortLink 创建短链并补写二维码。
// 二维码是第二步写入：创建返回后 qrImage 可能短暂缺失；
// 渲染失败仅降级为无二维码，不影响已创建的映射
func (s *RedirectService) CreateShortLink(ctx context.Context, ownerID string, req dto.CreateShortLinkRequest) (*dto.ShortLinkResponse, error) {
	ttlDays := req.TTLDays
	if ttlDays == 0 {
		ttlDays = s.defaultTTLDays
	}

	link, err := s.registry.Create(ctx, ownerID, req.TargetURL, req.CustomKey, ttlDays)
	if err != nil {
		return nil, mapRegistryError(err)
	}

	canonical := s.CanonicalURL(link.ShortKey)
	png, encErr := qr.Encode(canonical)
	if encErr != nil {
		zap.L().Warn("QR encoding failed, link created without image",
			zap.String("short_key", link.ShortKey),
			zap.Error(encErr))
	} else if attachErr := s.registry.AttachQRImage(ctx, link.ShortKey, png); attachErr != nil {
		zap.L().Warn("Failed to attach QR image",
			zap.String("short_key", link.ShortKey),
			zap.Error(attachErr))
	} else {
		link.QRImage = png
	}

	return s.toResponse(link), nil
}

// ResolveForRedirect 解析短键用于跳转：查缓存/库 → 过期判定 → 点击计数。
// 过期与未命中均不产生任何计数变化
func (s *RedirectService) ResolveForRedirect(ctx context.Context, shortKey, ip string) (string, error) {
	if err := utils.ValidateShortKey(shortKey); err != nil {
		return "", apperrors.NotFoundError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()

	link, err := s.lookupLink(ctx, shortKey)
	if err != nil {
		return "", err
	}

	if link.Expired(time.Now()) {
		return "", apperrors.ExpiredError()
	}

	// 点击计数必须打到数据库行上，缓存中的计数只是快照
	if err := s.registry.RecordClick(ctx, shortKey); err != nil {
		return "", mapRegistryError(err)
	}

	s.recordDailyStats(shortKey, ip)

	return link.TargetURL, nil
}

// lookupLink 缓存旁路查询：命中返回缓存实体，未命中回源数据库并回填，
// 不存在的键写入空值短缓存防止穿透
func (s *RedirectService) lookupLink(ctx context.Context, shortKey string) (*model.ShortLink, error) {
	cacheKey := constant.GetShortKeyCacheKey(shortKey)

	if s.redis != nil {
		conn := s.redis.Get()
		defer s.closeConn(conn)

		cachedValue, err := redis.Bytes(conn.Do("GET", cacheKey))
		if err == nil {
			if len(cachedValue) == 0 {
				return nil, apperrors.NotFoundError()
			}
			var link model.ShortLink
			if jsonErr := json.Unmarshal(cachedValue, &link); jsonErr == nil {
				return &link, nil
			} else {
				zap.L().Warn("Failed to unmarshal cached short link",
					zap.String("cache_key", cacheKey),
					zap.Error(jsonErr))
			}
		} else if !errors.Is(err, redis.ErrNil) {
			zap.L().Warn("Error getting from Redis",
				zap.String("cache_key", cacheKey),
				zap.Error(err))
		}
	}

	link, err := s.registry.Resolve(ctx, shortKey)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) && s.redis != nil {
			conn := s.redis.Get()
			defer s.closeConn(conn)
			// 缓存空值，防止缓存穿透
			if _, setErr := conn.Do("SET", cacheKey, "", "EX", 300); setErr != nil {
				zap.L().Error("Failed to set negative cache",
					zap.String("cache_key", cacheKey),
					zap.Error(setErr))
			}
		}
		return nil, mapRegistryError(err)
	}

	if s.redis != nil {
		conn := s.redis.Get()
		defer s.closeConn(conn)

		cachedValue, _ := json.Marshal(link)
		if _, setErr := conn.Do("SET", cacheKey, cachedValue, "EX", 3600); setErr != nil {
			zap.L().Error("Failed to cache short link",
				zap.String("cache_key", cacheKey),
				zap.Error(setErr))
		}
	}

	return link, nil
}

// UpdateShortLink 更新目标地址。归属校验在委托存储层之前完成。
// 二维码编码的是短链自身地址而非目标地址，更新后无需重新生成
func (s *RedirectService) UpdateShortLink(ctx context.Context, ownerID, shortKey, newTargetURL string) error {
	link, err := s.registry.Resolve(ctx, shortKey)
	if err != nil {
		return mapRegistryError(err)
	}
	if link.OwnerID != ownerID {
		return apperrors.ForbiddenError()
	}

	if err := s.registry.Update(ctx, shortKey, newTargetURL); err != nil {
		return mapRegistryError(err)
	}

	s.invalidateCache(shortKey)
	return nil
}

// DeleteShortLink 删除短链，须为归属者本人
func (s *RedirectService) DeleteShortLink(ctx context.Context, ownerID, shortKey string) error {
	link, err := s.registry.Resolve(ctx, shortKey)
	if err != nil {
		return mapRegistryError(err)
	}
	if link.OwnerID != ownerID {
		return apperrors.ForbiddenError()
	}

	if err := s.registry.Delete(ctx, shortKey); err != nil {
		return mapRegistryError(err)
	}

	s.invalidateCache(shortKey)
	return nil
}

// ListShortLinks 分页返回归属者自己的短链
func (s *RedirectService) ListShortLinks(ctx context.Context, ownerID string, page, size int) (*response.PageResponse[dto.ShortLinkResponse], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	links, total, err := s.registry.ListByOwner(ctx, ownerID, page, size)
	if err != nil {
		return nil, mapRegistryError(err)
	}

	list := make([]dto.ShortLinkResponse, 0, len(links))
	for i := range links {
		list = append(list, *s.toResponse(&links[i]))
	}

	totalPage := (int(total) + size - 1) / size

	return &response.PageResponse[dto.ShortLinkResponse]{
		Page:      page,
		Size:      size,
		Total:     int(total),
		TotalPage: totalPage,
		List:      list,
	}, nil
}

// GetQRImage 返回短链的二维码 PNG 字节。图片编码的是公开跳转地址，不做归属校验
func (s *RedirectService) GetQRImage(ctx context.Context, shortKey string) ([]byte, error) {
	link, err := s.registry.Resolve(ctx, shortKey)
	if err != nil {
		return nil, mapRegistryError(err)
	}
	if !link.HasQRImage() {
		return nil, apperrors.NotFoundError()
	}
	return link.QRImage, nil
}

// GetStats 返回归属者短链的每日统计
func (s *RedirectService) GetStats(ctx context.Context, ownerID, shortKey string) ([]model.DailyStat, error) {
	link, err := s.registry.Resolve(ctx, shortKey)
	if err != nil {
		return nil, mapRegistryError(err)
	}
	if link.OwnerID != ownerID {
		return nil, apperrors.ForbiddenError()
	}
	return s.registry.StatsByShortLinkID(ctx, link.ID)
}

func (s *RedirectService) toResponse(link *model.ShortLink) *dto.ShortLinkResponse {
	return &dto.ShortLinkResponse{
		ShortLink:  *link,
		ShortURL:   s.CanonicalURL(link.ShortKey),
		HasQRImage: link.HasQRImage(),
	}
}

func (s *RedirectService) invalidateCache(shortKey string) {
	if s.redis == nil {
		return
	}
	conn := s.redis.Get()
	defer s.closeConn(conn)

	cacheKey := constant.GetShortKeyCacheKey(shortKey)
	if _, err := conn.Do("DEL", cacheKey); err != nil {
		zap.L().Warn("Redis cache invalidation failed",
			zap.String("cache_key", cacheKey),
			zap.Error(err))
	}
}

func (s *RedirectService) recordDailyStats(shortKey, ip string) {
	if s.redis == nil {
		return
	}
	conn := s.redis.Get()
	defer s.closeConn(conn)

	RecordDailyClick(conn, shortKey)
	RecordDailyVisitor(conn, shortKey, ip)
}

func (s *RedirectService) closeConn(conn redis.Conn) {
	if err := conn.Close(); err != nil {
		zap.L().Error("Failed to close Redis connection",
			zap.Error(err))
	}
}

// mapRegistryError 存储层错误翻译为带 HTTP 码的业务错误
func mapRegistryError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return apperrors.NotFoundError()
	case errors.Is(err, registry.ErrKeyTaken):
		return apperrors.KeyInUseError()
	case errors.Is(err, registry.ErrInvalidKeyFormat):
		return apperrors.InvalidKeyFormatError("error.invalid_key_format")
	case errors.Is(err, registry.ErrInvalidTargetURL):
		return apperrors.InvalidRequestError("error.target_url_invalid")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.StorageUnavailableError(err)
	default:
		return apperrors.SystemErrorDefault()
	}
}
