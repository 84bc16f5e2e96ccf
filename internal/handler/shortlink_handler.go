package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shorturl-go/internal/apperrors"
	"shorturl-go/internal/dto"
	"shorturl-go/internal/i18n"
	"shorturl-go/internal/middleware"
	"shorturl-go/internal/service"
	"shorturl-go/response"
	"strconv"
)

type ShortLinkHandler struct {
	service *service.RedirectService
}

func NewShortLinkHandler(s *service.RedirectService) *ShortLinkHandler {
	return &ShortLinkHandler{service: s}
}

func (h *ShortLinkHandler) Create(c *gin.Context) {
	var req dto.CreateShortLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	link, err := h.service.CreateShortLink(c.Request.Context(), middleware.OwnerID(c), req)
	if err != nil {
		zap.L().Warn("Short link creation failed",
			zap.Error(err),
			zap.String("custom_key", req.CustomKey),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(link, i18n.Localize(c.Request.Context(), "shortlink.created")))
}

// List 分页查询归属者自己的短链列表
func (h *ShortLinkHandler) List(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	sizeStr := c.DefaultQuery("size", "10")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		_ = c.Error(apperrors.InvalidRequestError("page must be a positive integer"))
		return
	}

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 || size > 100 {
		_ = c.Error(apperrors.InvalidRequestError("size must be an integer between 1 and 100"))
		return
	}

	pageResp, err := h.service.ListShortLinks(c.Request.Context(), middleware.OwnerID(c), page, size)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(pageResp, "success"))
}

// Update 更新短链目标地址（仅归属者）
func (h *ShortLinkHandler) Update(c *gin.Context) {
	shortKey := c.Param("key")

	var req dto.UpdateShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	if err := h.service.UpdateShortLink(c.Request.Context(), middleware.OwnerID(c), shortKey, req.TargetURL); err != nil {
		zap.L().Warn("Short link update failed",
			zap.Error(err),
			zap.String("short_key", shortKey),
			zap.String("target_url", req.TargetURL),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK("", i18n.Localize(c.Request.Context(), "shortlink.updated")))
}

// Delete 删除短链（仅归属者）
func (h *ShortLinkHandler) Delete(c *gin.Context) {
	shortKey := c.Param("key")

	if err := h.service.DeleteShortLink(c.Request.Context(), middleware.OwnerID(c), shortKey); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK("", i18n.Localize(c.Request.Context(), "shortlink.deleted")))
}

// GetQRImage 返回短链二维码 PNG
func (h *ShortLinkHandler) GetQRImage(c *gin.Context) {
	shortKey := c.Param("key")

	png, err := h.service.GetQRImage(c.Request.Context(), shortKey)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// GetStats 返回短链每日统计（仅归属者）
func (h *ShortLinkHandler) GetStats(c *gin.Context) {
	shortKey := c.Param("key")

	stats, err := h.service.GetStats(c.Request.Context(), middleware.OwnerID(c), shortKey)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Redirect 短键跳转入口。未知短键 404，已过期 410，其余 302 到目标地址
func (h *ShortLinkHandler) Redirect(c *gin.Context) {
	// 去掉前导 '/' 取完整短键
	shortKey := c.Request.URL.Path[1:]
	ip := c.ClientIP()

	targetURL, err := h.service.ResolveForRedirect(c.Request.Context(), shortKey, ip)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// 禁止中间缓存吞掉跳转，点击计数必须精确
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Redirect(http.StatusFound, targetURL)
}
