package handler

import (
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"shorturl-go/internal/apperrors"
	"shorturl-go/internal/dto"
	"shorturl-go/internal/i18n"
	"shorturl-go/internal/service"
	"shorturl-go/response"
)

type ReservedKeyHandler struct {
	service *service.ReservedKeyService
}

func NewReservedKeyHandler(s *service.ReservedKeyService) *ReservedKeyHandler {
	return &ReservedKeyHandler{service: s}
}

// Create 登记保留短键（POST /api/reserved-key）
func (h *ReservedKeyHandler) Create(c *gin.Context) {
	var req dto.CreateReservedKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 校验错误时优先取字段上的 msg 标签作为提示
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrs {
				field, ok := reflect.TypeOf(req).FieldByName(e.Field())
				if !ok {
					_ = c.Error(apperrors.InvalidRequestErrorDefault())
					return
				}

				customMsg := field.Tag.Get("msg")
				if customMsg != "" {
					_ = c.Error(apperrors.InvalidRequestError(customMsg))
					return
				}
			}
		}
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	reserved, err := h.service.CreateReservedKey(c.Request.Context(), req.ShortKey)
	if err != nil {
		zap.L().Warn("Reserved key creation failed",
			zap.Error(err),
			zap.String("short_key", req.ShortKey),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(reserved, i18n.Localize(c.Request.Context(), "reservedkey.created")))
}

// List 分页查询保留短键（GET /api/reserved-key）
func (h *ReservedKeyHandler) List(c *gin.Context) {
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

	pageResp, err := h.service.ListReservedKeys(c.Request.Context(), page, size)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(pageResp, "success"))
}

// Delete 删除保留短键（DELETE /api/reserved-key/:id）
func (h *ReservedKeyHandler) Delete(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Error("invalid id"))
		return
	}

	if err := h.service.DeleteReservedKey(c.Request.Context(), uint(id)); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK("", i18n.Localize(c.Request.Context(), "reservedkey.deleted")))
}
