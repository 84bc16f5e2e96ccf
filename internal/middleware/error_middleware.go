package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shorturl-go/internal/apperrors"
	"shorturl-go/internal/i18n"
	"shorturl-go/response"
)

// GlobalErrorMiddleware 全局错误中间件：AppError 映射为对应状态码，
// 消息为 error.* 形式的 ID 时先走本地化
func GlobalErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				var appErr *apperrors.AppError
				if errors.As(err.Err, &appErr) {
					localized := *appErr
					localized.Message = i18n.Localize(c.Request.Context(), appErr.Message)
					c.AbortWithStatusJSON(appErr.Code, response.ErrorFromAppError(&localized))
					return
				}
			}

			// 默认处理未定义的错误
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				response.Error(i18n.Localize(c.Request.Context(), "error.system")))
			return
		}
	}
}
