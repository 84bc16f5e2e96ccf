package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shorturl-go/internal/apperrors"
)

// OwnerIDKey gin 上下文中的归属者主体标识
const OwnerIDKey = "ownerID"

// OwnerMiddleware 提取上游认证层写入的主体标识（X-Owner-ID）。
// 认证协议本身不在本系统范围内，这里只消费已解析好的不透明 ID
func OwnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetHeader("X-Owner-ID")
		if ownerID == "" {
			_ = c.Error(apperrors.BusinessError(http.StatusUnauthorized, "error.owner_required"))
			c.Abort()
			return
		}

		c.Set(OwnerIDKey, ownerID)
		c.Next()
	}
}

// OwnerID 读取当前请求的归属者标识
func OwnerID(c *gin.Context) string {
	return c.GetString(OwnerIDKey)
}
