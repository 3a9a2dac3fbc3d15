package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"docqa/internal/transport/http/response"
)

const ContextUserIDKey = "user_id"

// IdentityHeader carries the authenticated user id, set by the gateway that
// owns authentication. This service only requires it to be present.
const IdentityHeader = "X-User-ID"

func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(IdentityHeader))
		if userID == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing identity header")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// UserID returns the identity stored by the middleware.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
