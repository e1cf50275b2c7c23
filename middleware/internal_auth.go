package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"friendsd/utils"
)

// InternalAuthMiddleware guards service-to-service routes with a shared bearer
// token. An empty token disables the routes entirely.
func InternalAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			utils.Forbidden(c, "internal api disabled")
			c.Abort()
			return
		}

		got, ok := bearerToken(c)
		if !ok {
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			utils.Unauthorized(c, "invalid internal token")
			c.Abort()
			return
		}

		c.Next()
	}
}
