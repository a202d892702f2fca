// Package middleware guards the internal HTTP surface of the catalog service.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// internalKeyHeader carries the shared service key on internal calls.
const internalKeyHeader = "X-Internal-API-Key"

// InternalAuthMiddleware protects the /internal route group with a shared
// key from INTERNAL_API_KEY. An unset key rejects every request instead of
// leaving the surface open.
func InternalAuthMiddleware() gin.HandlerFunc {
	expected := []byte(os.Getenv("INTERNAL_API_KEY"))

	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: INTERNAL_API_KEY not set",
			})
			return
		}
		presented := []byte(c.GetHeader(internalKeyHeader))
		if subtle.ConstantTimeCompare(presented, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
