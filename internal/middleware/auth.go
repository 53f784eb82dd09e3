package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// APIKeyAuthMiddleware validates service-to-service authentication using the
// X-API-Key header. The expected key comes from OFFER_SERVICE_API_KEY.
func APIKeyAuthMiddleware() gin.HandlerFunc {
	apiKey := os.Getenv("OFFER_SERVICE_API_KEY")
	if apiKey == "" {
		// Fail requests rather than running open when misconfigured.
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: OFFER_SERVICE_API_KEY not set",
			})
		}
	}
	apiKeyBytes := []byte(apiKey)

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		// Constant-time compare to prevent timing attacks.
		if subtle.ConstantTimeCompare([]byte(key), apiKeyBytes) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
