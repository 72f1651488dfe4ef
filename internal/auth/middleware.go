package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"my-race-engineer/internal/config"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware validates the API key on every request. Keys are
// read from the X-API-Key header, with Authorization: ApiKey <key> as
// a fallback for clients that cannot set custom headers.
func APIKeyMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")

		if apiKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "ApiKey ") {
				apiKey = strings.TrimPrefix(authHeader, "ApiKey ")
			}
		}

		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_API_KEY",
					"message": "API key is required. Provide X-API-Key header or Authorization: ApiKey <key>",
				},
			})
			return
		}

		if cfg.Auth.APIKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.Auth.APIKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_API_KEY",
					"message": "Invalid API key provided",
				},
			})
			return
		}

		c.Next()
	}
}
