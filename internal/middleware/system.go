package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clera-dev/clera-gateway/internal/config"
)

// SystemMiddleware protects system routes (webhooks, cron) with a shared
// secret instead of a user session.
func SystemMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || cfg.Auth.SystemKey == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "system key not configured"})
			c.Abort()
			return
		}
		provided := c.GetHeader(HeaderSystemKey)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Auth.SystemKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid system key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
