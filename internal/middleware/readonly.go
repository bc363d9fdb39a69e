package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clera-dev/clera-gateway/internal/pkg/apperrors"
)

// ReadOnlyMiddleware freezes money movement during incidents or maintenance.
// Reads pass through; billing webhooks stay writable so entitlements do not
// drift while the freeze is in effect.
func ReadOnlyMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/webhooks/") {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		default:
			c.Error(apperrors.New(apperrors.ErrReadOnly, "read-only mode enabled", nil))
			c.Abort()
			return
		}
	}
}
