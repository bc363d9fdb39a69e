package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HeaderSystemKey = "X-System-Key"
	ContextUserKey  = "user_id"

	sessionCookie = "clera-session"
)

// SessionVerifier validates a session token and returns the user id.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// SessionMiddleware identifies the caller without gating: it extracts the
// session token (Authorization bearer or cookie), verifies it, and stores the
// user id in the context. Whether authentication is required for the route is
// the access-control middleware's decision.
func SessionMiddleware(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.Next()
			return
		}

		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			// Invalid token is treated as anonymous; gated routes will deny.
			c.Next()
			return
		}

		c.Set(ContextUserKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id from the context, if any.
func UserID(c *gin.Context) (string, bool) {
	val, exists := c.Get(ContextUserKey)
	if !exists {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
