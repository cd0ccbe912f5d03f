package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mroshb/friendgraph/internal/security"
	"github.com/mroshb/friendgraph/pkg/response"
)

const (
	contextUserID   = "user_id"
	contextUsername = "username"
)

// TokenVerifier turns a bearer token into caller claims.
type TokenVerifier interface {
	Authenticate(token string) (*security.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller identity on the context.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := verifier.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextUsername, claims.Username)
		c.Next()
	}
}

// GetUserID returns the authenticated caller id set by RequireAuth.
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(contextUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}

// GetUsername returns the authenticated caller's username as issued in the token.
func GetUsername(c *gin.Context) (string, bool) {
	username := c.GetString(contextUsername)
	return username, username != ""
}
