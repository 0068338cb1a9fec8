package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/redisclient"
)

// SessionCookie is the HTTP-only cookie set on login
const SessionCookie = "session"

// Context keys set by the middleware
const (
	CtxUserID = "userId"
	CtxRole   = "userRole"
)

// Middleware guards routes with token checks
type Middleware struct {
	tokens *TokenManager
	redis  *redisclient.Client
}

// NewMiddleware creates the auth middleware
func NewMiddleware(tokens *TokenManager, redis *redisclient.Client) *Middleware {
	return &Middleware{tokens: tokens, redis: redis}
}

// RequireAuth extracts the token from the Authorization header or the
// session cookie and stores the identity on the request context
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "No auth token, access denied",
			})
			return
		}

		claims, err := m.tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Token verification failed, access denied",
			})
			return
		}

		if m.revoked(c.Request.Context(), claims) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Token revoked, access denied",
			})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRole gates a route to the listed roles; it assumes RequireAuth
// ran earlier in the chain
func (m *Middleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
	}
}

// revoked reports whether the token predates a password-change cutoff
func (m *Middleware) revoked(ctx context.Context, claims *Claims) bool {
	if m.redis == nil || claims.IssuedAt == nil {
		return false
	}
	cutoff, err := m.redis.TokenCutoff(ctx, claims.UserID)
	if err != nil || cutoff.IsZero() {
		return false
	}
	return claims.IssuedAt.Time.Before(cutoff.Truncate(time.Second))
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// UserID returns the authenticated user id from the gin context
func UserID(c *gin.Context) int64 {
	v, _ := c.Get(CtxUserID)
	id, _ := v.(int64)
	return id
}
