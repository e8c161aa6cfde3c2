package middleware

import (
	"context"
	"net/http"
	"strings"

	"tslaglobal/backend/internal/model"
	"tslaglobal/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// TokenValidator resolves an access token to its user
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.User, error)
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// a WebSocket handshake, so the token query parameter is accepted as well.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, true
		}
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setUser(c *gin.Context, user *model.User) {
	c.Set("user_id", user.ID)
	c.Set("user_email", user.Email)
	c.Set("user_role", user.Role)
	c.Set("user", user)
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			util.AbortWithCustomError(c, http.StatusUnauthorized, util.ErrCodeUnauthorized, "Missing or invalid authorization header")
			return
		}

		user, err := auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			util.AbortWithError(c, err)
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// RequireAdmin middleware requires admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			util.AbortWithCustomError(c, http.StatusUnauthorized, util.ErrCodeUnauthorized, "Authentication required")
			return
		}

		if role != model.RoleAdmin {
			util.AbortWithCustomError(c, http.StatusForbidden, util.ErrCodeForbidden, "Admin access required")
			return
		}

		c.Next()
	}
}

// OptionalAuth middleware extracts user info if token is present, but doesn't require it
func OptionalAuth(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := auth.ValidateToken(c.Request.Context(), token); err == nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// RequireActiveAccount rejects state-changing requests from frozen accounts.
// Reads stay available so a frozen user can still see balances.
func RequireActiveAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		if user, ok := CurrentUser(c); ok && user.IsFrozen {
			util.AbortWithError(c, util.ErrAccountFrozen())
			return
		}
		c.Next()
	}
}
