package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/cashout/internal/domain/model"
	pkgAuth "github.com/polkiloo/cashout/internal/pkg/auth"
)

const (
	// PrincipalContextKey is a gin context key for the authenticated caller.
	PrincipalContextKey = "principal"
	authCookieName      = "cashout_token"
)

// TokenParser resolves bearer tokens into caller identities.
type TokenParser interface {
	ParseToken(token string) (model.Principal, error)
}

// AuthRequired ensures user is authenticated before accessing handler.
func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		principal, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(PrincipalContextKey, principal)
		c.Next()
	}
}

// ReviewerRequired rejects authenticated callers without the reviewer role.
func ReviewerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := Principal(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !principal.Reviewer {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// Principal returns the caller stored by AuthRequired.
func Principal(c *gin.Context) (model.Principal, bool) {
	val, ok := c.Get(PrincipalContextKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := val.(model.Principal)
	return principal, ok
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetAuthCookie writes auth token cookie to response.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, 0, "/", "", false, true)
	c.Header("Authorization", "Bearer "+token)
}
