package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/services"
)

const (
	TokenCookie = "token"

	callerKey = "caller"
	tokenKey  = "token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (services.Caller, error)
}

// ExtractToken reads a bearer token from the Authorization header, falling
// back to the token cookie.
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			return strings.TrimSpace(header[7:])
		}
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// Auth rejects requests without a valid, unrevoked token and stores the
// caller on the context.
func Auth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)

		caller, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			var se *services.Error
			if errors.As(err, &se) && se.Kind != services.KindInternal {
				c.AbortWithStatusJSON(se.Status(), gin.H{"message": se.Message})
				return
			}
			slog.ErrorContext(c.Request.Context(), "authenticate request", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		c.Set(callerKey, caller)
		c.Set(tokenKey, token)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok || !caller.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}

func CallerFrom(c *gin.Context) (services.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return services.Caller{}, false
	}
	caller, ok := v.(services.Caller)
	return caller, ok
}

// TokenFrom returns the raw token accepted by Auth.
func TokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}
