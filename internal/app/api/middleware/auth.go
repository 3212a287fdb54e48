package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/bizpay/pkg/authtoken"
	"github.com/fatflowers/bizpay/pkg/config"
	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/response"
)

const roleKey = "auth_role"

// AuthMiddleware validates the bearer token and stores its business id in
// gin.Context and the request context. The request logger, when present,
// is enriched with business_id.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortUnauthorized(c, "missing or invalid authorization header")
			return
		}

		claims, err := authtoken.Parse(cfg.Auth.JWTSecret, cfg.Auth.Issuer, strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(logctx.BusinessIDKey, claims.BusinessID)
		c.Set(roleKey, claims.Role)
		ctx := context.WithValue(c.Request.Context(), logctx.BusinessIDKey, claims.BusinessID)
		c.Request = c.Request.WithContext(ctx)
		if v, ok := c.Get(logctx.LoggerKey); ok {
			if l, ok := v.(*zap.SugaredLogger); ok && l != nil {
				setRequestLogger(c, l.With("business_id", claims.BusinessID))
			}
		}
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role authtoken.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r, _ := c.Get(roleKey); r != role {
			abortUnauthorized(c, "insufficient role")
			return
		}
		c.Next()
	}
}

// BusinessID returns the authenticated business id.
func BusinessID(c *gin.Context) string {
	return c.GetString(logctx.BusinessIDKey)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, msg))
}
