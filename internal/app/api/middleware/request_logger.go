package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/bizpay/pkg/logctx"
)

// RequestLoggerMiddleware attaches a request-scoped logger enriched with
// trace_id to gin.Context and request context.
func RequestLoggerMiddleware(base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetString(logctx.TraceIDKey)

		reqLogger := base.With("trace_id", traceID)
		setRequestLogger(c, reqLogger)

		// mirror trace id to response header when available
		if traceID != "" {
			c.Writer.Header().Set("X-Request-ID", traceID)
		}

		c.Next()
	}
}

func setRequestLogger(c *gin.Context, l *zap.SugaredLogger) {
	c.Set(logctx.LoggerKey, l)
	c.Request = c.Request.WithContext(logctx.WithLogger(c.Request.Context(), l))
}
