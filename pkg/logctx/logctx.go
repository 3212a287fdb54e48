package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys shared with the HTTP middleware. gin.Context stores the same
// names via c.Set.
const (
	LoggerKey     = "logger"
	TraceIDKey    = "traceID"
	BusinessIDKey = "business_id"
)

// FromGin returns a request-scoped logger from gin.Context if present,
// otherwise returns the provided base logger.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(LoggerKey); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	// fall back to ctx-based enrichment
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns a logger from context if set, otherwise attempts to enrich
// base with trace_id/business_id from context values.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if lg, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok && lg != nil {
		return lg
	}
	var fields []interface{}
	if tid := TraceID(ctx); tid != "" {
		fields = append(fields, "trace_id", tid)
	}
	if bid, ok := ctx.Value(BusinessIDKey).(string); ok && bid != "" {
		fields = append(fields, "business_id", bid)
	}
	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}

// WithLogger stores a request-scoped logger on ctx.
func WithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// TraceID returns the trace id attached by the trace middleware, if any.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		return tid
	}
	return ""
}
