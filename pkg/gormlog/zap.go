package gormlog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/fatflowers/bizpay/pkg/logctx"
)

// DefaultSensitiveColumns are columns whose statements are logged without
// bound values.
var DefaultSensitiveColumns = []string{"secret_key"}

// ZapLogger implements gorm.io/gorm/logger.Interface and enriches logs with
// trace_id and business_id from context via logctx.FromCtx.
type ZapLogger struct {
	base      *zap.SugaredLogger
	config    gormlogger.Config
	sensitive []string
}

type Option func(*ZapLogger)

func WithLevel(level gormlogger.LogLevel) Option {
	return func(z *ZapLogger) { z.config.LogLevel = level }
}

func WithSlowThreshold(d time.Duration) Option {
	return func(z *ZapLogger) { z.config.SlowThreshold = d }
}

// WithParameterizedQueries never inlines bound values into logged SQL.
func WithParameterizedQueries() Option {
	return func(z *ZapLogger) { z.config.ParameterizedQueries = true }
}

func WithSensitiveColumns(cols ...string) Option {
	return func(z *ZapLogger) { z.sensitive = cols }
}

func New(base *zap.SugaredLogger, opts ...Option) *ZapLogger {
	z := &ZapLogger{
		base: base,
		config: gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Info,
			IgnoreRecordNotFoundError: true,
		},
		sensitive: DefaultSensitiveColumns,
	}
	for _, o := range opts {
		o(z)
	}
	return z
}

func (z *ZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *z
	cp.config.LogLevel = level
	return &cp
}

// ParamsFilter is consulted by gorm before it renders SQL for Trace.
// Dropping the params leaves placeholders in the logged statement.
func (z *ZapLogger) ParamsFilter(_ context.Context, sql string, params ...interface{}) (string, []interface{}) {
	if z.config.ParameterizedQueries {
		return sql, nil
	}
	lower := strings.ToLower(sql)
	for _, col := range z.sensitive {
		if strings.Contains(lower, col) {
			return sql, nil
		}
	}
	return sql, params
}

func (z *ZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if z.config.LogLevel >= gormlogger.Info {
		logctx.FromCtx(ctx, z.base).Infow(msg, "args", data)
	}
}

func (z *ZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if z.config.LogLevel >= gormlogger.Warn {
		logctx.FromCtx(ctx, z.base).Warnw(msg, "args", data)
	}
}

func (z *ZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if z.config.LogLevel >= gormlogger.Error {
		logctx.FromCtx(ctx, z.base).Errorw(msg, "args", data)
	}
}

func (z *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if z.config.LogLevel == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	notFound := errors.Is(err, gormlogger.ErrRecordNotFound)

	switch {
	case err != nil && z.config.LogLevel >= gormlogger.Error && !(notFound && z.config.IgnoreRecordNotFoundError):
		sql, rows := fc()
		logctx.FromCtx(ctx, z.base).Errorw("gorm_trace", z.fields(elapsed, rows, sql, "err", err)...)
	case z.config.SlowThreshold > 0 && elapsed > z.config.SlowThreshold && z.config.LogLevel >= gormlogger.Warn:
		sql, rows := fc()
		logctx.FromCtx(ctx, z.base).Warnw("gorm_slow", z.fields(elapsed, rows, sql, "threshold_ms", z.config.SlowThreshold.Milliseconds())...)
	case z.config.LogLevel >= gormlogger.Info:
		sql, rows := fc()
		logctx.FromCtx(ctx, z.base).Infow("gorm", z.fields(elapsed, rows, sql)...)
	}
}

func (z *ZapLogger) fields(elapsed time.Duration, rows int64, sql string, extra ...interface{}) []interface{} {
	f := []interface{}{
		"rows", rows,
		"elapsed_ms", elapsed.Milliseconds(),
		"caller", shortCaller(utils.FileWithLineNum()),
		"sql", sql,
	}
	return append(f, extra...)
}

// shortCaller trims absolute build paths to repo-relative where possible:
// /Users/alex/repo/internal/platform/db/postgres.go:38 -> internal/platform/db/postgres.go:38
func shortCaller(s string) string {
	if s == "" {
		return s
	}
	pathPart, linePart := s, ""
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		pathPart, linePart = s[:idx], s[idx:]
	}
	p := filepath.ToSlash(pathPart)
	for _, marker := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.Index(p, marker); i >= 0 {
			return p[i+1:] + linePart
		}
	}
	parts := strings.Split(p, "/")
	if n := len(parts); n >= 3 {
		return strings.Join(parts[n-3:], "/") + linePart
	}
	return strings.TrimPrefix(p, "/") + linePart
}
