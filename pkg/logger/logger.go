package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fatflowers/bizpay/pkg/config"
)

// New builds the process logger: JSON production encoding in prod, console
// encoding with debug level otherwise.
func New(cfg *config.Config) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg != nil && cfg.Env != config.EnvProd {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.TimeKey = "time"
	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar().With("service", "bizpay"), nil
}

var Module = fx.Options(
	fx.Provide(New),
)
