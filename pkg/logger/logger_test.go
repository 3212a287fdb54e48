package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fatflowers/bizpay/pkg/config"
)

func TestNew_LevelFollowsEnv(t *testing.T) {
	dev, err := New(&config.Config{Env: config.EnvDev})
	require.NoError(t, err)
	require.True(t, dev.Desugar().Core().Enabled(zapcore.DebugLevel))

	prod, err := New(&config.Config{Env: config.EnvProd})
	require.NoError(t, err)
	require.False(t, prod.Desugar().Core().Enabled(zapcore.DebugLevel))
}
