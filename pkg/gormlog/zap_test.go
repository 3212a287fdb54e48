package gormlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestShortCaller(t *testing.T) {
	tests := map[string]string{
		"/Users/alex/repo/internal/platform/db/postgres.go:38": "internal/platform/db/postgres.go:38",
		"/srv/build/pkg/money/money.go:12":                     "pkg/money/money.go:12",
		"/a/b/c/d/e.go:1":                                      "c/d/e.go:1",
		"":                                                     "",
	}
	for in, want := range tests {
		require.Equal(t, want, shortCaller(in), in)
	}
}

func TestTrace_LevelsBySeverity(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core).Sugar(), WithSlowThreshold(10*time.Millisecond))
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), sql, nil)
	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	l.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)

	msgs := make([]string, 0, logs.Len())
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	require.Equal(t, []string{"gorm", "gorm_slow", "gorm_trace", "gorm"}, msgs)
}

func TestLogMode_Silent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core).Sugar()).LogMode(gormlogger.Silent)
	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	require.Equal(t, 0, logs.Len())
}

func TestParamsFilter(t *testing.T) {
	l := New(zap.NewNop().Sugar())
	sql, params := l.ParamsFilter(context.Background(), `UPDATE "payment_account" SET "secret_key"=?`, "top-secret")
	require.Contains(t, sql, "secret_key")
	require.Nil(t, params)

	_, params = l.ParamsFilter(context.Background(), `SELECT * FROM "payment_transaction" WHERE order_id = ?`, "ORD-1")
	require.Equal(t, []interface{}{"ORD-1"}, params)

	_, params = New(zap.NewNop().Sugar(), WithParameterizedQueries()).ParamsFilter(context.Background(), "SELECT ?", 1)
	require.Nil(t, params)
}

type account struct {
	ID        uint64 `gorm:"primaryKey"`
	ServiceID int64
	SecretKey string
}

func TestTrace_NeverLogsSecretValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	db, err := gorm.Open(sqlite.Open("file:gormlog_secret?mode=memory&cache=shared"), &gorm.Config{
		Logger: New(zap.New(core).Sugar()),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&account{}))

	require.NoError(t, db.Create(&account{ServiceID: 12, SecretKey: "top-secret"}).Error)
	require.NoError(t, db.Model(&account{}).Where("service_id = ?", 12).Update("secret_key", "rotated-secret").Error)

	require.NotZero(t, logs.Len())
	for _, e := range logs.All() {
		for _, v := range e.ContextMap() {
			s, _ := v.(string)
			require.NotContains(t, s, "top-secret")
			require.NotContains(t, s, "rotated-secret")
		}
	}
}
