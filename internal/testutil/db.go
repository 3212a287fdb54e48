// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/internal/platform/db"
	"github.com/fatflowers/bizpay/pkg/gormlog"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite returns a migrated in-memory database private to t.
func OpenSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlog.New(zap.NewNop().Sugar(), gormlog.WithLevel(gormlogger.Silent)),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(zap.NewNop().Sugar(), gdb))
	return gdb
}

// SeedClickAccount stores an active Click account and returns it.
func SeedClickAccount(t *testing.T, gdb *gorm.DB, businessID string, serviceID int64, secret string) *models.PaymentAccount {
	t.Helper()
	acc := &models.PaymentAccount{
		BusinessID:     businessID,
		Provider:       "click",
		ServiceID:      serviceID,
		MerchantID:     serviceID + 1000,
		MerchantUserID: serviceID + 2000,
		SecretKey:      secret,
		IsActive:       true,
	}
	require.NoError(t, gdb.Create(acc).Error)
	return acc
}
