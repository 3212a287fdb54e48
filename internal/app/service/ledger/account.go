package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/types"
)

// UpsertAccount creates or replaces the credentials for (provider, service_id).
func (l *Ledger) UpsertAccount(ctx context.Context, acc *models.PaymentAccount) error {
	if acc == nil || acc.BusinessID == "" || acc.ServiceID == 0 || acc.SecretKey == "" {
		return fmt.Errorf("business_id, service_id and secret_key are required")
	}
	if acc.Provider == "" {
		acc.Provider = types.PaymentProviderClick
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "service_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"business_id", "merchant_id", "merchant_user_id", "secret_key", "is_active", "updated_at"}),
	}).Create(acc).Error
	if err != nil {
		return fmt.Errorf("failed to upsert payment account: %w", err)
	}
	logctx.FromCtx(ctx, l.log).Infow("payment_account_upserted", "business_id", acc.BusinessID, "provider", acc.Provider, "service_id", acc.ServiceID)
	return nil
}

// AccountForBusiness returns the active account a business uses for provider.
func (l *Ledger) AccountForBusiness(ctx context.Context, businessID string, provider types.PaymentProvider) (*models.PaymentAccount, error) {
	var acc models.PaymentAccount
	err := l.db.WithContext(ctx).
		Where("business_id = ? AND provider = ? AND is_active = ?", businessID, provider, true).
		Order("id DESC").
		First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get payment account: %w", err)
	}
	return &acc, nil
}
