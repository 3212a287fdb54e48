package models

import (
	"time"

	"github.com/fatflowers/bizpay/pkg/types"
)

// PaymentAccount holds a business's merchant credentials for one provider.
// SecretKey is only ever used to compute or check signatures.
type PaymentAccount struct {
	ID         uint64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BusinessID string                `gorm:"column:business_id;type:varchar(64);not null;index" json:"business_id"`
	Provider   types.PaymentProvider `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:unique_provider_service_id,priority:1" json:"provider"`
	ServiceID  int64                 `gorm:"column:service_id;not null;uniqueIndex:unique_provider_service_id,priority:2" json:"service_id"`
	MerchantID int64                 `gorm:"column:merchant_id;not null" json:"merchant_id"`
	// MerchantUserID is the login used in the Auth header of merchant API calls.
	MerchantUserID int64     `gorm:"column:merchant_user_id" json:"merchant_user_id"`
	SecretKey      string    `gorm:"column:secret_key;type:varchar(255);not null" json:"-"`
	IsActive       bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (PaymentAccount) TableName() string {
	return "payment_account"
}
