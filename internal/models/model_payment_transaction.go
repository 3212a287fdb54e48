package models

import (
	"time"

	"github.com/fatflowers/bizpay/pkg/types"
)

// PaymentTransaction is the merchant-side payment intent. ID doubles as the
// merchant_prepare_id / merchant_confirm_id echoed to the provider.
type PaymentTransaction struct {
	ID         uint64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID    string                `gorm:"column:order_id;type:varchar(64);not null;uniqueIndex" json:"order_id"`
	BusinessID string                `gorm:"column:business_id;type:varchar(64);not null;index:idx_business_id_created_at,priority:1" json:"business_id"`
	Provider   types.PaymentProvider `gorm:"column:provider;type:varchar(32);not null" json:"provider"`
	// Amount in minor units (tiyin). Never changes after creation.
	Amount   int64               `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency string              `gorm:"column:currency;type:varchar(8);not null;default:'UZS'" json:"currency"`
	IsPaid   bool                `gorm:"column:is_paid;not null;default:false" json:"is_paid"`
	Status   types.PaymentStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	LeadID   *string             `gorm:"column:lead_id;type:varchar(64);index" json:"lead_id"`
	// ExternalID is the provider transaction id recorded at prepare time.
	ExternalID  *string    `gorm:"column:external_id;type:varchar(64)" json:"external_id"`
	PhoneNumber *string    `gorm:"column:phone_number;type:varchar(32)" json:"phone_number"`
	Description string     `gorm:"column:description;type:varchar(255)" json:"description"`
	PreparedAt  *time.Time `gorm:"column:prepared_at" json:"prepared_at"`
	PaidAt      *time.Time `gorm:"column:paid_at" json:"paid_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at"`
	CreatedAt   time.Time  `gorm:"index:idx_business_id_created_at,priority:2" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transaction"
}

func (p *PaymentTransaction) IsCancelled() bool {
	return p != nil && p.Status == types.PaymentStatusCancelled
}
