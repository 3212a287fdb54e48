package models

import "time"

// ClickTransaction is one row per provider transaction id. It is created on
// the first accepted Prepare and only updated afterwards.
type ClickTransaction struct {
	ID                   uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ClickTransID         int64  `gorm:"column:click_trans_id;not null;uniqueIndex" json:"click_trans_id"`
	PaymentTransactionID uint64 `gorm:"column:payment_transaction_id;not null;index" json:"payment_transaction_id"`
	MerchantPrepareID    uint64 `gorm:"column:merchant_prepare_id;not null" json:"merchant_prepare_id"`
	ClickPaydocID        *int64 `gorm:"column:click_paydoc_id" json:"click_paydoc_id"`
	// ErrorCode is the last provider status recorded for this transaction.
	ErrorCode int       `gorm:"column:error_code;not null;default:0" json:"error_code"`
	ErrorNote string    `gorm:"column:error_note;type:varchar(255)" json:"error_note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaymentTransaction *PaymentTransaction `gorm:"foreignKey:PaymentTransactionID" json:"-"`
}

func (ClickTransaction) TableName() string {
	return "click_transaction"
}
