package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentCallbackLogStatus string

const (
	PaymentCallbackLogStatusReceived     PaymentCallbackLogStatus = "received"
	PaymentCallbackLogStatusHandled      PaymentCallbackLogStatus = "handled"
	PaymentCallbackLogStatusHandleFailed PaymentCallbackLogStatus = "handle_failed"
)

// PaymentCallbackLog is an append-only audit row per inbound provider callback.
type PaymentCallbackLog struct {
	ID               string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderID       string                   `gorm:"column:provider_id;type:varchar(64);not null" json:"provider_id"`
	Action           string                   `gorm:"column:action;type:varchar(32)" json:"action"`
	TraceID          string                   `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	ProviderTransID  string                   `gorm:"column:provider_trans_id;type:varchar(128);index" json:"provider_trans_id"`
	OrderID          string                   `gorm:"column:order_id;type:varchar(64);index" json:"order_id"`
	ErrorCode        *int                     `gorm:"column:error_code" json:"error_code"`
	NotificationTime time.Time                `gorm:"column:notification_time" json:"notification_time"`
	Request          datatypes.JSON           `gorm:"column:request;type:jsonb" json:"request"`
	Response         *datatypes.JSON          `gorm:"column:response;type:jsonb" json:"response"`
	Status           PaymentCallbackLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

func (PaymentCallbackLog) TableName() string { return "payment_callback_log" }
