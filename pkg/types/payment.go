package types

type PaymentProvider string

const (
	PaymentProviderClick PaymentProvider = "click"
	PaymentProviderPayme PaymentProvider = "payme"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// IsTerminal reports whether no further protocol transition is accepted.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusCancelled
}
