package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/types"
)

var (
	ErrAccountNotFound           = errors.New("payment account not found")
	ErrPaymentNotFound           = errors.New("payment transaction not found")
	ErrClickTransactionNotFound  = errors.New("click transaction not found")
	ErrDuplicateClickTransaction = errors.New("click transaction already exists")
	ErrAlreadyPaid               = errors.New("payment transaction already paid")
	ErrPaymentCancelled          = errors.New("payment transaction cancelled")
)

// Ledger persists payment transactions and their provider counterparts.
type Ledger struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Ledger {
	return &Ledger{db: db, log: log, now: time.Now}
}

// ResolveAccount returns the active Click account for serviceID.
func (l *Ledger) ResolveAccount(ctx context.Context, serviceID int64) (*models.PaymentAccount, error) {
	var acc models.PaymentAccount
	err := l.db.WithContext(ctx).
		Where("provider = ? AND service_id = ? AND is_active = ?", types.PaymentProviderClick, serviceID, true).
		First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}
	return &acc, nil
}

func (l *Ledger) FindPaymentByOrderID(ctx context.Context, orderID string) (*models.PaymentTransaction, error) {
	return l.findPayment(l.db.WithContext(ctx), "order_id = ?", orderID)
}

func (l *Ledger) GetPayment(ctx context.Context, id uint64) (*models.PaymentTransaction, error) {
	return l.findPayment(l.db.WithContext(ctx), "id = ?", id)
}

func (l *Ledger) findPayment(tx *gorm.DB, query string, args ...any) (*models.PaymentTransaction, error) {
	var p models.PaymentTransaction
	if err := tx.Where(query, args...).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment transaction: %w", err)
	}
	return &p, nil
}

func (l *Ledger) FindClickTransaction(ctx context.Context, clickTransID int64) (*models.ClickTransaction, error) {
	var ct models.ClickTransaction
	if err := l.db.WithContext(ctx).Where("click_trans_id = ?", clickTransID).First(&ct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClickTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get click transaction: %w", err)
	}
	return &ct, nil
}

type PrepareInput struct {
	PaymentID    uint64
	ClickTransID int64
	ErrorNote    string
}

// Prepare records the provider transaction and moves the payment to
// processing in one DB transaction. The unique index on click_trans_id
// rejects a concurrent second insert with ErrDuplicateClickTransaction.
func (l *Ledger) Prepare(ctx context.Context, in *PrepareInput) (*models.ClickTransaction, error) {
	ct := &models.ClickTransaction{
		ClickTransID:         in.ClickTransID,
		PaymentTransactionID: in.PaymentID,
		MerchantPrepareID:    in.PaymentID,
		ErrorCode:            0,
		ErrorNote:            in.ErrorNote,
	}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ct).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateClickTransaction
			}
			return fmt.Errorf("failed to create click transaction: %w", err)
		}

		res := tx.Model(&models.PaymentTransaction{}).
			Where("id = ? AND is_paid = ? AND status IN ?", in.PaymentID, false,
				[]types.PaymentStatus{types.PaymentStatusPending, types.PaymentStatusProcessing}).
			Updates(map[string]any{
				"status":      types.PaymentStatusProcessing,
				"external_id": strconv.FormatInt(in.ClickTransID, 10),
				"prepared_at": l.now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark payment processing: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return l.terminalError(tx, in.PaymentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, l.log).Infow("ledger_prepared", "payment_id", in.PaymentID, "click_trans_id", in.ClickTransID)
	return ct, nil
}

type CompleteInput struct {
	PaymentID     uint64
	ClickTransID  int64
	ClickPaydocID int64
}

// Complete marks the payment paid. The conditional update only matches an
// unpaid, uncancelled row, so a replayed or racing Complete returns
// ErrAlreadyPaid instead of crediting twice.
func (l *Ledger) Complete(ctx context.Context, in *CompleteInput) (*models.PaymentTransaction, error) {
	var out *models.PaymentTransaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentTransaction{}).
			Where("id = ? AND is_paid = ? AND status <> ?", in.PaymentID, false, types.PaymentStatusCancelled).
			Updates(map[string]any{
				"is_paid": true,
				"status":  types.PaymentStatusCompleted,
				"paid_at": l.now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark payment completed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return l.terminalError(tx, in.PaymentID)
		}

		updates := map[string]any{"error_code": 0, "error_note": "Success"}
		if in.ClickPaydocID != 0 {
			updates["click_paydoc_id"] = in.ClickPaydocID
		}
		if err := tx.Model(&models.ClickTransaction{}).
			Where("click_trans_id = ?", in.ClickTransID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update click transaction: %w", err)
		}

		p, err := l.findPayment(tx, "id = ?", in.PaymentID)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, l.log).Infow("ledger_completed", "payment_id", in.PaymentID, "click_trans_id", in.ClickTransID)
	return out, nil
}

type CancelInput struct {
	PaymentID     uint64
	ClickTransID  int64
	ClickPaydocID int64
	ErrorCode     int
	ErrorNote     string
}

// Cancel terminates an unpaid payment after a provider cancellation notice.
func (l *Ledger) Cancel(ctx context.Context, in *CancelInput) (*models.PaymentTransaction, error) {
	var out *models.PaymentTransaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentTransaction{}).
			Where("id = ? AND is_paid = ? AND status <> ?", in.PaymentID, false, types.PaymentStatusCancelled).
			Updates(map[string]any{
				"status":       types.PaymentStatusCancelled,
				"cancelled_at": l.now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark payment cancelled: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return l.terminalError(tx, in.PaymentID)
		}

		updates := map[string]any{"error_code": in.ErrorCode, "error_note": in.ErrorNote}
		if in.ClickPaydocID != 0 {
			updates["click_paydoc_id"] = in.ClickPaydocID
		}
		if err := tx.Model(&models.ClickTransaction{}).
			Where("click_trans_id = ?", in.ClickTransID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update click transaction: %w", err)
		}

		p, err := l.findPayment(tx, "id = ?", in.PaymentID)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, l.log).Infow("ledger_cancelled", "payment_id", in.PaymentID, "click_trans_id", in.ClickTransID)
	return out, nil
}

// terminalError explains why a conditional update matched no row.
func (l *Ledger) terminalError(tx *gorm.DB, paymentID uint64) error {
	p, err := l.findPayment(tx, "id = ?", paymentID)
	if err != nil {
		return err
	}
	switch {
	case p.IsPaid:
		return ErrAlreadyPaid
	case p.IsCancelled():
		return ErrPaymentCancelled
	default:
		return fmt.Errorf("payment %d in unexpected state %q", paymentID, p.Status)
	}
}
