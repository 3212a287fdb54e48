package click

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/bizpay/internal/app/service/events"
	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/metrics"
	"github.com/fatflowers/bizpay/pkg/money"
	"github.com/fatflowers/bizpay/pkg/tool"
	"github.com/fatflowers/bizpay/pkg/types"
)

// Ledger is the storage the callback flow reads and mutates.
type Ledger interface {
	ResolveAccount(ctx context.Context, serviceID int64) (*models.PaymentAccount, error)
	FindPaymentByOrderID(ctx context.Context, orderID string) (*models.PaymentTransaction, error)
	FindClickTransaction(ctx context.Context, clickTransID int64) (*models.ClickTransaction, error)
	Prepare(ctx context.Context, in *ledger.PrepareInput) (*models.ClickTransaction, error)
	Complete(ctx context.Context, in *ledger.CompleteInput) (*models.PaymentTransaction, error)
	Cancel(ctx context.Context, in *ledger.CancelInput) (*models.PaymentTransaction, error)
}

// CallbackRecorder stores the audit trail of inbound callbacks.
type CallbackRecorder interface {
	Save(ctx context.Context, log *models.PaymentCallbackLog)
}

// Service answers Click SHOP API callbacks. Every path yields a response;
// nothing is retried here, redelivery is Click's job.
type Service struct {
	ledger   Ledger
	verifier SignatureVerifier
	recorder CallbackRecorder
	events   events.Publisher
	log      *zap.SugaredLogger

	pending sync.WaitGroup
}

// publishTimeout bounds one detached event publish, including broker acks.
const publishTimeout = 15 * time.Second

func New(l Ledger, verifier SignatureVerifier, recorder CallbackRecorder, pub events.Publisher, log *zap.SugaredLogger) *Service {
	return &Service{ledger: l, verifier: verifier, recorder: recorder, events: pub, log: log}
}

// HandleCallback runs one Prepare or Complete notification to completion.
func (s *Service) HandleCallback(ctx context.Context, req *CallbackRequest) (res *CallbackResponse) {
	start := time.Now()
	action := ParseAction(req.Action)
	entry := s.recordReceived(ctx, req, action)
	defer func() {
		metrics.IncCallbackResult(action.String(), int(res.Error))
		metrics.ObserveBusinessProcess("click_callback", action.String(), start)
		s.recordResult(ctx, entry, res)
	}()

	return s.handle(ctx, req, action)
}

// Reject answers a callback that could not be decoded. req may be partial.
func (s *Service) Reject(ctx context.Context, req *CallbackRequest, cause error) *CallbackResponse {
	if req == nil {
		req = &CallbackRequest{}
	}
	action := ParseAction(req.Action)
	logctx.FromCtx(ctx, s.log).Warnw("click_callback_rejected", "click_trans_id", req.ClickTransID, "err", cause)

	entry := s.recordReceived(ctx, req, action)
	res := NewResponse(req, CodeErrorInRequest)
	metrics.IncCallbackResult(action.String(), int(res.Error))
	s.recordResult(ctx, entry, res)
	return res
}

func (s *Service) handle(ctx context.Context, req *CallbackRequest, action Action) *CallbackResponse {
	log := logctx.FromCtx(ctx, s.log).With(
		"click_trans_id", req.ClickTransID,
		"merchant_trans_id", req.MerchantTransID,
		"action", action.String(),
	)

	acc, err := s.ledger.ResolveAccount(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			log.Warnw("click_unknown_service", "service_id", req.ServiceID)
			return NewResponse(req, CodeUserNotFound)
		}
		log.Errorw("click_resolve_account_failed", "err", err)
		return NewResponse(req, CodeFailedToUpdate)
	}

	if !s.verifier.Verify(req, action, acc.SecretKey) {
		log.Warnw("click_sign_check_failed", "service_id", req.ServiceID)
		return NewResponse(req, CodeSignCheckFailed)
	}

	if action == ActionUnknown {
		log.Warnw("click_action_not_found", "raw_action", req.Action)
		return NewResponse(req, CodeActionNotFound)
	}

	payment, err := s.ledger.FindPaymentByOrderID(ctx, req.MerchantTransID)
	if err != nil {
		if errors.Is(err, ledger.ErrPaymentNotFound) {
			log.Warnw("click_payment_not_found")
			return NewResponse(req, CodeUserNotFound)
		}
		log.Errorw("click_find_payment_failed", "err", err)
		return NewResponse(req, CodeFailedToUpdate)
	}
	if payment.BusinessID != acc.BusinessID || payment.Provider != types.PaymentProviderClick {
		log.Warnw("click_payment_account_mismatch", "payment_business_id", payment.BusinessID, "account_business_id", acc.BusinessID)
		return NewResponse(req, CodeUserNotFound)
	}

	amount, err := money.ParseMinor(req.Amount)
	if err != nil || amount != payment.Amount {
		log.Warnw("click_invalid_amount", "amount", req.Amount, "expected", money.FormatMinor(payment.Amount))
		return NewResponse(req, CodeInvalidAmount)
	}

	switch action {
	case ActionPrepare:
		return s.prepare(ctx, log, req, payment)
	case ActionComplete:
		return s.complete(ctx, log, req, payment)
	default:
		return NewResponse(req, CodeActionNotFound)
	}
}

func (s *Service) prepare(ctx context.Context, log *zap.SugaredLogger, req *CallbackRequest, payment *models.PaymentTransaction) *CallbackResponse {
	if payment.IsPaid {
		return NewResponse(req, CodeAlreadyPaid)
	}
	if payment.IsCancelled() {
		return NewResponse(req, CodeTransactionCancelled)
	}

	existing, err := s.ledger.FindClickTransaction(ctx, req.ClickTransID)
	switch {
	case err == nil:
		return s.preparedAgain(log, req, payment, existing)
	case !errors.Is(err, ledger.ErrClickTransactionNotFound):
		log.Errorw("click_find_transaction_failed", "err", err)
		return NewResponse(req, CodeFailedToUpdate)
	}

	ct, err := s.ledger.Prepare(ctx, &ledger.PrepareInput{
		PaymentID:    payment.ID,
		ClickTransID: req.ClickTransID,
		ErrorNote:    req.ErrorNote,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateClickTransaction) {
			// Lost the insert race to a concurrent delivery.
			existing, ferr := s.ledger.FindClickTransaction(ctx, req.ClickTransID)
			if ferr != nil {
				log.Errorw("click_reread_transaction_failed", "err", ferr)
				return NewResponse(req, CodeFailedToUpdate)
			}
			return s.preparedAgain(log, req, payment, existing)
		}
		return s.ledgerFailure(log, req, err)
	}

	res := NewResponse(req, CodeSuccess)
	prepareID := ct.MerchantPrepareID
	res.MerchantPrepareID = &prepareID
	log.Infow("click_prepared", "merchant_prepare_id", prepareID)
	return res
}

// preparedAgain answers a Prepare whose click_trans_id is already stored.
func (s *Service) preparedAgain(log *zap.SugaredLogger, req *CallbackRequest, payment *models.PaymentTransaction, ct *models.ClickTransaction) *CallbackResponse {
	if ct.PaymentTransactionID != payment.ID {
		log.Warnw("click_trans_id_reused", "stored_payment_id", ct.PaymentTransactionID, "payment_id", payment.ID)
		return NewResponse(req, CodeErrorInRequest)
	}
	if ct.ErrorCode < 0 {
		return NewResponse(req, CodeTransactionCancelled)
	}
	res := NewResponse(req, CodeSuccess)
	prepareID := ct.MerchantPrepareID
	res.MerchantPrepareID = &prepareID
	log.Infow("click_prepare_redelivered", "merchant_prepare_id", prepareID)
	return res
}

func (s *Service) complete(ctx context.Context, log *zap.SugaredLogger, req *CallbackRequest, payment *models.PaymentTransaction) *CallbackResponse {
	ct, err := s.ledger.FindClickTransaction(ctx, req.ClickTransID)
	if err != nil {
		if errors.Is(err, ledger.ErrClickTransactionNotFound) {
			log.Warnw("click_complete_without_prepare")
			return NewResponse(req, CodeTransactionNotFound)
		}
		log.Errorw("click_find_transaction_failed", "err", err)
		return NewResponse(req, CodeFailedToUpdate)
	}
	if ct.PaymentTransactionID != payment.ID || int64(ct.MerchantPrepareID) != req.MerchantPrepareID {
		log.Warnw("click_prepare_id_mismatch", "merchant_prepare_id", req.MerchantPrepareID, "stored_prepare_id", ct.MerchantPrepareID)
		return NewResponse(req, CodeTransactionNotFound)
	}

	if payment.IsPaid {
		return NewResponse(req, CodeAlreadyPaid)
	}
	if payment.IsCancelled() {
		return NewResponse(req, CodeTransactionCancelled)
	}

	if req.Error < 0 {
		p, err := s.ledger.Cancel(ctx, &ledger.CancelInput{
			PaymentID:     payment.ID,
			ClickTransID:  req.ClickTransID,
			ClickPaydocID: req.ClickPaydocID,
			ErrorCode:     int(CodeTransactionCancelled),
			ErrorNote:     req.ErrorNote,
		})
		if err != nil {
			return s.ledgerFailure(log, req, err)
		}
		log.Infow("click_cancelled", "provider_error", req.Error, "provider_note", req.ErrorNote)
		s.publish(ctx, log, events.EventPaymentCancelled, p, int(CodeTransactionCancelled))
		return NewResponse(req, CodeTransactionCancelled)
	}

	p, err := s.ledger.Complete(ctx, &ledger.CompleteInput{
		PaymentID:     payment.ID,
		ClickTransID:  req.ClickTransID,
		ClickPaydocID: req.ClickPaydocID,
	})
	if err != nil {
		return s.ledgerFailure(log, req, err)
	}

	res := NewResponse(req, CodeSuccess)
	confirmID := p.ID
	res.MerchantConfirmID = &confirmID
	log.Infow("click_completed", "merchant_confirm_id", confirmID)
	s.publish(ctx, log, events.EventPaymentCompleted, p, int(CodeSuccess))
	return res
}

// ledgerFailure maps a failed write. Terminal-state errors come from a
// concurrent delivery that won the conditional update.
func (s *Service) ledgerFailure(log *zap.SugaredLogger, req *CallbackRequest, err error) *CallbackResponse {
	switch {
	case errors.Is(err, ledger.ErrAlreadyPaid):
		return NewResponse(req, CodeAlreadyPaid)
	case errors.Is(err, ledger.ErrPaymentCancelled):
		return NewResponse(req, CodeTransactionCancelled)
	case errors.Is(err, ledger.ErrPaymentNotFound):
		return NewResponse(req, CodeUserNotFound)
	default:
		log.Errorw("click_ledger_write_failed", "err", err)
		return NewResponse(req, CodeFailedToUpdate)
	}
}

func (s *Service) publish(ctx context.Context, log *zap.SugaredLogger, typ events.EventType, p *models.PaymentTransaction, code int) {
	if s.events == nil || p == nil {
		return
	}
	// Publishing runs off the callback path: Click's answer must not wait on
	// the broker, and the publish must outlive Click hanging up.
	ev := events.NewPaymentEvent(typ, p, code)
	detached := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		pctx, cancel := context.WithTimeout(detached, publishTimeout)
		defer cancel()
		if err := s.events.Publish(pctx, ev); err != nil {
			log.Warnw("click_event_publish_failed", "type", typ, "err", err)
		}
	}()
}

// Wait blocks until every event publish started so far has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Drain is Wait bounded by ctx, for shutdown.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) recordReceived(ctx context.Context, req *CallbackRequest, action Action) *models.PaymentCallbackLog {
	body, _ := json.Marshal(req)
	entry := &models.PaymentCallbackLog{
		ID:               tool.GenerateUUIDV7(),
		ProviderID:       string(types.PaymentProviderClick),
		Action:           action.String(),
		TraceID:          logctx.TraceID(ctx),
		ProviderTransID:  strconv.FormatInt(req.ClickTransID, 10),
		OrderID:          req.MerchantTransID,
		NotificationTime: time.Now(),
		Request:          datatypes.JSON(body),
		Status:           models.PaymentCallbackLogStatusReceived,
	}
	if s.recorder != nil {
		s.recorder.Save(ctx, entry)
	}
	return entry
}

func (s *Service) recordResult(ctx context.Context, entry *models.PaymentCallbackLog, res *CallbackResponse) {
	if s.recorder == nil || entry == nil || res == nil {
		return
	}
	code := int(res.Error)
	body, _ := json.Marshal(res)
	resp := datatypes.JSON(body)
	entry.ErrorCode = &code
	entry.Response = &resp
	entry.Status = models.PaymentCallbackLogStatusHandled
	if !res.Error.IsSuccess() {
		entry.Status = models.PaymentCallbackLogStatusHandleFailed
	}
	s.recorder.Save(ctx, entry)
}
