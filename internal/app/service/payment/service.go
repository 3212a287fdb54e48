package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/internal/platform/click/click_merchant"
	"github.com/fatflowers/bizpay/pkg/config"
	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/money"
	"github.com/fatflowers/bizpay/pkg/types"
)

var ErrPhoneRequired = errors.New("phone_number is required")

// Store is the part of the ledger the merchant API needs.
type Store interface {
	CreatePayment(ctx context.Context, req *ledger.CreatePaymentRequest) (*models.PaymentTransaction, error)
	FindPaymentByOrderID(ctx context.Context, orderID string) (*models.PaymentTransaction, error)
	AccountForBusiness(ctx context.Context, businessID string, provider types.PaymentProvider) (*models.PaymentAccount, error)
	ScanPayments(ctx context.Context, businessID string, req *ledger.ScanPaymentsRequest) (*ledger.ScanPaymentsResponse, error)
}

// Gateway is the outbound Click API.
type Gateway interface {
	PaymentURL(p click_merchant.PaymentURLParams) string
	CreateInvoice(ctx context.Context, cred click_merchant.Credentials, req click_merchant.InvoiceRequest) *click_merchant.InvoiceResult
	CheckPaymentStatus(ctx context.Context, cred click_merchant.Credentials, paymentID int64) *click_merchant.StatusResult
}

type Service struct {
	store     Store
	gateway   Gateway
	returnURL string
	log       *zap.SugaredLogger
}

func New(store Store, gateway Gateway, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{store: store, gateway: gateway, returnURL: cfg.Click.ReturnURL, log: log}
}

type CreatePaymentLinkRequest struct {
	OrderID string `json:"order_id"`
	// Amount in major units, e.g. "1500.00".
	Amount      string  `json:"amount" binding:"required"`
	LeadID      *string `json:"lead_id"`
	PhoneNumber *string `json:"phone_number"`
	Description string  `json:"description"`
	ReturnURL   string  `json:"return_url"`
}

type PaymentLink struct {
	Payment    *models.PaymentTransaction `json:"payment"`
	PaymentURL string                     `json:"payment_url"`
}

// CreatePaymentLink stores a pending payment for businessID and returns the
// Click checkout URL for it.
func (s *Service) CreatePaymentLink(ctx context.Context, businessID string, req *CreatePaymentLinkRequest) (*PaymentLink, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	amount, err := money.ParseMinor(req.Amount)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: must be positive", money.ErrInvalidAmount)
	}
	acc, err := s.store.AccountForBusiness(ctx, businessID, types.PaymentProviderClick)
	if err != nil {
		return nil, err
	}

	p, err := s.store.CreatePayment(ctx, &ledger.CreatePaymentRequest{
		BusinessID:  businessID,
		Provider:    types.PaymentProviderClick,
		OrderID:     req.OrderID,
		Amount:      amount,
		LeadID:      req.LeadID,
		PhoneNumber: req.PhoneNumber,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.returnURL
	}
	link := s.gateway.PaymentURL(click_merchant.PaymentURLParams{
		ServiceID:  acc.ServiceID,
		MerchantID: acc.MerchantID,
		Amount:     p.Amount,
		OrderID:    p.OrderID,
		ReturnURL:  returnURL,
	})
	logctx.FromCtx(ctx, s.log).Infow("payment_link_created", "order_id", p.OrderID, "amount", money.FormatMinor(p.Amount))
	return &PaymentLink{Payment: p, PaymentURL: link}, nil
}

// GetPayment returns the payment only when it belongs to businessID.
func (s *Service) GetPayment(ctx context.Context, businessID, orderID string) (*models.PaymentTransaction, error) {
	p, err := s.store.FindPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.BusinessID != businessID {
		return nil, ledger.ErrPaymentNotFound
	}
	return p, nil
}

type CreateInvoiceRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	PhoneNumber string `json:"phone_number"`
}

// CreateInvoice pushes a Click invoice for an open payment. A provider
// rejection comes back in the result with a nil error.
func (s *Service) CreateInvoice(ctx context.Context, businessID string, req *CreateInvoiceRequest) (*click_merchant.InvoiceResult, error) {
	p, err := s.GetPayment(ctx, businessID, req.OrderID)
	if err != nil {
		return nil, err
	}
	switch {
	case p.IsPaid:
		return nil, ledger.ErrAlreadyPaid
	case p.IsCancelled():
		return nil, ledger.ErrPaymentCancelled
	}
	phone := lo.CoalesceOrEmpty(req.PhoneNumber, lo.FromPtr(p.PhoneNumber))
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	acc, err := s.store.AccountForBusiness(ctx, businessID, types.PaymentProviderClick)
	if err != nil {
		return nil, err
	}
	return s.gateway.CreateInvoice(ctx, credentials(acc), click_merchant.InvoiceRequest{
		Amount:      p.Amount,
		PhoneNumber: phone,
		OrderID:     p.OrderID,
	}), nil
}

// CheckStatus queries Click for paymentID of an order. Advisory only; the
// ledger is not updated from it.
func (s *Service) CheckStatus(ctx context.Context, businessID, orderID string, paymentID int64) (*click_merchant.StatusResult, error) {
	if _, err := s.GetPayment(ctx, businessID, orderID); err != nil {
		return nil, err
	}
	acc, err := s.store.AccountForBusiness(ctx, businessID, types.PaymentProviderClick)
	if err != nil {
		return nil, err
	}
	return s.gateway.CheckPaymentStatus(ctx, credentials(acc), paymentID), nil
}

func (s *Service) ScanPayments(ctx context.Context, businessID string, req *ledger.ScanPaymentsRequest) (*ledger.ScanPaymentsResponse, error) {
	return s.store.ScanPayments(ctx, businessID, req)
}

func credentials(acc *models.PaymentAccount) click_merchant.Credentials {
	return click_merchant.Credentials{
		ServiceID:      acc.ServiceID,
		MerchantID:     acc.MerchantID,
		MerchantUserID: acc.MerchantUserID,
		SecretKey:      acc.SecretKey,
	}
}

func newGateway(cfg *config.Config, log *zap.SugaredLogger) (*click_merchant.Client, error) {
	return click_merchant.NewClient(&click_merchant.ClientOptions{
		CheckoutURL: cfg.Click.CheckoutURL,
		APIURL:      cfg.Click.APIURL,
		Timeout:     cfg.Click.Timeout,
		Logger:      log,
	})
}

func provideService(l *ledger.Ledger, gw *click_merchant.Client, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return New(l, gw, cfg, log)
}

var Module = fx.Options(
	fx.Provide(newGateway, provideService),
)
