package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/platform/click/click_merchant"
	"github.com/fatflowers/bizpay/internal/testutil"
	"github.com/fatflowers/bizpay/pkg/config"
	"github.com/fatflowers/bizpay/pkg/money"
	"github.com/fatflowers/bizpay/pkg/types"
)

type fixture struct {
	svc    *Service
	ledger *ledger.Ledger
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()
	if handler == nil {
		handler = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	db := testutil.OpenSQLite(t)
	testutil.SeedClickAccount(t, db, "biz-1", 12, "secret")
	log := zap.NewNop().Sugar()

	cfg := &config.Config{Click: config.ClickConfig{
		CheckoutURL: "https://my.click.uz/services/pay",
		APIURL:      srv.URL,
		ReturnURL:   "https://shop.example.com/thanks",
	}}
	gw, err := newGateway(cfg, log)
	require.NoError(t, err)

	l := ledger.New(db, log)
	return &fixture{svc: New(l, gw, cfg, log), ledger: l}
}

func TestCreatePaymentLink(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	link, err := f.svc.CreatePaymentLink(ctx, "biz-1", &CreatePaymentLinkRequest{Amount: "1500.50", Description: "order #1"})
	require.NoError(t, err)
	require.Equal(t, int64(150050), link.Payment.Amount)
	require.Equal(t, types.PaymentStatusPending, link.Payment.Status)

	u, err := url.Parse(link.PaymentURL)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "12", q.Get("service_id"))
	require.Equal(t, "1012", q.Get("merchant_id"))
	require.Equal(t, "1500.50", q.Get("amount"))
	require.Equal(t, link.Payment.OrderID, q.Get("transaction_param"))
	require.Equal(t, "https://shop.example.com/thanks", q.Get("return_url"))

	link, err = f.svc.CreatePaymentLink(ctx, "biz-1", &CreatePaymentLinkRequest{OrderID: "ORD-X", Amount: "10", ReturnURL: "https://other"})
	require.NoError(t, err)
	require.Equal(t, "ORD-X", link.Payment.OrderID)
	require.Contains(t, link.PaymentURL, "return_url=https%3A%2F%2Fother")
}

func TestCreatePaymentLink_Rejects(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.CreatePaymentLink(ctx, "biz-1", &CreatePaymentLinkRequest{Amount: "0"})
	require.ErrorIs(t, err, money.ErrInvalidAmount)
	_, err = f.svc.CreatePaymentLink(ctx, "biz-1", &CreatePaymentLinkRequest{Amount: "1.234"})
	require.ErrorIs(t, err, money.ErrInvalidAmount)
	_, err = f.svc.CreatePaymentLink(ctx, "biz-unknown", &CreatePaymentLinkRequest{Amount: "10"})
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestGetPayment_ScopedToBusiness(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	link, err := f.svc.CreatePaymentLink(ctx, "biz-1", &CreatePaymentLinkRequest{Amount: "10"})
	require.NoError(t, err)

	p, err := f.svc.GetPayment(ctx, "biz-1", link.Payment.OrderID)
	require.NoError(t, err)
	require.Equal(t, link.Payment.ID, p.ID)

	_, err = f.svc.GetPayment(ctx, "biz-2", link.Payment.OrderID)
	require.ErrorIs(t, err, ledger.ErrPaymentNotFound)
}

func TestCreateInvoice(t *testing.T) {
	var calls int
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"error_code":0,"error_note":"Success","invoice_id":42}`))
	})
	ctx := context.Background()

	phone := "998901234567"
	link, err := f.svc.CreatePaymentLink(ctx, "biz-1", &CreatePaymentLinkRequest{Amount: "10", PhoneNumber: &phone})
	require.NoError(t, err)

	res, err := f.svc.CreateInvoice(ctx, "biz-1", &CreateInvoiceRequest{OrderID: link.Payment.OrderID})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, int64(42), res.InvoiceID)
	require.Equal(t, 1, calls)
}

func TestCreateInvoice_Guards(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	link, err := f.svc.CreatePaymentLink(ctx, "biz-1", &CreatePaymentLinkRequest{Amount: "10"})
	require.NoError(t, err)

	_, err = f.svc.CreateInvoice(ctx, "biz-1", &CreateInvoiceRequest{OrderID: link.Payment.OrderID})
	require.ErrorIs(t, err, ErrPhoneRequired)

	_, err = f.svc.CreateInvoice(ctx, "biz-1", &CreateInvoiceRequest{OrderID: "missing", PhoneNumber: "1"})
	require.ErrorIs(t, err, ledger.ErrPaymentNotFound)

	_, err = f.ledger.Prepare(ctx, &ledger.PrepareInput{PaymentID: link.Payment.ID, ClickTransID: 1})
	require.NoError(t, err)
	_, err = f.ledger.Complete(ctx, &ledger.CompleteInput{PaymentID: link.Payment.ID, ClickTransID: 1})
	require.NoError(t, err)
	_, err = f.svc.CreateInvoice(ctx, "biz-1", &CreateInvoiceRequest{OrderID: link.Payment.OrderID, PhoneNumber: "1"})
	require.ErrorIs(t, err, ledger.ErrAlreadyPaid)
}

func TestCreateInvoice_ProviderFailureIsResult(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx := context.Background()

	link, err := f.svc.CreatePaymentLink(ctx, "biz-1", &CreatePaymentLinkRequest{Amount: "10"})
	require.NoError(t, err)

	res, err := f.svc.CreateInvoice(ctx, "biz-1", &CreateInvoiceRequest{OrderID: link.Payment.OrderID, PhoneNumber: "998901234567"})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.NotEmpty(t, res.Error)
}

func TestCheckStatus(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment/status/12/777", r.URL.Path)
		_, _ = w.Write([]byte(`{"error_code":0,"payment_status":2}`))
	})
	ctx := context.Background()

	link, err := f.svc.CreatePaymentLink(ctx, "biz-1", &CreatePaymentLinkRequest{Amount: "10"})
	require.NoError(t, err)

	res, err := f.svc.CheckStatus(ctx, "biz-1", link.Payment.OrderID, 777)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.JSONEq(t, `{"error_code":0,"payment_status":2}`, string(res.Payload))

	_, err = f.svc.CheckStatus(ctx, "biz-2", link.Payment.OrderID, 777)
	require.ErrorIs(t, err, ledger.ErrPaymentNotFound)
}

var _ Gateway = (*click_merchant.Client)(nil)
var _ Store = (*ledger.Ledger)(nil)
