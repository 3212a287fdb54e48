package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/app/service/payment"
	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/internal/platform/click/click_merchant"
	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/money"
	"github.com/fatflowers/bizpay/pkg/response"
)

type stubPaymentService struct {
	businessID string
	err        error
}

func (s *stubPaymentService) CreatePaymentLink(_ context.Context, businessID string, req *payment.CreatePaymentLinkRequest) (*payment.PaymentLink, error) {
	s.businessID = businessID
	if s.err != nil {
		return nil, s.err
	}
	return &payment.PaymentLink{
		Payment:    &models.PaymentTransaction{ID: 1, OrderID: "ORD-1", BusinessID: businessID, Amount: 10000},
		PaymentURL: "https://my.click.uz/services/pay?transaction_param=ORD-1",
	}, nil
}

func (s *stubPaymentService) GetPayment(_ context.Context, businessID, orderID string) (*models.PaymentTransaction, error) {
	s.businessID = businessID
	if s.err != nil {
		return nil, s.err
	}
	return &models.PaymentTransaction{ID: 1, OrderID: orderID, BusinessID: businessID}, nil
}

func (s *stubPaymentService) CreateInvoice(_ context.Context, businessID string, req *payment.CreateInvoiceRequest) (*click_merchant.InvoiceResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &click_merchant.InvoiceResult{Success: true, InvoiceID: 9}, nil
}

func (s *stubPaymentService) CheckStatus(_ context.Context, businessID, orderID string, paymentID int64) (*click_merchant.StatusResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &click_merchant.StatusResult{Success: true, Payload: json.RawMessage(fmt.Sprintf(`{"payment_id":%d}`, paymentID))}, nil
}

func (s *stubPaymentService) ScanPayments(_ context.Context, businessID string, req *ledger.ScanPaymentsRequest) (*ledger.ScanPaymentsResponse, error) {
	s.businessID = businessID
	return &ledger.ScanPaymentsResponse{Items: []*models.PaymentTransaction{{ID: 1}}, Total: 1}, nil
}

func newPaymentRouter(svc PaymentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1/payments")
	// Stands in for the auth middleware.
	g.Use(func(c *gin.Context) { c.Set(logctx.BusinessIDKey, "biz-1"); c.Next() })
	RegisterPaymentRoutes(g, svc)
	return r
}

type envelope struct {
	Code response.APIResponseCode `json:"code"`
	Data json.RawMessage          `json:"data"`
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestApiCreatePayment(t *testing.T) {
	svc := &stubPaymentService{}
	r := newPaymentRouter(svc)

	env := doJSON(t, r, http.MethodPost, "/api/v1/payments/create", map[string]any{"amount": "100.00"})
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.Equal(t, "biz-1", svc.businessID)
	require.Contains(t, string(env.Data), "payment_url")

	env = doJSON(t, r, http.MethodPost, "/api/v1/payments/create", map[string]any{})
	require.Equal(t, response.APIResponseCodeBadRequest, env.Code)
}

func TestApiCreatePayment_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want response.APIResponseCode
	}{
		{ledger.ErrAccountNotFound, response.APIResponseCodeNotFound},
		{fmt.Errorf("wrapped: %w", money.ErrInvalidAmount), response.APIResponseCodeBadRequest},
		{fmt.Errorf("db down"), response.APIResponseCodeError},
	}
	for _, tc := range cases {
		r := newPaymentRouter(&stubPaymentService{err: tc.err})
		env := doJSON(t, r, http.MethodPost, "/api/v1/payments/create", map[string]any{"amount": "1"})
		require.Equal(t, tc.want, env.Code, tc.err.Error())
	}
}

func TestApiGetPayment(t *testing.T) {
	r := newPaymentRouter(&stubPaymentService{})
	env := doJSON(t, r, http.MethodGet, "/api/v1/payments/ORD-7", nil)
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.Contains(t, string(env.Data), `"order_id":"ORD-7"`)

	r = newPaymentRouter(&stubPaymentService{err: ledger.ErrPaymentNotFound})
	env = doJSON(t, r, http.MethodGet, "/api/v1/payments/ORD-7", nil)
	require.Equal(t, response.APIResponseCodeNotFound, env.Code)
}

func TestApiCreateInvoice(t *testing.T) {
	r := newPaymentRouter(&stubPaymentService{})
	env := doJSON(t, r, http.MethodPost, "/api/v1/payments/invoice", map[string]any{"order_id": "ORD-1", "phone_number": "998901234567"})
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.JSONEq(t, `{"success":true,"invoice_id":9,"error_code":0}`, string(env.Data))

	r = newPaymentRouter(&stubPaymentService{err: ledger.ErrAlreadyPaid})
	env = doJSON(t, r, http.MethodPost, "/api/v1/payments/invoice", map[string]any{"order_id": "ORD-1"})
	require.Equal(t, response.APIResponseCodeBadRequest, env.Code)
}

func TestApiCheckPaymentStatus(t *testing.T) {
	r := newPaymentRouter(&stubPaymentService{})
	env := doJSON(t, r, http.MethodGet, "/api/v1/payments/ORD-1/status?payment_id=77", nil)
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.Contains(t, string(env.Data), `"payment_id":77`)

	env = doJSON(t, r, http.MethodGet, "/api/v1/payments/ORD-1/status?payment_id=x", nil)
	require.Equal(t, response.APIResponseCodeBadRequest, env.Code)
}

func TestApiListPayments_ScopedToCaller(t *testing.T) {
	svc := &stubPaymentService{}
	r := newPaymentRouter(svc)
	env := doJSON(t, r, http.MethodPost, "/api/v1/payments/list", map[string]any{"size": 5})
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.Equal(t, "biz-1", svc.businessID)
}
