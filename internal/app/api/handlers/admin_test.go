package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/pkg/response"
	"github.com/fatflowers/bizpay/pkg/types"
)

type stubAdminStore struct {
	scanBusinessID string
	scanReq        *ledger.ScanPaymentsRequest
	upserted       *models.PaymentAccount
}

func (s *stubAdminStore) ScanPayments(_ context.Context, businessID string, req *ledger.ScanPaymentsRequest) (*ledger.ScanPaymentsResponse, error) {
	s.scanBusinessID = businessID
	s.scanReq = req
	paid := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	return &ledger.ScanPaymentsResponse{
		Items: []*models.PaymentTransaction{{ID: 3, OrderID: "ORD-3", Amount: 500, IsPaid: true, Status: types.PaymentStatusCompleted, PaidAt: &paid}},
		Total: 1,
	}, nil
}

func (s *stubAdminStore) UpsertAccount(_ context.Context, acc *models.PaymentAccount) error {
	acc.ID = 1
	s.upserted = acc
	return nil
}

func newAdminRouter(store AdminStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterAdminPaymentRoutes(r.Group("/api/v1/admin"), store)
	return r
}

func TestApiListPaymentTransactions(t *testing.T) {
	store := &stubAdminStore{}
	r := newAdminRouter(store)

	env := doJSON(t, r, http.MethodPost, "/api/v1/admin/list_payment_transaction", map[string]any{
		"filters": []map[string]any{{"field": "status", "operator": "eq", "values": []any{"completed"}}},
		"size":    20,
		"sort_by": "paid_at",
	})
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.Empty(t, store.scanBusinessID)
	require.Equal(t, 20, store.scanReq.Size)
	require.Equal(t, "paid_at", store.scanReq.SortBy)
	require.Len(t, store.scanReq.Filters, 1)
	require.Contains(t, string(env.Data), `"order_id":"ORD-3"`)
	require.Contains(t, string(env.Data), `"paid_at":"2026-01-01T10:00:00Z"`)
	require.Contains(t, string(env.Data), `"total":1`)
}

func TestApiUpsertPaymentAccount(t *testing.T) {
	store := &stubAdminStore{}
	r := newAdminRouter(store)

	body := map[string]any{"business_id": "biz-1", "service_id": 12, "merchant_id": 34, "merchant_user_id": 56, "secret_key": "top-secret"}
	env := doJSON(t, r, http.MethodPost, "/api/v1/admin/upsert_payment_account", body)
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.True(t, store.upserted.IsActive)
	require.Equal(t, types.PaymentProviderClick, store.upserted.Provider)
	require.NotContains(t, string(env.Data), "top-secret")

	body["is_active"] = false
	env = doJSON(t, r, http.MethodPost, "/api/v1/admin/upsert_payment_account", body)
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.False(t, store.upserted.IsActive)

	env = doJSON(t, r, http.MethodPost, "/api/v1/admin/upsert_payment_account", map[string]any{"business_id": "biz-1"})
	require.Equal(t, response.APIResponseCodeBadRequest, env.Code)
}
