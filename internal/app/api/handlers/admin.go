package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/pkg/response"
	"github.com/fatflowers/bizpay/pkg/types"
)

// AdminStore is the ledger surface exposed to operators.
type AdminStore interface {
	ScanPayments(ctx context.Context, businessID string, req *ledger.ScanPaymentsRequest) (*ledger.ScanPaymentsResponse, error)
	UpsertAccount(ctx context.Context, acc *models.PaymentAccount) error
}

type PaymentTransactionItem struct {
	ID          uint64                `json:"id"`
	OrderID     string                `json:"order_id"`
	BusinessID  string                `json:"business_id"`
	Provider    types.PaymentProvider `json:"provider"`
	Amount      int64                 `json:"amount"`
	Currency    string                `json:"currency"`
	IsPaid      bool                  `json:"is_paid"`
	Status      types.PaymentStatus   `json:"status"`
	LeadID      *string               `json:"lead_id"`
	ExternalID  *string               `json:"external_id"`
	PhoneNumber *string               `json:"phone_number"`
	Description string                `json:"description"`
	PreparedAt  *time.Time            `json:"prepared_at"`
	PaidAt      *time.Time            `json:"paid_at"`
	CancelledAt *time.Time            `json:"cancelled_at"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func toPaymentTransactionItem(m *models.PaymentTransaction) *PaymentTransactionItem {
	return &PaymentTransactionItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		BusinessID:  m.BusinessID,
		Provider:    m.Provider,
		Amount:      m.Amount,
		Currency:    m.Currency,
		IsPaid:      m.IsPaid,
		Status:      m.Status,
		LeadID:      m.LeadID,
		ExternalID:  m.ExternalID,
		PhoneNumber: m.PhoneNumber,
		Description: m.Description,
		PreparedAt:  m.PreparedAt,
		PaidAt:      m.PaidAt,
		CancelledAt: m.CancelledAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type ListPaymentTransactionsResponse struct {
	Items []*PaymentTransactionItem `json:"items"`
	Total int64                     `json:"total"`
}

// @Summary      List Payment Transactions (Admin)
// @Description  Retrieves a paginated and filterable list of payment transactions across all businesses.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ListPaymentRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListPaymentTransactions
// @Router       /api/v1/admin/list_payment_transaction [post]
func ApiListPaymentTransactions(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err.Error())
			return
		}
		res, err := store.ScanPayments(c.Request.Context(), "", req.toScan())
		if err != nil {
			writeError(c, err)
			return
		}
		items := lo.Map(res.Items, func(it *models.PaymentTransaction, _ int) *PaymentTransactionItem { return toPaymentTransactionItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListPaymentTransactionsResponse{Items: items, Total: res.Total}))
	}
}

type UpsertPaymentAccountRequest struct {
	BusinessID     string `json:"business_id" binding:"required"`
	ServiceID      int64  `json:"service_id" binding:"required"`
	MerchantID     int64  `json:"merchant_id" binding:"required"`
	MerchantUserID int64  `json:"merchant_user_id" binding:"required"`
	SecretKey      string `json:"secret_key" binding:"required"`
	IsActive       *bool  `json:"is_active"`
}

// @Summary      Upsert Payment Account (Admin)
// @Description  Creates or replaces the Click credentials of a business, keyed by service_id. The secret is never returned.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpsertPaymentAccountRequest true "Account credentials"
// @Success      200  {object}  handlers.RespPaymentAccount
// @Router       /api/v1/admin/upsert_payment_account [post]
func ApiUpsertPaymentAccount(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpsertPaymentAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err.Error())
			return
		}
		acc := &models.PaymentAccount{
			BusinessID:     req.BusinessID,
			Provider:       types.PaymentProviderClick,
			ServiceID:      req.ServiceID,
			MerchantID:     req.MerchantID,
			MerchantUserID: req.MerchantUserID,
			SecretKey:      req.SecretKey,
			IsActive:       lo.FromPtrOr(req.IsActive, true),
		}
		if err := store.UpsertAccount(c.Request.Context(), acc); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(acc))
	}
}

func RegisterAdminPaymentRoutes(r gin.IRouter, store AdminStore) {
	r.POST("/list_payment_transaction", ApiListPaymentTransactions(store))
	r.POST("/upsert_payment_account", ApiUpsertPaymentAccount(store))
}
