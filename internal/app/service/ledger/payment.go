package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/tool"
	"github.com/fatflowers/bizpay/pkg/types"
)

type CreatePaymentRequest struct {
	BusinessID  string                `json:"business_id"`
	Provider    types.PaymentProvider `json:"provider"`
	OrderID     string                `json:"order_id"`
	Amount      int64                 `json:"amount"`
	Currency    string                `json:"currency"`
	LeadID      *string               `json:"lead_id"`
	PhoneNumber *string               `json:"phone_number"`
	Description string                `json:"description"`
}

// CreatePayment stores a new pending payment intent. OrderID is generated
// when empty and must be unique otherwise.
func (l *Ledger) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*models.PaymentTransaction, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.BusinessID == "" {
		return nil, fmt.Errorf("business_id is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.Amount)
	}
	p := &models.PaymentTransaction{
		OrderID:     req.OrderID,
		BusinessID:  req.BusinessID,
		Provider:    req.Provider,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      types.PaymentStatusPending,
		LeadID:      req.LeadID,
		PhoneNumber: req.PhoneNumber,
		Description: req.Description,
	}
	if p.OrderID == "" {
		p.OrderID = tool.GenerateOrderID()
	}
	if p.Provider == "" {
		p.Provider = types.PaymentProviderClick
	}
	if p.Currency == "" {
		p.Currency = "UZS"
	}
	if err := l.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("order_id %s already exists: %w", p.OrderID, err)
		}
		return nil, fmt.Errorf("failed to create payment transaction: %w", err)
	}
	logctx.FromCtx(ctx, l.log).Infow("payment_created", "payment_id", p.ID, "order_id", p.OrderID, "amount", p.Amount)
	return p, nil
}

// Scan payment request/response.
type ScanPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanPaymentsResponse struct {
	Items []*models.PaymentTransaction `json:"items"`
	Total int64                        `json:"total"`
}

var sortableColumns = map[string]bool{
	"id": true, "created_at": true, "updated_at": true, "paid_at": true, "amount": true, "status": true,
}

var filterableColumns = map[string]bool{
	"id": true, "order_id": true, "business_id": true, "provider": true, "amount": true, "currency": true,
	"is_paid": true, "status": true, "lead_id": true, "external_id": true, "phone_number": true,
	"created_at": true, "updated_at": true, "prepared_at": true, "paid_at": true, "cancelled_at": true,
}

// filtersAnd is a helper to combine multiple CommonFilter into a single clause.Expression
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

// ScanPayments implements paginated/admin listing with filters. businessID,
// when set, scopes the scan to one tenant.
func (l *Ledger) ScanPayments(ctx context.Context, businessID string, req *ScanPaymentsRequest) (*ScanPaymentsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 || req.Size > 500 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}
	for _, f := range req.Filters {
		if f == nil {
			return nil, fmt.Errorf("%w: nil filter", types.ErrInvalidFilter)
		}
		if err := f.Validate(filterableColumns); err != nil {
			return nil, err
		}
	}

	tx := l.db.WithContext(ctx).Model(&models.PaymentTransaction{})
	if businessID != "" {
		tx = tx.Where("business_id = ?", businessID)
	}
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payment transactions: %w", err)
	}

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	sortBy := req.SortBy
	if !sortableColumns[sortBy] {
		sortBy = "id"
	}
	q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})

	var rows []*models.PaymentTransaction
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	return &ScanPaymentsResponse{Items: rows, Total: total}, nil
}
