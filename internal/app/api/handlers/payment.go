package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/bizpay/internal/app/api/middleware"
	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/app/service/payment"
	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/internal/platform/click/click_merchant"
	"github.com/fatflowers/bizpay/pkg/response"
	"github.com/fatflowers/bizpay/pkg/types"
)

// PaymentService is the merchant-facing payment API.
type PaymentService interface {
	CreatePaymentLink(ctx context.Context, businessID string, req *payment.CreatePaymentLinkRequest) (*payment.PaymentLink, error)
	GetPayment(ctx context.Context, businessID, orderID string) (*models.PaymentTransaction, error)
	CreateInvoice(ctx context.Context, businessID string, req *payment.CreateInvoiceRequest) (*click_merchant.InvoiceResult, error)
	CheckStatus(ctx context.Context, businessID, orderID string, paymentID int64) (*click_merchant.StatusResult, error)
	ScanPayments(ctx context.Context, businessID string, req *ledger.ScanPaymentsRequest) (*ledger.ScanPaymentsResponse, error)
}

// @Summary      Create payment
// @Description  Creates a pending Click payment for the authenticated business and returns its checkout URL.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.CreatePaymentLinkRequest true "Payment intent"
// @Success      200  {object}  handlers.RespPaymentLink
// @Router       /api/v1/payments/create [post]
func ApiCreatePayment(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.CreatePaymentLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err.Error())
			return
		}
		res, err := svc.CreatePaymentLink(c.Request.Context(), middleware.BusinessID(c), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Send invoice
// @Description  Pushes a Click invoice for an open payment to the payer's phone. A provider rejection is returned in data with success=false.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.CreateInvoiceRequest true "Invoice request"
// @Success      200  {object}  handlers.RespInvoice
// @Router       /api/v1/payments/invoice [post]
func ApiCreateInvoice(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.CreateInvoiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err.Error())
			return
		}
		res, err := svc.CreateInvoice(c.Request.Context(), middleware.BusinessID(c), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get payment
// @Tags         Payment
// @Produce      json
// @Security     BearerAuth
// @Param        order_id path string true "Order id"
// @Success      200  {object}  handlers.RespPayment
// @Router       /api/v1/payments/{order_id} [get]
func ApiGetPayment(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.GetPayment(c.Request.Context(), middleware.BusinessID(c), c.Param("order_id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	}
}

// @Summary      Check payment status at Click
// @Description  Returns Click's raw status payload. Advisory only; the stored payment is not changed.
// @Tags         Payment
// @Produce      json
// @Security     BearerAuth
// @Param        order_id    path   string true "Order id"
// @Param        payment_id  query  int    true "Click payment id"
// @Success      200  {object}  handlers.RespStatus
// @Router       /api/v1/payments/{order_id}/status [get]
func ApiCheckPaymentStatus(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		paymentID, err := strconv.ParseInt(c.Query("payment_id"), 10, 64)
		if err != nil || paymentID <= 0 {
			writeBadRequest(c, "invalid payment_id")
			return
		}
		res, err := svc.CheckStatus(c.Request.Context(), middleware.BusinessID(c), c.Param("order_id"), paymentID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List payments
// @Description  Lists the authenticated business's payments with filters, paging and sorting.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ListPaymentRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListPayments
// @Router       /api/v1/payments/list [post]
func ApiListPayments(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err.Error())
			return
		}
		res, err := svc.ScanPayments(c.Request.Context(), middleware.BusinessID(c), req.toScan())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type ListPaymentRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

func (r *ListPaymentRequest) toScan() *ledger.ScanPaymentsRequest {
	return &ledger.ScanPaymentsRequest{Filters: r.Filters, From: r.From, Size: r.Size, SortBy: r.SortBy, SortOrder: r.SortOrder}
}

func RegisterPaymentRoutes(r gin.IRouter, svc PaymentService) {
	r.POST("/create", ApiCreatePayment(svc))
	r.POST("/invoice", ApiCreateInvoice(svc))
	r.POST("/list", ApiListPayments(svc))
	r.GET("/:order_id", ApiGetPayment(svc))
	r.GET("/:order_id/status", ApiCheckPaymentStatus(svc))
}
