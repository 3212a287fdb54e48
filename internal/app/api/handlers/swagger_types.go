package handlers

import (
	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/app/service/payment"
	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/internal/platform/click/click_merchant"
	"github.com/fatflowers/bizpay/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespPaymentLink struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    payment.PaymentLink      `json:"data"`
}

type RespPayment struct {
	Code    response.APIResponseCode  `json:"code"`
	Message string                    `json:"message"`
	Data    models.PaymentTransaction `json:"data"`
}

type RespInvoice struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    click_merchant.InvoiceResult `json:"data"`
}

type RespStatus struct {
	Code    response.APIResponseCode    `json:"code"`
	Message string                      `json:"message"`
	Data    click_merchant.StatusResult `json:"data"`
}

type RespListPayments struct {
	Code    response.APIResponseCode    `json:"code"`
	Message string                      `json:"message"`
	Data    ledger.ScanPaymentsResponse `json:"data"`
}

// RespListPaymentTransactions wraps ListPaymentTransactionsResponse in the standard envelope.
type RespListPaymentTransactions struct {
	Code    response.APIResponseCode        `json:"code"`
	Message string                          `json:"message"`
	Data    ListPaymentTransactionsResponse `json:"data"`
}

type RespPaymentAccount struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.PaymentAccount    `json:"data"`
}
