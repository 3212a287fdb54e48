package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/app/service/payment"
	"github.com/fatflowers/bizpay/pkg/money"
	"github.com/fatflowers/bizpay/pkg/response"
	"github.com/fatflowers/bizpay/pkg/types"
)

// writeError maps service errors onto the response envelope. HTTP status
// stays 200; the envelope code carries the outcome.
func writeError(c *gin.Context, err error) {
	code := response.APIResponseCodeError
	switch {
	case errors.Is(err, ledger.ErrPaymentNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		code = response.APIResponseCodeNotFound
	case errors.Is(err, ledger.ErrAlreadyPaid),
		errors.Is(err, ledger.ErrPaymentCancelled),
		errors.Is(err, payment.ErrPhoneRequired),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, types.ErrInvalidFilter):
		code = response.APIResponseCodeBadRequest
	}
	_ = c.Error(err)
	c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
}

func writeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, msg))
}
