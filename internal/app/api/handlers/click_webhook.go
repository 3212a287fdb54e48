package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/bizpay/internal/app/service/click"
)

// ClickCallbackHandler answers Click SHOP API callbacks.
type ClickCallbackHandler interface {
	HandleCallback(ctx context.Context, req *click.CallbackRequest) *click.CallbackResponse
	Reject(ctx context.Context, req *click.CallbackRequest, cause error) *click.CallbackResponse
}

const maxCallbackBody = 64 << 10

// @Summary      Click callback
// @Description  Click SHOP API Prepare (action=0) and Complete (action=1) callback. Accepts form or JSON bodies. Always answers HTTP 200 with the Click envelope.
// @Tags         Webhook
// @Accept       x-www-form-urlencoded,json
// @Produce      json
// @Param        click_trans_id       formData  int     true   "Click transaction id"
// @Param        service_id           formData  int     true   "Merchant service id"
// @Param        merchant_trans_id    formData  string  true   "Order id"
// @Param        merchant_prepare_id  formData  int     false  "Prepare id, Complete only"
// @Param        amount               formData  string  true   "Amount"
// @Param        action               formData  int     true   "0 prepare, 1 complete"
// @Param        sign_time            formData  string  true   "Sign time"
// @Param        sign_string          formData  string  true   "MD5 signature"
// @Success      200  {object}  click.CallbackResponse
// @Router       /api/v1/click/callback [post]
func ApiClickCallback(h ClickCallbackHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		req, err := parseClickCallback(c)
		if err != nil {
			c.JSON(http.StatusOK, h.Reject(ctx, req, err))
			return
		}
		c.JSON(http.StatusOK, h.HandleCallback(ctx, req))
	}
}

func parseClickCallback(c *gin.Context) (*click.CallbackRequest, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBody)
	if strings.HasPrefix(c.ContentType(), "application/json") {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		return click.ParseCallbackJSON(body)
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return click.ParseCallbackForm(c.Request.Form)
}

// RegisterClickRoutes mounts the callback under the two URLs configured in
// the Click merchant cabinet plus a combined one.
func RegisterClickRoutes(r gin.IRouter, h ClickCallbackHandler) {
	r.POST("/prepare", ApiClickCallback(h))
	r.POST("/complete", ApiClickCallback(h))
	r.POST("/callback", ApiClickCallback(h))
}
