package click_merchant

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/money"
)

const DefaultTimeout = 30 * time.Second

// Credentials identify one merchant account. SecretKey signs the Auth header
// and is never sent in clear.
type Credentials struct {
	ServiceID      int64
	MerchantID     int64
	MerchantUserID int64
	SecretKey      string
}

type ClientOptions struct {
	CheckoutURL string
	APIURL      string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *zap.SugaredLogger
}

// Client performs merchant-initiated calls against Click.
type Client struct {
	checkoutURL string
	apiURL      string
	http        *http.Client
	log         *zap.SugaredLogger
	now         func() time.Time
}

func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		return nil, errors.New("opts is nil")
	}
	if opts.CheckoutURL == "" || opts.APIURL == "" {
		return nil, errors.New("checkout and api urls are required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		checkoutURL: opts.CheckoutURL,
		apiURL:      strings.TrimRight(opts.APIURL, "/"),
		http:        hc,
		log:         log,
		now:         time.Now,
	}, nil
}

type PaymentURLParams struct {
	ServiceID  int64
	MerchantID int64
	// Amount in minor units.
	Amount    int64
	OrderID   string
	ReturnURL string
}

// PaymentURL builds the hosted checkout link. It makes no network call.
func (c *Client) PaymentURL(p PaymentURLParams) string {
	q := url.Values{}
	q.Set("service_id", strconv.FormatInt(p.ServiceID, 10))
	q.Set("merchant_id", strconv.FormatInt(p.MerchantID, 10))
	q.Set("amount", money.FormatMinor(p.Amount))
	q.Set("transaction_param", p.OrderID)
	if p.ReturnURL != "" {
		q.Set("return_url", p.ReturnURL)
	}
	sep := "?"
	if strings.Contains(c.checkoutURL, "?") {
		sep = "&"
	}
	return c.checkoutURL + sep + q.Encode()
}

// AuthHeader returns the Auth header value "user_id:sha1(ts+secret):ts".
func AuthHeader(merchantUserID int64, secret string, ts int64) string {
	t := strconv.FormatInt(ts, 10)
	sum := sha1.Sum([]byte(t + secret))
	return strconv.FormatInt(merchantUserID, 10) + ":" + hex.EncodeToString(sum[:]) + ":" + t
}

type InvoiceRequest struct {
	// Amount in minor units.
	Amount      int64
	PhoneNumber string
	OrderID     string
}

type InvoiceResult struct {
	Success   bool            `json:"success"`
	InvoiceID int64           `json:"invoice_id,omitempty"`
	ErrorCode int             `json:"error_code"`
	Error     string          `json:"error,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

type invoiceBody struct {
	ServiceID       int64       `json:"service_id"`
	Amount          json.Number `json:"amount"`
	PhoneNumber     string      `json:"phone_number"`
	MerchantTransID string      `json:"merchant_trans_id"`
}

type providerReply struct {
	ErrorCode *int   `json:"error_code"`
	ErrorNote string `json:"error_note"`
	InvoiceID int64  `json:"invoice_id"`
}

// CreateInvoice asks Click to push an invoice to the payer's phone. Failures
// are reported in the result, never as an error.
func (c *Client) CreateInvoice(ctx context.Context, cred Credentials, req InvoiceRequest) *InvoiceResult {
	log := logctx.FromCtx(ctx, c.log).With("service_id", cred.ServiceID, "order_id", req.OrderID)

	body, err := json.Marshal(invoiceBody{
		ServiceID:       cred.ServiceID,
		Amount:          json.Number(money.FormatMinor(req.Amount)),
		PhoneNumber:     req.PhoneNumber,
		MerchantTransID: req.OrderID,
	})
	if err != nil {
		return &InvoiceResult{Error: err.Error(), ErrorCode: -1}
	}

	raw, err := c.do(ctx, http.MethodPost, c.apiURL+"/invoice/create", cred, body)
	if err != nil {
		log.Warnw("click_invoice_failed", "err", err)
		return &InvoiceResult{Error: err.Error(), ErrorCode: -1, Raw: raw}
	}

	var reply providerReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		log.Warnw("click_invoice_bad_reply", "err", err)
		return &InvoiceResult{Error: fmt.Sprintf("malformed response: %v", err), ErrorCode: -1, Raw: raw}
	}
	if reply.ErrorCode == nil || *reply.ErrorCode != 0 {
		code := -1
		if reply.ErrorCode != nil {
			code = *reply.ErrorCode
		}
		note := reply.ErrorNote
		if note == "" {
			note = "invoice rejected"
		}
		log.Warnw("click_invoice_rejected", "error_code", code, "error_note", note)
		return &InvoiceResult{ErrorCode: code, Error: note, Raw: raw}
	}
	log.Infow("click_invoice_created", "invoice_id", reply.InvoiceID)
	return &InvoiceResult{Success: true, InvoiceID: reply.InvoiceID, Raw: raw}
}

type StatusResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CheckPaymentStatus returns Click's status payload for paymentID as is.
func (c *Client) CheckPaymentStatus(ctx context.Context, cred Credentials, paymentID int64) *StatusResult {
	endpoint := fmt.Sprintf("%s/payment/status/%d/%d", c.apiURL, cred.ServiceID, paymentID)
	raw, err := c.do(ctx, http.MethodGet, endpoint, cred, nil)
	if err != nil {
		logctx.FromCtx(ctx, c.log).Warnw("click_status_failed", "service_id", cred.ServiceID, "payment_id", paymentID, "err", err)
		return &StatusResult{Error: err.Error(), Payload: raw}
	}
	if !json.Valid(raw) {
		return &StatusResult{Error: "malformed response", Payload: nil}
	}
	return &StatusResult{Success: true, Payload: raw}
}

// do issues an authenticated request and returns the body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, endpoint string, cred Credentials, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Auth", AuthHeader(cred.MerchantUserID, cred.SecretKey, c.now().Unix()))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if !json.Valid(raw) {
			raw = nil
		}
		return raw, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return raw, nil
}
