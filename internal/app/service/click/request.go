package click

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var ErrMalformedRequest = errors.New("malformed click request")

// CallbackRequest is an inbound Prepare or Complete notification.
// Amount is kept verbatim because it is part of the signed string.
type CallbackRequest struct {
	ClickTransID      int64  `json:"click_trans_id"`
	ServiceID         int64  `json:"service_id"`
	ClickPaydocID     int64  `json:"click_paydoc_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID int64  `json:"merchant_prepare_id,omitempty"`
	Amount            string `json:"amount"`
	Action            int    `json:"action"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
	SignTime          string `json:"sign_time"`
	SignString        string `json:"sign_string"`
}

// CallbackResponse is the envelope Click expects for every callback,
// success or failure, always with HTTP 200.
type CallbackResponse struct {
	ClickTransID      int64     `json:"click_trans_id"`
	MerchantTransID   string    `json:"merchant_trans_id"`
	MerchantPrepareID *uint64   `json:"merchant_prepare_id,omitempty"`
	MerchantConfirmID *uint64   `json:"merchant_confirm_id,omitempty"`
	Error             ErrorCode `json:"error"`
	ErrorNote         string    `json:"error_note"`
}

// NewResponse builds the envelope for req with the given code. req may be
// partially decoded.
func NewResponse(req *CallbackRequest, code ErrorCode) *CallbackResponse {
	res := &CallbackResponse{Error: code, ErrorNote: code.Note()}
	if req != nil {
		res.ClickTransID = req.ClickTransID
		res.MerchantTransID = req.MerchantTransID
	}
	return res
}

type fieldSource func(key string) (string, bool)

// ParseCallbackForm decodes an application/x-www-form-urlencoded callback.
func ParseCallbackForm(values url.Values) (*CallbackRequest, error) {
	return parseCallback(func(key string) (string, bool) {
		if _, ok := values[key]; !ok {
			return "", false
		}
		return values.Get(key), true
	})
}

// ParseCallbackJSON decodes a JSON callback. Numeric fields may be sent as
// JSON numbers or strings.
func ParseCallbackJSON(body []byte) (*CallbackRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return parseCallback(func(key string) (string, bool) {
		v, ok := raw[key]
		if !ok || v == nil {
			return "", false
		}
		switch t := v.(type) {
		case string:
			return t, true
		case json.Number:
			return t.String(), true
		default:
			return fmt.Sprint(t), true
		}
	})
}

func parseCallback(get fieldSource) (*CallbackRequest, error) {
	req := &CallbackRequest{}
	var errs []error

	str := func(key string, required bool) string {
		v, ok := get(key)
		v = strings.TrimSpace(v)
		if required && (!ok || v == "") {
			errs = append(errs, fmt.Errorf("missing %s", key))
		}
		return v
	}
	integer := func(key string, required bool) int64 {
		v := str(key, required)
		if v == "" {
			return 0
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %q", key, v))
		}
		return n
	}

	req.ClickTransID = integer("click_trans_id", true)
	req.ServiceID = integer("service_id", true)
	req.ClickPaydocID = integer("click_paydoc_id", false)
	req.MerchantTransID = str("merchant_trans_id", true)
	req.Amount = str("amount", true)
	req.Action = int(integer("action", true))
	req.Error = int(integer("error", false))
	req.ErrorNote = str("error_note", false)
	req.SignTime = str("sign_time", true)
	req.SignString = str("sign_string", true)
	if req.Action == ActionCodeComplete {
		req.MerchantPrepareID = integer("merchant_prepare_id", true)
	} else {
		req.MerchantPrepareID = integer("merchant_prepare_id", false)
	}

	if len(errs) > 0 {
		return req, fmt.Errorf("%w: %w", ErrMalformedRequest, errors.Join(errs...))
	}
	return req, nil
}
