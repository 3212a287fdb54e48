package click

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCallbackForm_Complete(t *testing.T) {
	v := url.Values{}
	v.Set("click_trans_id", "555")
	v.Set("service_id", "12")
	v.Set("click_paydoc_id", "9001")
	v.Set("merchant_trans_id", "ORD-1")
	v.Set("merchant_prepare_id", "7")
	v.Set("amount", "10000.00")
	v.Set("action", "1")
	v.Set("error", "0")
	v.Set("error_note", "Success")
	v.Set("sign_time", "2026-01-01 10:00:00")
	v.Set("sign_string", "abc")

	req, err := ParseCallbackForm(v)
	require.NoError(t, err)
	require.Equal(t, int64(555), req.ClickTransID)
	require.Equal(t, int64(12), req.ServiceID)
	require.Equal(t, int64(9001), req.ClickPaydocID)
	require.Equal(t, "ORD-1", req.MerchantTransID)
	require.Equal(t, int64(7), req.MerchantPrepareID)
	require.Equal(t, "10000.00", req.Amount)
	require.Equal(t, ActionCodeComplete, req.Action)
	require.Equal(t, "abc", req.SignString)
}

func TestParseCallbackForm_MissingFields(t *testing.T) {
	v := url.Values{}
	v.Set("click_trans_id", "555")
	v.Set("merchant_trans_id", "ORD-1")
	v.Set("action", "1")

	req, err := ParseCallbackForm(v)
	require.ErrorIs(t, err, ErrMalformedRequest)
	require.Contains(t, err.Error(), "missing service_id")
	require.Contains(t, err.Error(), "missing merchant_prepare_id")
	// Partial decode still carries ids for the response envelope.
	require.NotNil(t, req)
	require.Equal(t, int64(555), req.ClickTransID)
	require.Equal(t, "ORD-1", req.MerchantTransID)
}

func TestParseCallbackForm_PrepareDoesNotNeedPrepareID(t *testing.T) {
	v := url.Values{}
	for k, val := range map[string]string{
		"click_trans_id": "1", "service_id": "2", "merchant_trans_id": "ORD-2",
		"amount": "1.00", "action": "0", "sign_time": "t", "sign_string": "s",
	} {
		v.Set(k, val)
	}
	req, err := ParseCallbackForm(v)
	require.NoError(t, err)
	require.Equal(t, int64(0), req.MerchantPrepareID)
}

func TestParseCallbackForm_InvalidInteger(t *testing.T) {
	v := url.Values{}
	for k, val := range map[string]string{
		"click_trans_id": "abc", "service_id": "2", "merchant_trans_id": "ORD-2",
		"amount": "1.00", "action": "0", "sign_time": "t", "sign_string": "s",
	} {
		v.Set(k, val)
	}
	_, err := ParseCallbackForm(v)
	require.ErrorIs(t, err, ErrMalformedRequest)
	require.Contains(t, err.Error(), "invalid click_trans_id")
}

func TestParseCallbackJSON_NumbersAndStrings(t *testing.T) {
	body := []byte(`{
		"click_trans_id": 555,
		"service_id": "12",
		"merchant_trans_id": "ORD-1",
		"amount": 10000.5,
		"action": 0,
		"error": -1,
		"sign_time": "2026-01-01 10:00:00",
		"sign_string": "abc"
	}`)
	req, err := ParseCallbackJSON(body)
	require.NoError(t, err)
	require.Equal(t, int64(555), req.ClickTransID)
	require.Equal(t, int64(12), req.ServiceID)
	require.Equal(t, "10000.5", req.Amount)
	require.Equal(t, -1, req.Error)
}

func TestParseCallbackJSON_Garbage(t *testing.T) {
	req, err := ParseCallbackJSON([]byte(`not json`))
	require.ErrorIs(t, err, ErrMalformedRequest)
	require.Nil(t, req)
}

func TestCallbackResponse_Envelope(t *testing.T) {
	req := &CallbackRequest{ClickTransID: 555, MerchantTransID: "ORD-1"}

	res := NewResponse(req, CodeSuccess)
	id := uint64(7)
	res.MerchantPrepareID = &id
	b, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"click_trans_id":555,"merchant_trans_id":"ORD-1","merchant_prepare_id":7,"error":0,"error_note":"Success"}`, string(b))

	b, err = json.Marshal(NewResponse(nil, CodeErrorInRequest))
	require.NoError(t, err)
	require.JSONEq(t, `{"click_trans_id":0,"merchant_trans_id":"","error":-8,"error_note":"Error in request from click"}`, string(b))
}
