package click

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// SignatureVerifier checks the sign_string of an inbound callback against
// the merchant secret of the resolved account.
type SignatureVerifier interface {
	Verify(req *CallbackRequest, action Action, secret string) bool
}

// MD5Verifier implements the Click SHOP API scheme:
//
//	md5(click_trans_id + service_id + secret + merchant_trans_id +
//	    [merchant_prepare_id] + amount + action + sign_time)
//
// merchant_prepare_id is only part of the string for Complete.
type MD5Verifier struct{}

func (MD5Verifier) Verify(req *CallbackRequest, action Action, secret string) bool {
	if req == nil || req.SignString == "" {
		return false
	}
	return strings.ToLower(req.SignString) == Sign(req, action, secret)
}

// Sign computes the lower-hex digest Click sends in sign_string.
func Sign(req *CallbackRequest, action Action, secret string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(req.ClickTransID, 10))
	b.WriteString(strconv.FormatInt(req.ServiceID, 10))
	b.WriteString(secret)
	b.WriteString(req.MerchantTransID)
	if action == ActionComplete {
		b.WriteString(strconv.FormatInt(req.MerchantPrepareID, 10))
	}
	b.WriteString(req.Amount)
	b.WriteString(strconv.Itoa(req.Action))
	b.WriteString(req.SignTime)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
