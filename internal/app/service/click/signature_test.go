package click

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func signedPrepare() *CallbackRequest {
	return &CallbackRequest{
		ClickTransID:    555,
		ServiceID:       12,
		MerchantTransID: "ORD-1",
		Amount:          "10000.00",
		Action:          ActionCodePrepare,
		SignTime:        "2026-01-01 10:00:00",
	}
}

func TestSign_KnownDigests(t *testing.T) {
	req := signedPrepare()
	require.Equal(t, "a4be3957fc5d0b3999f9126c5e0bc4c8", Sign(req, ActionPrepare, "secret"))

	req.Action = ActionCodeComplete
	req.MerchantPrepareID = 7
	require.Equal(t, "2520538f4ebdafb76ed73675a1d634fa", Sign(req, ActionComplete, "secret"))
}

func TestMD5Verifier(t *testing.T) {
	v := MD5Verifier{}

	req := signedPrepare()
	req.SignString = "a4be3957fc5d0b3999f9126c5e0bc4c8"
	require.True(t, v.Verify(req, ActionPrepare, "secret"))

	req.SignString = strings.ToUpper(req.SignString)
	require.True(t, v.Verify(req, ActionPrepare, "secret"))

	require.False(t, v.Verify(req, ActionPrepare, "other-secret"))

	req.SignString = ""
	require.False(t, v.Verify(req, ActionPrepare, "secret"))
	require.False(t, v.Verify(nil, ActionPrepare, "secret"))
}

func TestMD5Verifier_PrepareIDOnlyInComplete(t *testing.T) {
	req := signedPrepare()
	req.MerchantPrepareID = 99
	// Prepare ignores merchant_prepare_id even when present.
	require.Equal(t, "a4be3957fc5d0b3999f9126c5e0bc4c8", Sign(req, ActionPrepare, "secret"))
	require.NotEqual(t, Sign(req, ActionPrepare, "secret"), Sign(req, ActionComplete, "secret"))
}

func TestMD5Verifier_AmountIsSignedVerbatim(t *testing.T) {
	a := signedPrepare()
	b := signedPrepare()
	b.Amount = "10000"
	require.NotEqual(t, Sign(a, ActionPrepare, "secret"), Sign(b, ActionPrepare, "secret"))
}
