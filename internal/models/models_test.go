package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/bizpay/pkg/types"
)

func TestTableNames(t *testing.T) {
	require.Equal(t, "payment_account", PaymentAccount{}.TableName())
	require.Equal(t, "payment_transaction", PaymentTransaction{}.TableName())
	require.Equal(t, "click_transaction", ClickTransaction{}.TableName())
	require.Equal(t, "payment_callback_log", PaymentCallbackLog{}.TableName())
}

func TestPaymentAccount_SecretKeyNeverSerialized(t *testing.T) {
	body, err := json.Marshal(&PaymentAccount{ServiceID: 1, SecretKey: "top-secret"})
	require.NoError(t, err)
	require.NotContains(t, string(body), "top-secret")
	require.NotContains(t, string(body), "secret_key")
}

func TestPaymentTransaction_IsCancelled(t *testing.T) {
	var nilTx *PaymentTransaction
	require.False(t, nilTx.IsCancelled())
	require.True(t, (&PaymentTransaction{Status: types.PaymentStatusCancelled}).IsCancelled())
	require.False(t, (&PaymentTransaction{Status: types.PaymentStatusProcessing}).IsCancelled())
}
