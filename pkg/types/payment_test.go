package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaymentStatus_IsTerminal(t *testing.T) {
	require.False(t, PaymentStatusPending.IsTerminal())
	require.False(t, PaymentStatusProcessing.IsTerminal())
	require.True(t, PaymentStatusCompleted.IsTerminal())
	require.True(t, PaymentStatusCancelled.IsTerminal())
}
