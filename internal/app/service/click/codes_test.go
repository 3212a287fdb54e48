package click

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodes_WireValues(t *testing.T) {
	require.Equal(t, 0, int(CodeSuccess))
	require.Equal(t, -1, int(CodeSignCheckFailed))
	require.Equal(t, -2, int(CodeInvalidAmount))
	require.Equal(t, -3, int(CodeActionNotFound))
	require.Equal(t, -4, int(CodeAlreadyPaid))
	require.Equal(t, -5, int(CodeUserNotFound))
	require.Equal(t, -6, int(CodeTransactionNotFound))
	require.Equal(t, -7, int(CodeFailedToUpdate))
	require.Equal(t, -8, int(CodeErrorInRequest))
	require.Equal(t, -9, int(CodeTransactionCancelled))
	require.Equal(t, CodeAlreadyPaid, CodeAlreadyDone)
}

func TestErrorCode_Note(t *testing.T) {
	require.Equal(t, "Success", CodeSuccess.Note())
	require.Equal(t, "SIGN CHECK FAILED!", CodeSignCheckFailed.Note())
	require.Equal(t, "Transaction cancelled", CodeTransactionCancelled.Note())
	require.Equal(t, "Unknown error", ErrorCode(-42).Note())
	require.True(t, CodeSuccess.IsSuccess())
	require.False(t, CodeAlreadyPaid.IsSuccess())
}

func TestParseAction(t *testing.T) {
	cases := []struct {
		code int
		want Action
		name string
	}{
		{0, ActionPrepare, "prepare"},
		{1, ActionComplete, "complete"},
		{2, ActionUnknown, "unknown"},
		{-1, ActionUnknown, "unknown"},
	}
	for _, tc := range cases {
		a := ParseAction(tc.code)
		require.Equal(t, tc.want, a, "code %d", tc.code)
		require.Equal(t, tc.name, a.String())
	}
}
