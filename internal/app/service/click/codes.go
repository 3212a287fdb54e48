package click

// ErrorCode is the numeric status returned to Click in the error field.
// Values are fixed by the Click SHOP API.
type ErrorCode int

const (
	CodeSuccess              ErrorCode = 0
	CodeSignCheckFailed      ErrorCode = -1
	CodeInvalidAmount        ErrorCode = -2
	CodeActionNotFound       ErrorCode = -3
	CodeAlreadyPaid          ErrorCode = -4
	CodeUserNotFound         ErrorCode = -5
	CodeTransactionNotFound  ErrorCode = -6
	CodeFailedToUpdate       ErrorCode = -7
	CodeErrorInRequest       ErrorCode = -8
	CodeTransactionCancelled ErrorCode = -9
)

// CodeAlreadyDone is the generic name for CodeAlreadyPaid.
const CodeAlreadyDone = CodeAlreadyPaid

var codeNotes = map[ErrorCode]string{
	CodeSuccess:              "Success",
	CodeSignCheckFailed:      "SIGN CHECK FAILED!",
	CodeInvalidAmount:        "Incorrect parameter amount",
	CodeActionNotFound:       "Action not found",
	CodeAlreadyPaid:          "Already paid",
	CodeUserNotFound:         "User does not exist",
	CodeTransactionNotFound:  "Transaction does not exist",
	CodeFailedToUpdate:       "Failed to update user",
	CodeErrorInRequest:       "Error in request from click",
	CodeTransactionCancelled: "Transaction cancelled",
}

// Note returns the error_note sent alongside the code.
func (c ErrorCode) Note() string {
	if n, ok := codeNotes[c]; ok {
		return n
	}
	return "Unknown error"
}

func (c ErrorCode) IsSuccess() bool { return c == CodeSuccess }
