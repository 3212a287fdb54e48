package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorT_CarriesCodeMessageAndData(t *testing.T) {
	body, err := json.Marshal(ErrorT[any](APIResponseCodeNotFound, "payment not found"))
	require.NoError(t, err)
	require.JSONEq(t, `{"code":40400,"message":"not found","data":"payment not found"}`, string(body))
}

func TestOKT(t *testing.T) {
	res := OKT(map[string]string{"status": "ok"})
	require.Equal(t, APIResponseCodeOK, res.Code)
	require.Equal(t, "ok", res.Message)
}
