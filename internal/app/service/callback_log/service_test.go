package callback_log

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/internal/testutil"
)

func TestSave_InsertThenUpdate(t *testing.T) {
	db := testutil.OpenSQLite(t)
	s := New(db, zap.NewNop().Sugar())
	ctx := context.Background()

	row := &models.PaymentCallbackLog{
		ProviderID:       "click",
		Action:           "prepare",
		ProviderTransID:  "100",
		OrderID:          "ORD-1",
		NotificationTime: time.Now(),
		Request:          datatypes.JSON(`{"click_trans_id":100}`),
		Status:           models.PaymentCallbackLogStatusReceived,
	}
	s.Save(ctx, row)
	require.NotEmpty(t, row.ID)
	s.Wait()

	code := 0
	resp := datatypes.JSON(`{"error":0}`)
	row.ErrorCode = &code
	row.Response = &resp
	row.Status = models.PaymentCallbackLogStatusHandled
	s.Save(ctx, row)
	s.Wait()

	rows, err := s.ListByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.PaymentCallbackLogStatusHandled, rows[0].Status)
	require.NotNil(t, rows[0].ErrorCode)
	require.Equal(t, 0, *rows[0].ErrorCode)
}

func TestSave_NilIgnored(t *testing.T) {
	s := New(nil, zap.NewNop().Sugar())
	s.Save(context.Background(), nil)
	s.Wait()
	s.Close()
}

func TestSave_OrderedWithoutWait(t *testing.T) {
	db := testutil.OpenSQLite(t)
	s := New(db, zap.NewNop().Sugar())
	ctx := context.Background()

	row := &models.PaymentCallbackLog{
		ProviderID: "click",
		OrderID:    "ORD-3",
		Request:    datatypes.JSON(`{}`),
		Status:     models.PaymentCallbackLogStatusReceived,
	}
	s.Save(ctx, row)
	row.Status = models.PaymentCallbackLogStatusHandleFailed
	s.Save(ctx, row)
	s.Close()

	rows, err := s.ListByOrderID(ctx, "ORD-3")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.PaymentCallbackLogStatusHandleFailed, rows[0].Status)

	// Saves after Close are dropped rather than panicking.
	s.Save(ctx, row)
}

func TestSave_SurvivesCancelledContext(t *testing.T) {
	db := testutil.OpenSQLite(t)
	s := New(db, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Save(ctx, &models.PaymentCallbackLog{
		ProviderID: "click",
		OrderID:    "ORD-2",
		Request:    datatypes.JSON(`{}`),
		Status:     models.PaymentCallbackLogStatusReceived,
	})
	s.Wait()

	rows, err := s.ListByOrderID(context.Background(), "ORD-2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestSave_SecondSaveKeepsCreatedAt(t *testing.T) {
	db := testutil.OpenSQLite(t)
	s := New(db, zap.NewNop().Sugar())
	ctx := context.Background()

	first := &models.PaymentCallbackLog{
		ProviderID: "click",
		Action:     "prepare",
		OrderID:    "ORD-5",
		Request:    datatypes.JSON(`{}`),
		Status:     models.PaymentCallbackLogStatusReceived,
	}
	s.Save(ctx, first)
	s.Wait()
	require.False(t, first.CreatedAt.IsZero())

	var received models.PaymentCallbackLog
	require.NoError(t, db.First(&received, "id = ?", first.ID).Error)
	require.False(t, received.CreatedAt.IsZero())

	time.Sleep(5 * time.Millisecond)
	second := &models.PaymentCallbackLog{
		ProviderID: "click",
		Action:     "complete",
		OrderID:    "ORD-5",
		Request:    datatypes.JSON(`{}`),
		Status:     models.PaymentCallbackLogStatusReceived,
	}
	s.Save(ctx, second)

	code := -9
	first.ErrorCode = &code
	first.Status = models.PaymentCallbackLogStatusHandleFailed
	s.Save(ctx, first)
	second.Status = models.PaymentCallbackLogStatusHandled
	s.Save(ctx, second)
	s.Wait()

	var handled models.PaymentCallbackLog
	require.NoError(t, db.First(&handled, "id = ?", first.ID).Error)
	require.Equal(t, models.PaymentCallbackLogStatusHandleFailed, handled.Status)
	require.True(t, received.CreatedAt.Equal(handled.CreatedAt), "created_at changed from %s to %s", received.CreatedAt, handled.CreatedAt)

	rows, err := s.ListByOrderID(ctx, "ORD-5")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, first.ID, rows[0].ID)
	require.Equal(t, second.ID, rows[1].ID)
	for _, r := range rows {
		require.False(t, r.CreatedAt.IsZero())
	}
}
