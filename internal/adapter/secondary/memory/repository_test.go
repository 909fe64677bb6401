package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockScopeDiscardsChangesOnError(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	machine := core.NewStateMachine("adyen")

	orderID := uuid.New()
	method := &core.PaymentMethod{GatewayName: "adyen", CaptureMode: core.CaptureModeAutomatic}
	payment := core.NewPayment(orderID, method, core.Amount{Value: 100, Currency: "EUR"}, "R1")
	repo.SaveOrder(&core.Order{ID: orderID, Payments: []*core.Payment{payment}})

	boom := errors.New("boom")
	err := repo.WithPaymentLock(ctx, payment.ID, func(_ *core.Order, p *core.Payment) error {
		require.True(t, machine.Apply(core.Subject{Payment: p}, core.TransitionProcess))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStateNew, stored.State())

	err = repo.WithPaymentLock(ctx, payment.ID, func(_ *core.Order, p *core.Payment) error {
		machine.Apply(core.Subject{Payment: p}, core.TransitionProcess)
		return nil
	})
	require.NoError(t, err)

	stored, err = repo.FindPaymentByMerchantReference(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStateProcessing, stored.State())
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	_, err := repo.GetPayment(ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrPaymentNotFound)
	_, err = repo.GetOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrOrderNotFound)
	_, err = repo.GetRefund(ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrRefundNotFound)
	assert.ErrorIs(t, repo.WithOrderLock(ctx, uuid.New(), func(*core.Order) error { return nil }), core.ErrOrderNotFound)
}

func TestProcessNotificationOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	key := "PSP1:authorisation:true"

	boom := errors.New("boom")
	duplicate, err := repo.ProcessNotificationOnce(ctx, key, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, duplicate)

	calls := 0
	duplicate, err = repo.ProcessNotificationOnce(ctx, key, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.False(t, duplicate)

	duplicate, err = repo.ProcessNotificationOnce(ctx, key, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.Equal(t, 1, calls)
}

func TestProcessNotificationOnce_ConcurrentDeliveries(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ProcessNotificationOnce(ctx, "PSP1:authorisation:true", func() error {
				calls.Add(1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}
