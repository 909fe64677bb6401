package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := New(zap.NewNop())
	var calls []string

	bus.Subscribe(core.EventPaymentAuthorised, func(context.Context, core.Event) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Subscribe(core.EventPaymentAuthorised, func(context.Context, core.Event) error {
		calls = append(calls, "second")
		return nil
	})
	bus.Subscribe(core.EventPaymentFailed, func(context.Context, core.Event) error {
		calls = append(calls, "failed")
		return nil
	})

	err := bus.Publish(context.Background(), core.Event{Name: core.EventPaymentAuthorised, PaymentID: uuid.New()})
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestBusStopsAtFirstError(t *testing.T) {
	bus := New(zap.NewNop())
	boom := errors.New("boom")
	called := false

	bus.Subscribe(core.EventPaymentFailed, func(context.Context, core.Event) error { return boom })
	bus.Subscribe(core.EventPaymentFailed, func(context.Context, core.Event) error {
		called = true
		return nil
	})

	err := bus.Publish(context.Background(), core.Event{Name: core.EventPaymentFailed})
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestBusWithoutSubscribers(t *testing.T) {
	assert.NoError(t, New(zap.NewNop()).Publish(context.Background(), core.Event{Name: "unknown"}))
}
