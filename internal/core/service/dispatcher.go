package service

import (
	"context"
	"fmt"

	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/port/output"
)

// ResultDispatcher turns a classified result into a domain event
type ResultDispatcher struct {
	events output.EventPublisher
}

// NewResultDispatcher creates a new result dispatcher
func NewResultDispatcher(events output.EventPublisher) *ResultDispatcher {
	return &ResultDispatcher{events: events}
}

// Dispatch publishes the event for the result. Pending results publish nothing.
func (d *ResultDispatcher) Dispatch(ctx context.Context, result core.PaymentResult) error {
	var name string
	switch result.Type {
	case core.ResultAuthorised:
		name = core.EventPaymentAuthorised
	case core.ResultFailed:
		name = core.EventPaymentFailed
	case core.ResultPending:
		return nil
	default:
		return fmt.Errorf("%w: unknown result type %q", core.ErrInvalidArgument, result.Type)
	}

	return d.events.Publish(ctx, core.Event{Name: name, PaymentID: result.PaymentID})
}
