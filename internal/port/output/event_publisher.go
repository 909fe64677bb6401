package output

import (
	"context"

	"github.com/cashflow/payment-reconciliation/internal/core"
)

// EventPublisher delivers domain events to their subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event core.Event) error
}
