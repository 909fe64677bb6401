package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/port/output"
	"go.uber.org/zap"
)

// Handler reacts to a domain event
type Handler func(ctx context.Context, event core.Event) error

// Bus is an in-process secondary adapter that implements the EventPublisher output port.
// Handlers run synchronously in subscription order so each one can take its own payment lock.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

var _ output.EventPublisher = (*Bus)(nil)

// New creates an empty bus
func New(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event name
func (b *Bus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Publish delivers the event to every handler and stops at the first error
func (b *Bus) Publish(ctx context.Context, event core.Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.Name]
	b.mu.RUnlock()

	b.logger.Debug("publishing event",
		zap.String("event", event.Name),
		zap.String("payment_id", event.PaymentID.String()),
		zap.Int("handlers", len(handlers)),
	)

	for i, h := range handlers {
		if err := h(ctx, event); err != nil {
			return fmt.Errorf("handler %d for %s failed: %w", i, event.Name, err)
		}
	}
	return nil
}
