package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/port/output"
)

// Messaging is an in-memory PaymentMessaging that records what was published
type Messaging struct {
	mu            sync.Mutex
	Notifications []map[string]any
	Refunds       []uuid.UUID
	Captures      []core.CaptureRequest
	Reversals     []core.ReversalRequest
}

var _ output.PaymentMessaging = (*Messaging)(nil)

// NewMessaging creates an empty recorder
func NewMessaging() *Messaging {
	return &Messaging{}
}

// PublishNotification records a queued notification
func (m *Messaging) PublishNotification(_ context.Context, item map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications = append(m.Notifications, item)
	return nil
}

// PublishRefundCompleted records a queued refund
func (m *Messaging) PublishRefundCompleted(_ context.Context, refundID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refunds = append(m.Refunds, refundID)
	return nil
}

// PublishCaptureRequest records a capture command
func (m *Messaging) PublishCaptureRequest(_ context.Context, req core.CaptureRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Captures = append(m.Captures, req)
	return nil
}

// PublishReversalRequest records a reversal command
func (m *Messaging) PublishReversalRequest(_ context.Context, req core.ReversalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reversals = append(m.Reversals, req)
	return nil
}

// Close is a no-op
func (m *Messaging) Close() error {
	return nil
}
