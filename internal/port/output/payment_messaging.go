package output

import (
	"context"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
)

// PaymentMessaging is an output port (secondary port) for payment messaging
// Secondary adapters (RabbitMQ implementations) will implement this
type PaymentMessaging interface {
	// PublishNotification queues a raw notification item for the worker
	PublishNotification(ctx context.Context, item map[string]any) error
	// PublishRefundCompleted queues a refund for reconciliation
	PublishRefundCompleted(ctx context.Context, refundID uuid.UUID) error
	// PublishCaptureRequest sends a capture command to the processor client
	PublishCaptureRequest(ctx context.Context, req core.CaptureRequest) error
	// PublishReversalRequest sends a reversal command to the processor client
	PublishReversalRequest(ctx context.Context, req core.ReversalRequest) error
	// Close closes the messaging connection
	Close() error
}
