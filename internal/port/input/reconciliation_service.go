package input

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
)

// ReconciliationService is an input port (primary port) for payment reconciliation
// Primary adapters (HTTP handlers, queue consumers) will use this
type ReconciliationService interface {
	// AcceptNotification queues a raw webhook item for asynchronous processing
	AcceptNotification(ctx context.Context, item map[string]any) error

	// HandleNotification decodes, classifies and applies one webhook item
	HandleNotification(ctx context.Context, payload core.Payload) error

	// HandleAPIResponse classifies the synchronous response of a redirect/checkout completion
	HandleAPIResponse(ctx context.Context, paymentID uuid.UUID, resp core.APIResponse) (core.ResultType, error)

	// RequestCapture asks the processor to capture a manually captured payment
	RequestCapture(ctx context.Context, paymentID uuid.UUID) error

	// CancelOrder cancels an order, reversing its payment at the processor when needed
	CancelOrder(ctx context.Context, orderID uuid.UUID) error

	// OrderActions reports which order-level actions the guards allow
	OrderActions(ctx context.Context, orderID uuid.UUID) (*OrderActionsResponse, error)

	// AcceptRefundCompletion queues a completed refund record for reconciliation
	AcceptRefundCompletion(ctx context.Context, refundID uuid.UUID) error

	// ReconcileRefund ties a completed refund record back to the order's payment
	ReconcileRefund(ctx context.Context, refundID uuid.UUID) error

	// GetPayment retrieves a payment by ID
	GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error)
}

// OrderActionsResponse represents the order-level actions currently permitted
type OrderActionsResponse struct {
	OrderID     uuid.UUID
	Cancellable bool
	Refundable  bool
}

// PaymentResponse represents the response for a payment
type PaymentResponse struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	Amount             int64
	Currency           string
	MerchantReference  string
	ProcessorReference string
	State              core.PaymentState
	CaptureMode        core.CaptureMode
	CreatedAt          time.Time
}
