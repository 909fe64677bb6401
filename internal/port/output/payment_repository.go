package output

import (
	"context"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
)

// PaymentRepository is an output port (secondary port) for payment data access
// Secondary adapters (database implementations) will implement this
type PaymentRepository interface {
	// GetPayment retrieves a payment by its ID
	GetPayment(ctx context.Context, id uuid.UUID) (*core.Payment, error)

	// FindPaymentByMerchantReference retrieves the payment a callback refers to
	FindPaymentByMerchantReference(ctx context.Context, reference string) (*core.Payment, error)

	// GetOrder retrieves an order with its payments
	GetOrder(ctx context.Context, id uuid.UUID) (*core.Order, error)

	// GetRefund retrieves a refund record
	GetRefund(ctx context.Context, id uuid.UUID) (*core.RefundPayment, error)

	// WithPaymentLock locks the payment row, runs fn and persists the payment and its order.
	// All transitions of one payment must happen inside this scope.
	WithPaymentLock(ctx context.Context, paymentID uuid.UUID, fn func(order *core.Order, payment *core.Payment) error) error

	// WithOrderLock locks the order and its payment rows, runs fn and persists them
	WithOrderLock(ctx context.Context, orderID uuid.UUID, fn func(order *core.Order) error) error

	// ProcessNotificationOnce runs fn unless key is already in the processed-notification ledger
	// and records key when fn succeeds. Calls with the same key are serialized.
	// It reports whether fn was skipped as a duplicate.
	ProcessNotificationOnce(ctx context.Context, key string, fn func() error) (duplicate bool, err error)
}
