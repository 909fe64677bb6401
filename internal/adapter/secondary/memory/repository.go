package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/port/output"
)

// Repository is an in-memory PaymentRepository.
// A single mutex stands in for the row locks of the database adapter,
// ledgerMu for its advisory lock on notification keys.
type Repository struct {
	mu        sync.Mutex
	ledgerMu  sync.Mutex
	orders    map[uuid.UUID]*core.Order
	refunds   map[uuid.UUID]*core.RefundPayment
	processed map[string]bool
}

var _ output.PaymentRepository = (*Repository)(nil)

// NewRepository creates an empty repository
func NewRepository() *Repository {
	return &Repository{
		orders:    make(map[uuid.UUID]*core.Order),
		refunds:   make(map[uuid.UUID]*core.RefundPayment),
		processed: make(map[string]bool),
	}
}

// SaveOrder stores a copy of the order and its payments
func (r *Repository) SaveOrder(order *core.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
}

// SaveRefund stores a copy of the refund
func (r *Repository) SaveRefund(refund *core.RefundPayment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *refund
	r.refunds[refund.ID] = &cp
}

// GetPayment retrieves a payment by its ID
func (r *Repository) GetPayment(_ context.Context, id uuid.UUID) (*core.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.orders {
		if p := o.Payment(id); p != nil {
			return clonePayment(p), nil
		}
	}
	return nil, core.ErrPaymentNotFound
}

// FindPaymentByMerchantReference retrieves a payment by merchant reference
func (r *Repository) FindPaymentByMerchantReference(_ context.Context, reference string) (*core.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.orders {
		for _, p := range o.Payments {
			if p.MerchantReference == reference {
				return clonePayment(p), nil
			}
		}
	}
	return nil, core.ErrPaymentNotFound
}

// GetOrder retrieves an order with its payments
func (r *Repository) GetOrder(_ context.Context, id uuid.UUID) (*core.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, core.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

// GetRefund retrieves a refund record
func (r *Repository) GetRefund(_ context.Context, id uuid.UUID) (*core.RefundPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rf, ok := r.refunds[id]
	if !ok {
		return nil, core.ErrRefundNotFound
	}
	cp := *rf
	return &cp, nil
}

// WithPaymentLock runs fn on a copy of the payment's order and keeps the copy only when fn succeeds
func (r *Repository) WithPaymentLock(_ context.Context, paymentID uuid.UUID, fn func(*core.Order, *core.Payment) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, o := range r.orders {
		if o.Payment(paymentID) == nil {
			continue
		}
		working := cloneOrder(o)
		if err := fn(working, working.Payment(paymentID)); err != nil {
			return err
		}
		r.orders[id] = working
		return nil
	}
	return core.ErrPaymentNotFound
}

// WithOrderLock runs fn on a copy of the order and keeps the copy only when fn succeeds
func (r *Repository) WithOrderLock(_ context.Context, orderID uuid.UUID, fn func(*core.Order) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return core.ErrOrderNotFound
	}
	working := cloneOrder(o)
	if err := fn(working); err != nil {
		return err
	}
	r.orders[orderID] = working
	return nil
}

// ProcessNotificationOnce runs fn for a key not yet in the ledger and records it on success
func (r *Repository) ProcessNotificationOnce(_ context.Context, key string, fn func() error) (bool, error) {
	r.ledgerMu.Lock()
	defer r.ledgerMu.Unlock()

	if r.isProcessed(key) {
		return true, nil
	}
	if err := fn(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[key] = true
	return false, nil
}

func (r *Repository) isProcessed(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed[key]
}

func cloneOrder(o *core.Order) *core.Order {
	cp := *o
	cp.Payments = make([]*core.Payment, len(o.Payments))
	for i, p := range o.Payments {
		cp.Payments[i] = clonePayment(p)
	}
	return &cp
}

func clonePayment(p *core.Payment) *core.Payment {
	return core.RestorePayment(*p, p.State())
}
