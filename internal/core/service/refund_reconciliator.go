package service

import (
	"github.com/cashflow/payment-reconciliation/internal/core"
	"go.uber.org/zap"
)

// RefundReconciliator moves the order's active payment to refunded when a refund covers it exactly.
// Partial and multi-payment refunds are left to the refund workflow.
type RefundReconciliator struct {
	machine *core.StateMachine
	logger  *zap.Logger
}

// NewRefundReconciliator creates a new refund reconciliator
func NewRefundReconciliator(machine *core.StateMachine, logger *zap.Logger) *RefundReconciliator {
	return &RefundReconciliator{machine: machine, logger: logger}
}

// Reconcile reports whether the refund advanced a payment. Must run inside the order's lock scope.
func (r *RefundReconciliator) Reconcile(order *core.Order, refund *core.RefundPayment) bool {
	if refund.Method == nil || refund.Method.GatewayName != r.machine.Gateway() {
		return false
	}

	payment := order.LastPayment()
	if payment == nil || !payment.BelongsTo(r.machine.Gateway()) {
		return false
	}

	if !refund.Amount.Equal(payment.Amount) {
		r.logger.Info("refund does not cover the payment, leaving state unchanged",
			zap.String("refund_id", refund.ID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.Int64("refund_amount", refund.Amount.Value),
			zap.String("refund_currency", refund.Amount.Currency),
			zap.Int64("payment_amount", payment.Amount.Value),
			zap.String("payment_currency", payment.Amount.Currency),
		)
		return false
	}

	return applyLogged(r.machine, r.logger, core.Subject{Payment: payment, Order: order, Refund: refund}, core.TransitionRefund)
}
