package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/port/output"
	"go.uber.org/zap"
)

// AuthorizationStateProcessor applies the capture mode policy to an authorised payment.
// Automatic payments are captured right away, manual ones wait in authorized.
type AuthorizationStateProcessor struct {
	paymentRepo output.PaymentRepository
	machine     *core.StateMachine
	logger      *zap.Logger
}

// NewAuthorizationStateProcessor creates a new authorization state processor
func NewAuthorizationStateProcessor(paymentRepo output.PaymentRepository, machine *core.StateMachine, logger *zap.Logger) *AuthorizationStateProcessor {
	return &AuthorizationStateProcessor{
		paymentRepo: paymentRepo,
		machine:     machine,
		logger:      logger,
	}
}

// Handle processes a payment.authorised event
func (p *AuthorizationStateProcessor) Handle(ctx context.Context, event core.Event) error {
	return p.paymentRepo.WithPaymentLock(ctx, event.PaymentID, func(order *core.Order, payment *core.Payment) error {
		subject := core.Subject{Payment: payment, Order: order}

		transition := core.TransitionCapture
		if payment.CaptureMode() == core.CaptureModeManual {
			transition = core.TransitionAuthorize
		}
		applyLogged(p.machine, p.logger, subject, transition)
		return nil
	})
}

// OrderCompletionProcessor completes the checkout of the order whose active payment got authorised.
// It checks capture legality on its own; with automatic capture the
// AuthorizationStateProcessor normally got there first and this is a no-op for the payment.
type OrderCompletionProcessor struct {
	paymentRepo output.PaymentRepository
	machine     *core.StateMachine
	logger      *zap.Logger
}

// NewOrderCompletionProcessor creates a new order completion processor
func NewOrderCompletionProcessor(paymentRepo output.PaymentRepository, machine *core.StateMachine, logger *zap.Logger) *OrderCompletionProcessor {
	return &OrderCompletionProcessor{
		paymentRepo: paymentRepo,
		machine:     machine,
		logger:      logger,
	}
}

// Handle processes a payment.authorised event
func (p *OrderCompletionProcessor) Handle(ctx context.Context, event core.Event) error {
	return p.paymentRepo.WithPaymentLock(ctx, event.PaymentID, func(order *core.Order, payment *core.Payment) error {
		if order.State == core.OrderStateCancelled {
			p.logger.Warn("payment authorised after its order was cancelled",
				zap.String("payment_id", payment.ID.String()),
				zap.String("order_id", order.ID.String()),
			)
			return nil
		}

		last := order.LastPayment()
		if last == nil || last.ID != payment.ID {
			p.logger.Debug("authorised payment is not the active payment of its order",
				zap.String("payment_id", payment.ID.String()),
				zap.String("order_id", order.ID.String()),
			)
			return nil
		}

		if payment.State() != core.PaymentStateCompleted {
			applyLogged(p.machine, p.logger, core.Subject{Payment: payment, Order: order}, core.TransitionCapture)
		}

		if order.CheckoutState != core.CheckoutStateCompleted {
			order.CheckoutState = core.CheckoutStateCompleted
			p.logger.Info("order checkout completed", zap.String("order_id", order.ID.String()))
		}
		return nil
	})
}

// FailureProcessor fails a payment the processor reported as failed.
// A payment under reversal is left alone; only a confirmed reversal settles it.
type FailureProcessor struct {
	paymentRepo output.PaymentRepository
	machine     *core.StateMachine
	logger      *zap.Logger
}

// NewFailureProcessor creates a new failure processor
func NewFailureProcessor(paymentRepo output.PaymentRepository, machine *core.StateMachine, logger *zap.Logger) *FailureProcessor {
	return &FailureProcessor{
		paymentRepo: paymentRepo,
		machine:     machine,
		logger:      logger,
	}
}

// Handle processes a payment.failed event
func (p *FailureProcessor) Handle(ctx context.Context, event core.Event) error {
	return p.paymentRepo.WithPaymentLock(ctx, event.PaymentID, func(order *core.Order, payment *core.Payment) error {
		applyLogged(p.machine, p.logger, core.Subject{Payment: payment, Order: order}, core.TransitionFail)
		return nil
	})
}

// CaptureConfirmationProcessor completes a manual capture once the processor confirms it
type CaptureConfirmationProcessor struct {
	paymentRepo output.PaymentRepository
	machine     *core.StateMachine
	logger      *zap.Logger
}

// NewCaptureConfirmationProcessor creates a new capture confirmation processor
func NewCaptureConfirmationProcessor(paymentRepo output.PaymentRepository, machine *core.StateMachine, logger *zap.Logger) *CaptureConfirmationProcessor {
	return &CaptureConfirmationProcessor{
		paymentRepo: paymentRepo,
		machine:     machine,
		logger:      logger,
	}
}

// Handle processes a CAPTURE notification for the payment
func (p *CaptureConfirmationProcessor) Handle(ctx context.Context, paymentID uuid.UUID, item core.NotificationItem) error {
	if !item.Success {
		p.logger.Warn("processor refused capture",
			zap.String("payment_id", paymentID.String()),
			zap.String("psp_reference", item.PSPReference),
		)
		return nil
	}

	err := p.paymentRepo.WithPaymentLock(ctx, paymentID, func(order *core.Order, payment *core.Payment) error {
		subject := core.Subject{Payment: payment, Order: order, ManualCaptureConfirmed: true}
		applyLogged(p.machine, p.logger, subject, core.TransitionCapture)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to confirm capture: %w", err)
	}
	return nil
}

// ReversalConfirmationProcessor settles a reversal once the processor confirms it
type ReversalConfirmationProcessor struct {
	paymentRepo output.PaymentRepository
	machine     *core.StateMachine
	logger      *zap.Logger
}

// NewReversalConfirmationProcessor creates a new reversal confirmation processor
func NewReversalConfirmationProcessor(paymentRepo output.PaymentRepository, machine *core.StateMachine, logger *zap.Logger) *ReversalConfirmationProcessor {
	return &ReversalConfirmationProcessor{
		paymentRepo: paymentRepo,
		machine:     machine,
		logger:      logger,
	}
}

// Handle processes a CANCELLATION, CANCEL_OR_REFUND or REFUND notification for the payment.
// A refused reversal keeps the payment in processing_reversal.
func (p *ReversalConfirmationProcessor) Handle(ctx context.Context, paymentID uuid.UUID, item core.NotificationItem) error {
	if !item.Success {
		p.logger.Warn("processor refused reversal",
			zap.String("payment_id", paymentID.String()),
			zap.String("event_code", item.EventCode()),
			zap.String("psp_reference", item.PSPReference),
		)
		return nil
	}

	err := p.paymentRepo.WithPaymentLock(ctx, paymentID, func(order *core.Order, payment *core.Payment) error {
		applyLogged(p.machine, p.logger, core.Subject{Payment: payment, Order: order}, core.TransitionConfirmReversal)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to confirm reversal: %w", err)
	}
	return nil
}

// applyLogged applies a transition; an illegal one is skipped silently apart from a debug line
func applyLogged(machine *core.StateMachine, logger *zap.Logger, subject core.Subject, transition core.Transition) bool {
	from := subject.Payment.State()
	if !machine.Apply(subject, transition) {
		logger.Debug("transition skipped",
			zap.String("payment_id", subject.Payment.ID.String()),
			zap.String("transition", string(transition)),
			zap.String("state", string(from)),
		)
		return false
	}

	logger.Info("payment transitioned",
		zap.String("payment_id", subject.Payment.ID.String()),
		zap.String("transition", string(transition)),
		zap.String("from", string(from)),
		zap.String("to", string(subject.Payment.State())),
	)
	return true
}
