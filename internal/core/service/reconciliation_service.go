package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/port/input"
	"github.com/cashflow/payment-reconciliation/internal/port/output"
	"go.uber.org/zap"
)

// ReconciliationServiceImpl implements the ReconciliationService input port
type ReconciliationServiceImpl struct {
	paymentRepo output.PaymentRepository
	paymentMsg  output.PaymentMessaging
	machine     *core.StateMachine
	logger      *zap.Logger

	decoder                NotificationDecoder
	apiClassifier          ResultClassifier[core.APIResponse]
	notificationClassifier ResultClassifier[core.NotificationItem]
	dispatcher             *ResultDispatcher
	captures               *CaptureConfirmationProcessor
	reversals              *ReversalConfirmationProcessor
	refunds                *RefundReconciliator
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	paymentRepo output.PaymentRepository,
	paymentMsg output.PaymentMessaging,
	events output.EventPublisher,
	machine *core.StateMachine,
	logger *zap.Logger,
) input.ReconciliationService {
	return &ReconciliationServiceImpl{
		paymentRepo:            paymentRepo,
		paymentMsg:             paymentMsg,
		machine:                machine,
		logger:                 logger,
		decoder:                DecoderChain{ItemDecoder{}},
		apiClassifier:          APIResponseClassifier{},
		notificationClassifier: NotificationClassifier{},
		dispatcher:             NewResultDispatcher(events),
		captures:               NewCaptureConfirmationProcessor(paymentRepo, machine, logger),
		reversals:              NewReversalConfirmationProcessor(paymentRepo, machine, logger),
		refunds:                NewRefundReconciliator(machine, logger),
	}
}

// AcceptNotification queues a raw webhook item for the worker
func (s *ReconciliationServiceImpl) AcceptNotification(ctx context.Context, item map[string]any) error {
	if err := s.paymentMsg.PublishNotification(ctx, item); err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}
	return nil
}

// HandleNotification decodes, classifies and dispatches one webhook item
func (s *ReconciliationServiceImpl) HandleNotification(ctx context.Context, payload core.Payload) error {
	decoded, err := s.decoder.Decode(payload)
	if err != nil {
		return fmt.Errorf("failed to decode notification: %w", err)
	}
	item := decoded.Value

	key := item.IdempotencyKey()
	duplicate, err := s.paymentRepo.ProcessNotificationOnce(ctx, key, func() error {
		return s.reconcileNotification(ctx, item)
	})
	if err != nil {
		return err
	}
	if duplicate {
		s.logger.Debug("notification already processed", zap.String("key", key))
	}
	return nil
}

func (s *ReconciliationServiceImpl) reconcileNotification(ctx context.Context, item core.NotificationItem) error {
	payment, err := s.paymentRepo.FindPaymentByMerchantReference(ctx, item.MerchantReference)
	if err != nil {
		return fmt.Errorf("failed to resolve notification payment: %w", err)
	}
	if payment.Method != nil && payment.Method.Code != item.PaymentCode {
		s.logger.Warn("notification payment method does not match payment",
			zap.String("payment_id", payment.ID.String()),
			zap.String("payment_code", item.PaymentCode),
		)
		return nil
	}

	logger := s.logger.With(
		zap.String("payment_id", payment.ID.String()),
		zap.String("event_code", item.EventCode()),
		zap.Bool("success", item.Success),
	)
	logger.Info("processing notification")

	reference := item.OriginalReference
	if item.EventCode() == core.EventCodeAuthorisation {
		reference = item.PSPReference
	}
	if err := s.prepare(ctx, payment.ID, reference); err != nil {
		return err
	}

	switch item.EventCode() {
	case core.EventCodeCapture:
		if err := s.captures.Handle(ctx, payment.ID, item); err != nil {
			return err
		}
	case core.EventCodeCancellation, core.EventCodeCancelOrRefund, core.EventCodeRefund:
		if err := s.reversals.Handle(ctx, payment.ID, item); err != nil {
			return err
		}
	}

	result := s.notificationClassifier.Classify(payment.ID, item)
	if err := s.dispatcher.Dispatch(ctx, result); err != nil {
		return fmt.Errorf("failed to dispatch %s result: %w", result.Type, err)
	}
	return nil
}

// HandleAPIResponse classifies and dispatches the synchronous response of a payment
func (s *ReconciliationServiceImpl) HandleAPIResponse(ctx context.Context, paymentID uuid.UUID, resp core.APIResponse) (core.ResultType, error) {
	if err := s.prepare(ctx, paymentID, resp.PSPReference); err != nil {
		return "", err
	}

	result := s.apiClassifier.Classify(paymentID, resp)
	s.logger.Info("classified api response",
		zap.String("payment_id", paymentID.String()),
		zap.String("result_code", resp.ResultCode),
		zap.String("result", string(result.Type)),
	)

	if err := s.dispatcher.Dispatch(ctx, result); err != nil {
		return "", fmt.Errorf("failed to dispatch %s result: %w", result.Type, err)
	}
	return result.Type, nil
}

// prepare records the processor reference and moves a new payment into processing
func (s *ReconciliationServiceImpl) prepare(ctx context.Context, paymentID uuid.UUID, reference string) error {
	err := s.paymentRepo.WithPaymentLock(ctx, paymentID, func(order *core.Order, payment *core.Payment) error {
		payment.AssignProcessorReference(reference)
		applyLogged(s.machine, s.logger, core.Subject{Payment: payment, Order: order}, core.TransitionProcess)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to prepare payment: %w", err)
	}
	return nil
}

// RequestCapture validates a manual capture and sends the capture command
func (s *ReconciliationServiceImpl) RequestCapture(ctx context.Context, paymentID uuid.UUID) error {
	var req core.CaptureRequest
	err := s.paymentRepo.WithPaymentLock(ctx, paymentID, func(_ *core.Order, payment *core.Payment) error {
		if err := s.machine.CheckManualCapture(payment); err != nil {
			return err
		}
		req = core.CaptureRequest{
			PaymentID:          payment.ID,
			ProcessorReference: payment.ProcessorReference,
			MerchantReference:  payment.MerchantReference,
			Amount:             payment.Amount.Value,
			Currency:           payment.Amount.Currency,
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to request capture: %w", err)
	}

	if err := s.paymentMsg.PublishCaptureRequest(ctx, req); err != nil {
		return fmt.Errorf("failed to publish capture request: %w", err)
	}

	s.logger.Info("capture requested", zap.String("payment_id", paymentID.String()))
	return nil
}

// CancelOrder cancels the order. An authorized or completed payment of this gateway is reversed
// at the processor and gets cancelled once the processor confirms.
// Payments of other gateways are left to their own gateway.
func (s *ReconciliationServiceImpl) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	var reversal *core.ReversalRequest
	err := s.paymentRepo.WithOrderLock(ctx, orderID, func(order *core.Order) error {
		if order.State == core.OrderStateCancelled {
			return nil
		}
		if !s.machine.CanBeCancelled(order) {
			return fmt.Errorf("%w: capture of the order payment is still pending", core.ErrActionRejected)
		}

		if payment := order.LastPayment(); payment != nil && payment.BelongsTo(s.machine.Gateway()) {
			if !s.machine.CanCancelPayment(payment) {
				return fmt.Errorf("%w: payment reversal already in progress", core.ErrActionRejected)
			}

			subject := core.Subject{Payment: payment, Order: order, OrderCancelRequested: true}
			if s.machine.Can(subject, core.TransitionReverse) {
				applyLogged(s.machine, s.logger, subject, core.TransitionReverse)
				reversal = &core.ReversalRequest{
					PaymentID:          payment.ID,
					ProcessorReference: payment.ProcessorReference,
					MerchantReference:  payment.MerchantReference,
				}
			} else {
				applyLogged(s.machine, s.logger, subject, core.TransitionCancel)
			}
		}

		order.State = core.OrderStateCancelled
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	if reversal != nil {
		if err := s.paymentMsg.PublishReversalRequest(ctx, *reversal); err != nil {
			return fmt.Errorf("failed to publish reversal request: %w", err)
		}
	}

	s.logger.Info("order cancelled", zap.String("order_id", orderID.String()))
	return nil
}

// OrderActions reports whether the order may be cancelled and refunded through the generic flows
func (s *ReconciliationServiceImpl) OrderActions(ctx context.Context, orderID uuid.UUID) (*input.OrderActionsResponse, error) {
	order, err := s.paymentRepo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &input.OrderActionsResponse{
		OrderID:     order.ID,
		Cancellable: order.State != core.OrderStateCancelled && s.machine.CanBeCancelled(order),
		Refundable:  s.machine.IsRefundAvailable(order),
	}, nil
}

// AcceptRefundCompletion queues a refund record for reconciliation
func (s *ReconciliationServiceImpl) AcceptRefundCompletion(ctx context.Context, refundID uuid.UUID) error {
	if err := s.paymentMsg.PublishRefundCompleted(ctx, refundID); err != nil {
		return fmt.Errorf("failed to queue refund: %w", err)
	}
	return nil
}

// ReconcileRefund applies a completed refund record to its order's payment
func (s *ReconciliationServiceImpl) ReconcileRefund(ctx context.Context, refundID uuid.UUID) error {
	refund, err := s.paymentRepo.GetRefund(ctx, refundID)
	if err != nil {
		return fmt.Errorf("failed to get refund: %w", err)
	}

	err = s.paymentRepo.WithOrderLock(ctx, refund.OrderID, func(order *core.Order) error {
		s.refunds.Reconcile(order, refund)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reconcile refund: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by ID
func (s *ReconciliationServiceImpl) GetPayment(ctx context.Context, id uuid.UUID) (*input.PaymentResponse, error) {
	payment, err := s.paymentRepo.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &input.PaymentResponse{
		ID:                 payment.ID,
		OrderID:            payment.OrderID,
		Amount:             payment.Amount.Value,
		Currency:           payment.Amount.Currency,
		MerchantReference:  payment.MerchantReference,
		ProcessorReference: payment.ProcessorReference,
		State:              payment.State(),
		CaptureMode:        payment.CaptureMode(),
		CreatedAt:          payment.CreatedAt,
	}, nil
}
