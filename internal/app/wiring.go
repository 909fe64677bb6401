package app

import (
	"github.com/cashflow/payment-reconciliation/internal/adapter/secondary/eventbus"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/core/service"
	"github.com/cashflow/payment-reconciliation/internal/port/input"
	"github.com/cashflow/payment-reconciliation/internal/port/output"
	"go.uber.org/zap"
)

// NewReconciliation wires the state machine, the domain event subscribers and the service.
// Both authorised subscribers check capture legality independently, in subscription order.
func NewReconciliation(
	gateway string,
	paymentRepo output.PaymentRepository,
	paymentMsg output.PaymentMessaging,
	logger *zap.Logger,
) input.ReconciliationService {
	machine := core.NewStateMachine(gateway)
	bus := eventbus.New(logger)

	authorization := service.NewAuthorizationStateProcessor(paymentRepo, machine, logger)
	completion := service.NewOrderCompletionProcessor(paymentRepo, machine, logger)
	failure := service.NewFailureProcessor(paymentRepo, machine, logger)

	bus.Subscribe(core.EventPaymentAuthorised, authorization.Handle)
	bus.Subscribe(core.EventPaymentAuthorised, completion.Handle)
	bus.Subscribe(core.EventPaymentFailed, failure.Handle)

	return service.NewReconciliationService(paymentRepo, paymentMsg, bus, machine, logger)
}
