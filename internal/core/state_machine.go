package core

// Transition names an edge of the payment graph
type Transition string

const (
	TransitionProcess         Transition = "process"
	TransitionAuthorize       Transition = "authorize"
	TransitionCapture         Transition = "capture"
	TransitionReverse         Transition = "reverse"
	TransitionConfirmReversal Transition = "confirm_reversal"
	TransitionRefund          Transition = "refund"
	TransitionCancel          Transition = "cancel"
	TransitionFail            Transition = "fail"
)

// Subject is everything a guard may look at for one transition attempt.
// Order and Refund are only set by the callers whose guards read them.
type Subject struct {
	Payment *Payment
	Order   *Order
	Refund  *RefundPayment

	// ManualCaptureConfirmed is set when the processor confirmed a requested manual capture
	ManualCaptureConfirmed bool
	// OrderCancelRequested is set when the order itself is being cancelled
	OrderCancelRequested bool
}

type guard func(m *StateMachine, s Subject) bool

type edge struct {
	from  []PaymentState
	to    PaymentState
	guard guard
}

// StateMachine applies guarded transitions to payments of one gateway.
// It performs no locking: Can and Apply must run inside the caller's lock scope.
type StateMachine struct {
	gateway string
	edges   map[Transition]edge
}

// NewStateMachine creates the payment graph for the given gateway name
func NewStateMachine(gateway string) *StateMachine {
	return &StateMachine{
		gateway: gateway,
		edges: map[Transition]edge{
			TransitionProcess: {
				from:  []PaymentState{PaymentStateNew},
				to:    PaymentStateProcessing,
				guard: (*StateMachine).ownsPayment,
			},
			TransitionAuthorize: {
				from: []PaymentState{PaymentStateProcessing},
				to:   PaymentStateAuthorized,
				guard: func(m *StateMachine, s Subject) bool {
					return m.ownsPayment(s) && s.Payment.CaptureMode() == CaptureModeManual
				},
			},
			TransitionCapture: {
				from: []PaymentState{PaymentStateProcessing, PaymentStateAuthorized},
				to:   PaymentStateCompleted,
				guard: func(_ *StateMachine, s Subject) bool {
					if s.Payment.CaptureMode() != CaptureModeManual {
						return true
					}
					return s.ManualCaptureConfirmed && s.Payment.State() == PaymentStateAuthorized
				},
			},
			TransitionReverse: {
				from:  []PaymentState{PaymentStateAuthorized, PaymentStateCompleted},
				to:    PaymentStateProcessingReversal,
				guard: (*StateMachine).ownsPayment,
			},
			TransitionConfirmReversal: {
				from:  []PaymentState{PaymentStateProcessingReversal},
				to:    PaymentStateCancelled,
				guard: (*StateMachine).ownsPayment,
			},
			TransitionRefund: {
				from: []PaymentState{PaymentStateCompleted},
				to:   PaymentStateRefunded,
				guard: func(_ *StateMachine, s Subject) bool {
					return s.Refund != nil &&
						s.Refund.State == RefundStateCompleted &&
						s.Refund.Amount.Equal(s.Payment.Amount)
				},
			},
			TransitionCancel: {
				from: []PaymentState{
					PaymentStateNew,
					PaymentStateCart,
					PaymentStateProcessing,
					PaymentStateAuthorized,
				},
				to: PaymentStateCancelled,
				guard: func(m *StateMachine, s Subject) bool {
					if !s.OrderCancelRequested || !m.CanCancelPayment(s.Payment) {
						return false
					}
					return s.Order == nil || m.CanBeCancelled(s.Order)
				},
			},
			TransitionFail: {
				from: []PaymentState{PaymentStateNew, PaymentStateProcessing},
				to:   PaymentStateFailed,
			},
		},
	}
}

// Gateway returns the gateway name payments must belong to
func (m *StateMachine) Gateway() string {
	return m.gateway
}

// Can reports whether the transition is legal for the subject's payment
func (m *StateMachine) Can(s Subject, t Transition) bool {
	if s.Payment == nil {
		return false
	}
	e, ok := m.edges[t]
	if !ok || !e.allows(s.Payment.State()) {
		return false
	}
	return e.guard == nil || e.guard(m, s)
}

// Apply moves the payment along the transition and reports whether it did.
// An illegal transition leaves the payment untouched.
func (m *StateMachine) Apply(s Subject, t Transition) bool {
	if !m.Can(s, t) {
		return false
	}
	s.Payment.state = m.edges[t].to
	return true
}

// CanBeCancelled blocks order cancellation while a manual capture is still in flight
func (m *StateMachine) CanBeCancelled(o *Order) bool {
	p := o.LastPayment()
	if p == nil || !p.BelongsTo(m.gateway) {
		return true
	}
	return !(p.CaptureMode() == CaptureModeManual && p.State() == PaymentStateProcessing)
}

// CanCancelPayment permits cancelling a payment of this gateway that is not already being reversed
func (m *StateMachine) CanCancelPayment(p *Payment) bool {
	return p != nil && p.BelongsTo(m.gateway) && p.State() != PaymentStateProcessingReversal
}

// IsRefundAvailable hides the generic refund action for automatic payments the processor already settled or reverses
func (m *StateMachine) IsRefundAvailable(o *Order) bool {
	p := o.LastPayment()
	if p == nil || !p.BelongsTo(m.gateway) || p.CaptureMode() != CaptureModeAutomatic {
		return true
	}
	switch p.State() {
	case PaymentStateProcessingReversal, PaymentStateCompleted, PaymentStateCancelled, PaymentStateRefunded:
		return false
	}
	return true
}

// CheckManualCapture returns ErrActionRejected when a manual capture may not be requested
func (m *StateMachine) CheckManualCapture(p *Payment) error {
	switch {
	case !p.BelongsTo(m.gateway):
		return rejected("payment does not belong to gateway " + m.gateway)
	case p.CaptureMode() == CaptureModeAutomatic:
		return rejected("manual capture is not allowed with automatic capture mode")
	case p.State() != PaymentStateAuthorized:
		return rejected("payment must be authorized, current state is " + string(p.State()))
	}
	return nil
}

func (m *StateMachine) ownsPayment(s Subject) bool {
	return s.Payment.BelongsTo(m.gateway)
}

func (e edge) allows(state PaymentState) bool {
	for _, s := range e.from {
		if s == state {
			return true
		}
	}
	return false
}
