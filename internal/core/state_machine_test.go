package core

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGateway = "adyen"

func newTestPayment(t *testing.T, mode CaptureMode, state PaymentState) *Payment {
	t.Helper()
	amount, err := NewAmount(1000, "EUR")
	require.NoError(t, err)

	method := &PaymentMethod{ID: uuid.New(), Code: "adyen_card", GatewayName: testGateway, CaptureMode: mode}
	p := NewPayment(uuid.New(), method, amount, "R1")
	return RestorePayment(*p, state)
}

func TestStateMachine_FromNewOnlyProcessIsLegal(t *testing.T) {
	m := NewStateMachine(testGateway)
	p := newTestPayment(t, CaptureModeAutomatic, PaymentStateNew)
	s := Subject{Payment: p}

	assert.True(t, m.Can(s, TransitionProcess))
	for _, tr := range []Transition{TransitionAuthorize, TransitionCapture, TransitionReverse, TransitionConfirmReversal, TransitionRefund, TransitionCancel} {
		assert.False(t, m.Can(s, tr), "transition %s from new", tr)
	}

	assert.False(t, m.Apply(s, TransitionCapture))
	assert.Equal(t, PaymentStateNew, p.State())

	assert.True(t, m.Apply(s, TransitionProcess))
	assert.Equal(t, PaymentStateProcessing, p.State())
}

func TestStateMachine_ProcessRequiresOwnGateway(t *testing.T) {
	m := NewStateMachine("other")
	p := newTestPayment(t, CaptureModeAutomatic, PaymentStateNew)

	assert.False(t, m.Apply(Subject{Payment: p}, TransitionProcess))
	assert.Equal(t, PaymentStateNew, p.State())
}

func TestStateMachine_Capture(t *testing.T) {
	m := NewStateMachine(testGateway)

	tests := []struct {
		name      string
		mode      CaptureMode
		state     PaymentState
		confirmed bool
		want      bool
	}{
		{"automatic from processing", CaptureModeAutomatic, PaymentStateProcessing, false, true},
		{"automatic from authorized", CaptureModeAutomatic, PaymentStateAuthorized, false, true},
		{"manual from authorized without confirmation", CaptureModeManual, PaymentStateAuthorized, false, false},
		{"manual from authorized with confirmation", CaptureModeManual, PaymentStateAuthorized, true, true},
		{"manual from processing with confirmation", CaptureModeManual, PaymentStateProcessing, true, false},
		{"already completed", CaptureModeAutomatic, PaymentStateCompleted, false, false},
		{"from new", CaptureModeAutomatic, PaymentStateNew, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPayment(t, tt.mode, tt.state)
			s := Subject{Payment: p, ManualCaptureConfirmed: tt.confirmed}

			assert.Equal(t, tt.want, m.Apply(s, TransitionCapture))
			if tt.want {
				assert.Equal(t, PaymentStateCompleted, p.State())
			} else {
				assert.Equal(t, tt.state, p.State())
			}
		})
	}
}

func TestStateMachine_AuthorizeOnlyForManualCapture(t *testing.T) {
	m := NewStateMachine(testGateway)

	manual := newTestPayment(t, CaptureModeManual, PaymentStateProcessing)
	assert.True(t, m.Apply(Subject{Payment: manual}, TransitionAuthorize))
	assert.Equal(t, PaymentStateAuthorized, manual.State())

	automatic := newTestPayment(t, CaptureModeAutomatic, PaymentStateProcessing)
	assert.False(t, m.Apply(Subject{Payment: automatic}, TransitionAuthorize))
}

func TestStateMachine_ReverseNotTwice(t *testing.T) {
	m := NewStateMachine(testGateway)
	p := newTestPayment(t, CaptureModeAutomatic, PaymentStateCompleted)
	s := Subject{Payment: p}

	require.True(t, m.Apply(s, TransitionReverse))
	assert.Equal(t, PaymentStateProcessingReversal, p.State())
	assert.False(t, m.Can(s, TransitionReverse))
}

func TestStateMachine_Refund(t *testing.T) {
	m := NewStateMachine(testGateway)

	exact, _ := NewAmount(1000, "EUR")
	partial, _ := NewAmount(999, "EUR")

	tests := []struct {
		name   string
		refund *RefundPayment
		want   bool
	}{
		{"no refund", nil, false},
		{"refund not completed", &RefundPayment{Amount: exact, State: RefundStateNew}, false},
		{"partial refund", &RefundPayment{Amount: partial, State: RefundStateCompleted}, false},
		{"exact refund", &RefundPayment{Amount: exact, State: RefundStateCompleted}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPayment(t, CaptureModeAutomatic, PaymentStateCompleted)
			assert.Equal(t, tt.want, m.Apply(Subject{Payment: p, Refund: tt.refund}, TransitionRefund))
		})
	}
}

func TestStateMachine_CancelNeedsOrderCancellation(t *testing.T) {
	m := NewStateMachine(testGateway)

	p := newTestPayment(t, CaptureModeAutomatic, PaymentStateAuthorized)
	assert.False(t, m.Can(Subject{Payment: p}, TransitionCancel))
	assert.True(t, m.Apply(Subject{Payment: p, OrderCancelRequested: true}, TransitionCancel))
	assert.Equal(t, PaymentStateCancelled, p.State())

	// terminal states stay put
	for _, tr := range []Transition{TransitionProcess, TransitionCapture, TransitionReverse, TransitionFail} {
		assert.False(t, m.Can(Subject{Payment: p, OrderCancelRequested: true}, tr))
	}
}

func TestStateMachine_CancelOnlyOwnPaymentsNotUnderReversal(t *testing.T) {
	m := NewStateMachine(testGateway)

	reversing := newTestPayment(t, CaptureModeAutomatic, PaymentStateProcessingReversal)
	assert.False(t, m.Apply(Subject{Payment: reversing, OrderCancelRequested: true}, TransitionCancel))
	assert.Equal(t, PaymentStateProcessingReversal, reversing.State())

	foreign := newTestPayment(t, CaptureModeAutomatic, PaymentStateProcessing)
	assert.False(t, NewStateMachine("paypal").Apply(Subject{Payment: foreign, OrderCancelRequested: true}, TransitionCancel))
	assert.Equal(t, PaymentStateProcessing, foreign.State())
}

func TestStateMachine_ConfirmReversal(t *testing.T) {
	m := NewStateMachine(testGateway)

	for _, state := range []PaymentState{PaymentStateAuthorized, PaymentStateCompleted, PaymentStateProcessing} {
		p := newTestPayment(t, CaptureModeAutomatic, state)
		assert.False(t, m.Can(Subject{Payment: p}, TransitionConfirmReversal), "from %s", state)
	}

	p := newTestPayment(t, CaptureModeAutomatic, PaymentStateProcessingReversal)
	assert.False(t, NewStateMachine("paypal").Can(Subject{Payment: p}, TransitionConfirmReversal))
	assert.False(t, m.Apply(Subject{Payment: p}, TransitionFail))

	assert.True(t, m.Apply(Subject{Payment: p}, TransitionConfirmReversal))
	assert.Equal(t, PaymentStateCancelled, p.State())
}

func TestStateMachine_CancelBlockedWhileManualCaptureProcessing(t *testing.T) {
	m := NewStateMachine(testGateway)
	p := newTestPayment(t, CaptureModeManual, PaymentStateProcessing)
	order := &Order{ID: p.OrderID, Payments: []*Payment{p}}

	assert.False(t, m.Apply(Subject{Payment: p, Order: order, OrderCancelRequested: true}, TransitionCancel))
	assert.Equal(t, PaymentStateProcessing, p.State())
}

func TestStateMachine_CanBeCancelled(t *testing.T) {
	m := NewStateMachine(testGateway)

	processing := newTestPayment(t, CaptureModeManual, PaymentStateProcessing)
	assert.False(t, m.CanBeCancelled(&Order{Payments: []*Payment{processing}}))

	authorized := newTestPayment(t, CaptureModeManual, PaymentStateAuthorized)
	assert.True(t, m.CanBeCancelled(&Order{Payments: []*Payment{authorized}}))

	automatic := newTestPayment(t, CaptureModeAutomatic, PaymentStateProcessing)
	assert.True(t, m.CanBeCancelled(&Order{Payments: []*Payment{automatic}}))

	assert.True(t, m.CanBeCancelled(&Order{}))
	assert.True(t, NewStateMachine("other").CanBeCancelled(&Order{Payments: []*Payment{processing}}))
}

func TestStateMachine_CanCancelPayment(t *testing.T) {
	m := NewStateMachine(testGateway)

	assert.True(t, m.CanCancelPayment(newTestPayment(t, CaptureModeAutomatic, PaymentStateCompleted)))
	assert.False(t, m.CanCancelPayment(newTestPayment(t, CaptureModeAutomatic, PaymentStateProcessingReversal)))
	assert.False(t, NewStateMachine("other").CanCancelPayment(newTestPayment(t, CaptureModeAutomatic, PaymentStateCompleted)))
	assert.False(t, m.CanCancelPayment(nil))
}

func TestStateMachine_IsRefundAvailable(t *testing.T) {
	m := NewStateMachine(testGateway)

	hidden := []PaymentState{PaymentStateProcessingReversal, PaymentStateCompleted, PaymentStateCancelled, PaymentStateRefunded}
	for _, state := range hidden {
		order := &Order{Payments: []*Payment{newTestPayment(t, CaptureModeAutomatic, state)}}
		assert.False(t, m.IsRefundAvailable(order), "automatic payment in %s", state)
	}

	manual := &Order{Payments: []*Payment{newTestPayment(t, CaptureModeManual, PaymentStateCompleted)}}
	assert.True(t, m.IsRefundAvailable(manual))

	authorized := &Order{Payments: []*Payment{newTestPayment(t, CaptureModeAutomatic, PaymentStateAuthorized)}}
	assert.True(t, m.IsRefundAvailable(authorized))
}

func TestStateMachine_CheckManualCapture(t *testing.T) {
	m := NewStateMachine(testGateway)

	assert.NoError(t, m.CheckManualCapture(newTestPayment(t, CaptureModeManual, PaymentStateAuthorized)))

	rejectedCases := map[string]error{
		"automatic":      m.CheckManualCapture(newTestPayment(t, CaptureModeAutomatic, PaymentStateAuthorized)),
		"not authorized": m.CheckManualCapture(newTestPayment(t, CaptureModeManual, PaymentStateProcessing)),
		"other gateway":  NewStateMachine("other").CheckManualCapture(newTestPayment(t, CaptureModeManual, PaymentStateAuthorized)),
	}
	for name, err := range rejectedCases {
		assert.True(t, errors.Is(err, ErrActionRejected), name)
	}
}
