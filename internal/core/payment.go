package core

import (
	"time"

	"github.com/google/uuid"
)

// PaymentState represents the state of a payment
type PaymentState string

const (
	PaymentStateNew                PaymentState = "new"
	PaymentStateCart               PaymentState = "cart"
	PaymentStateProcessing         PaymentState = "processing"
	PaymentStateAuthorized         PaymentState = "authorized"
	PaymentStateProcessingReversal PaymentState = "processing_reversal"
	PaymentStateCompleted          PaymentState = "completed"
	PaymentStateCancelled          PaymentState = "cancelled"
	PaymentStateRefunded           PaymentState = "refunded"
	PaymentStateFailed             PaymentState = "failed"
)

// CaptureMode decides whether an authorization is captured automatically
type CaptureMode string

const (
	CaptureModeManual    CaptureMode = "manual"
	CaptureModeAutomatic CaptureMode = "automatic"
)

// PaymentMethod is the configured method a payment was made with
type PaymentMethod struct {
	ID          uuid.UUID
	Code        string
	GatewayName string
	CaptureMode CaptureMode
}

// Payment represents a payment domain entity.
// Its state can only change through a StateMachine.
type Payment struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	Method             *PaymentMethod
	Amount             Amount
	MerchantReference  string
	ProcessorReference string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	state PaymentState
}

// NewPayment creates a payment in the new state
func NewPayment(orderID uuid.UUID, method *PaymentMethod, amount Amount, merchantReference string) *Payment {
	return &Payment{
		ID:                uuid.New(),
		OrderID:           orderID,
		Method:            method,
		Amount:            amount,
		MerchantReference: merchantReference,
		state:             PaymentStateNew,
	}
}

// RestorePayment rebuilds a persisted payment together with its stored state
func RestorePayment(p Payment, state PaymentState) *Payment {
	p.state = state
	return &p
}

// State returns the current state
func (p *Payment) State() PaymentState {
	return p.state
}

// CaptureMode returns the capture mode of the payment method, defaulting to automatic
func (p *Payment) CaptureMode() CaptureMode {
	if p.Method == nil || p.Method.CaptureMode == "" {
		return CaptureModeAutomatic
	}
	return p.Method.CaptureMode
}

// BelongsTo reports whether the payment was made through the named gateway
func (p *Payment) BelongsTo(gateway string) bool {
	return p.Method != nil && p.Method.GatewayName == gateway
}

// AssignProcessorReference records the processor reference once; later values are ignored
func (p *Payment) AssignProcessorReference(ref string) bool {
	if ref == "" || p.ProcessorReference != "" {
		return false
	}
	p.ProcessorReference = ref
	return true
}

// IsTerminal checks if payment is in a terminal state
func (p *Payment) IsTerminal() bool {
	switch p.state {
	case PaymentStateRefunded, PaymentStateCancelled, PaymentStateFailed:
		return true
	}
	return false
}
