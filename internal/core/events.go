package core

import "github.com/google/uuid"

// Domain event names
const (
	EventPaymentAuthorised = "payment.authorised"
	EventPaymentFailed     = "payment.failed"
)

// Event is a domain event about one payment
type Event struct {
	Name      string
	PaymentID uuid.UUID
}

// CaptureRequest asks the processor client to capture an authorized payment
type CaptureRequest struct {
	PaymentID          uuid.UUID `json:"payment_id"`
	ProcessorReference string    `json:"processor_reference"`
	MerchantReference  string    `json:"merchant_reference"`
	Amount             int64     `json:"amount"`
	Currency           string    `json:"currency"`
}

// ReversalRequest asks the processor client to cancel or refund a payment
type ReversalRequest struct {
	PaymentID          uuid.UUID `json:"payment_id"`
	ProcessorReference string    `json:"processor_reference"`
	MerchantReference  string    `json:"merchant_reference"`
}
