package core

import "strings"

// Processor event codes
const (
	EventCodeAuthorisation  = "AUTHORISATION"
	EventCodeCancellation   = "CANCELLATION"
	EventCodeCancelOrRefund = "CANCEL_OR_REFUND"
	EventCodeCapture        = "CAPTURE"
	EventCodeRefund         = "REFUND"
)

// Payload is either raw notification input or an already decoded item
type Payload interface {
	payload()
}

// Raw wraps input that has not been normalized yet
type Raw[T any] struct {
	Data T
}

// Decoded wraps a value that has already been normalized
type Decoded[T any] struct {
	Value T
}

func (Raw[T]) payload()     {}
func (Decoded[T]) payload() {}

// NotificationItem is a normalized processor notification
type NotificationItem struct {
	eventCode string

	Success           bool
	PaymentCode       string
	MerchantReference string
	PSPReference      string
	OriginalReference string
	Amount            *Amount
}

// NewNotificationItem builds an item; the event code is kept lower-cased
func NewNotificationItem(eventCode string, success bool) NotificationItem {
	return NotificationItem{eventCode: strings.ToLower(eventCode), Success: success}
}

// EventCode returns the upper-cased event code
func (n NotificationItem) EventCode() string {
	return strings.ToUpper(n.eventCode)
}

// IdempotencyKey identifies a delivery across redeliveries
func (n NotificationItem) IdempotencyKey() string {
	ref := n.PSPReference
	if ref == "" {
		ref = n.MerchantReference
	}
	success := "false"
	if n.Success {
		success = "true"
	}
	return ref + ":" + n.eventCode + ":" + success
}
