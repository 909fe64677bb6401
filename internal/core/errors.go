package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for input outside the closed vocabularies
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrActionRejected is returned when a business action violates its guard
	ErrActionRejected = errors.New("action rejected")

	// ErrUnrecognizedPayload tells a decoder chain to try the next decoder
	ErrUnrecognizedPayload = errors.New("not a recognized notification shape")

	ErrPaymentNotFound = errors.New("payment not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrRefundNotFound  = errors.New("refund not found")
)

func rejected(reason string) error {
	return fmt.Errorf("%w: %s", ErrActionRejected, reason)
}

// IsTerminalError reports errors that a redelivery cannot fix
func IsTerminalError(err error) bool {
	return errors.Is(err, ErrUnrecognizedPayload) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrRefundNotFound)
}
