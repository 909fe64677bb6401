package core

import (
	"time"

	"github.com/google/uuid"
)

// OrderState is the order-level state
type OrderState string

const (
	OrderStateNew       OrderState = "new"
	OrderStateFulfilled OrderState = "fulfilled"
	OrderStateCancelled OrderState = "cancelled"
)

// CheckoutState tracks checkout progress of an order
type CheckoutState string

const (
	CheckoutStateCart      CheckoutState = "cart"
	CheckoutStateCompleted CheckoutState = "completed"
)

// Order holds its payments in creation order
type Order struct {
	ID            uuid.UUID
	Number        string
	State         OrderState
	CheckoutState CheckoutState
	Payments      []*Payment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LastPayment returns the most recent payment, restricted to the given states when any are passed
func (o *Order) LastPayment(states ...PaymentState) *Payment {
	for i := len(o.Payments) - 1; i >= 0; i-- {
		p := o.Payments[i]
		if len(states) == 0 {
			return p
		}
		for _, s := range states {
			if p.State() == s {
				return p
			}
		}
	}
	return nil
}

// Payment finds a payment of the order by ID
func (o *Order) Payment(id uuid.UUID) *Payment {
	for _, p := range o.Payments {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RefundState is the state of an order-level refund record
type RefundState string

const (
	RefundStateNew       RefundState = "new"
	RefundStateCompleted RefundState = "completed"
	RefundStateCancelled RefundState = "cancelled"
)

// RefundPayment is a refund recorded against an order by the refund workflow
type RefundPayment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Method    *PaymentMethod
	Amount    Amount
	State     RefundState
	CreatedAt time.Time
}
