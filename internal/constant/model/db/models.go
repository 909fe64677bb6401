package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod represents a configured payment method in the database
type PaymentMethod struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Code        string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	GatewayName string    `gorm:"type:varchar(64);not null" json:"gateway_name"`
	CaptureMode string    `gorm:"type:varchar(16);not null;default:automatic" json:"capture_mode"`
}

// TableName specifies the table name for GORM
func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// Order represents an order entity in the database
type Order struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Number        string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"number"`
	State         string    `gorm:"type:varchar(20);not null" json:"state"`
	CheckoutState string    `gorm:"type:varchar(20);not null" json:"checkout_state"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// Payment represents a payment entity in the database
type Payment struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OrderID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	MethodID           *uuid.UUID `gorm:"type:uuid" json:"method_id"`
	Amount             int64      `gorm:"not null" json:"amount"`
	Currency           string     `gorm:"type:varchar(3);not null" json:"currency"`
	MerchantReference  string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"merchant_reference"`
	ProcessorReference string     `gorm:"type:varchar(255)" json:"processor_reference"`
	State              string     `gorm:"type:varchar(20);not null" json:"state"`
	CreatedAt          time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// RefundPayment represents a refund record written by the refund workflow
type RefundPayment struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	PaymentMethodID uuid.UUID `gorm:"type:uuid;not null" json:"payment_method_id"`
	Amount          int64     `gorm:"not null" json:"amount"`
	Currency        string    `gorm:"type:varchar(3);not null" json:"currency"`
	State           string    `gorm:"type:varchar(20);not null" json:"state"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for GORM
func (RefundPayment) TableName() string {
	return "refund_payments"
}

// ProcessedNotification is the ledger of notifications already applied
type ProcessedNotification struct {
	Key       string    `gorm:"column:notification_key;type:varchar(255);primary_key" json:"key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ProcessedNotification) TableName() string {
	return "processed_notifications"
}

// BeforeCreate is a GORM hook that runs before creating a record
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt, o.UpdatedAt = stamp(o.CreatedAt, o.UpdatedAt)
	return nil
}

// BeforeUpdate is a GORM hook that runs before updating a record
func (o *Order) BeforeUpdate(tx *gorm.DB) error {
	o.UpdatedAt = time.Now()
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a record
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt, p.UpdatedAt = stamp(p.CreatedAt, p.UpdatedAt)
	return nil
}

// BeforeUpdate is a GORM hook that runs before updating a record
func (p *Payment) BeforeUpdate(tx *gorm.DB) error {
	p.UpdatedAt = time.Now()
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a record
func (m *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a record
func (r *RefundPayment) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return nil
}

func stamp(created, updated time.Time) (time.Time, time.Time) {
	now := time.Now()
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}
	return created, updated
}
