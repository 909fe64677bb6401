package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/constant/model/db"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/port/output"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository is a secondary adapter that implements PaymentRepository output port
type GormPaymentRepository struct {
	gormDB *gorm.DB
}

// NewGormPaymentRepository creates a new GORM payment repository
func NewGormPaymentRepository(gormDB *gorm.DB) output.PaymentRepository {
	return &GormPaymentRepository{gormDB: gormDB}
}

// toCoreMethod converts db.PaymentMethod to core.PaymentMethod
func toCoreMethod(m *db.PaymentMethod) *core.PaymentMethod {
	if m == nil {
		return nil
	}
	return &core.PaymentMethod{
		ID:          m.ID,
		Code:        m.Code,
		GatewayName: m.GatewayName,
		CaptureMode: core.CaptureMode(m.CaptureMode),
	}
}

// toCorePayment converts db.Payment to core.Payment
func toCorePayment(p *db.Payment, method *db.PaymentMethod) *core.Payment {
	return core.RestorePayment(core.Payment{
		ID:                 p.ID,
		OrderID:            p.OrderID,
		Method:             toCoreMethod(method),
		Amount:             core.Amount{Value: p.Amount, Currency: p.Currency},
		MerchantReference:  p.MerchantReference,
		ProcessorReference: p.ProcessorReference,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}, core.PaymentState(p.State))
}

// GetPayment retrieves a payment by its ID
func (r *GormPaymentRepository) GetPayment(ctx context.Context, id uuid.UUID) (*core.Payment, error) {
	return findPayment(r.gormDB.WithContext(ctx), "id = ?", id)
}

// FindPaymentByMerchantReference retrieves a payment by the reference sent to the processor
func (r *GormPaymentRepository) FindPaymentByMerchantReference(ctx context.Context, reference string) (*core.Payment, error) {
	return findPayment(r.gormDB.WithContext(ctx), "merchant_reference = ?", reference)
}

func findPayment(tx *gorm.DB, condition string, value any) (*core.Payment, error) {
	var dbPayment db.Payment
	if err := tx.Where(condition, value).First(&dbPayment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	methods, err := loadMethods(tx, dbPayment.MethodID)
	if err != nil {
		return nil, err
	}
	return toCorePayment(&dbPayment, lookupMethod(methods, dbPayment.MethodID)), nil
}

// GetOrder retrieves an order with its payments
func (r *GormPaymentRepository) GetOrder(ctx context.Context, id uuid.UUID) (*core.Order, error) {
	return loadOrder(r.gormDB.WithContext(ctx), id, false)
}

// GetRefund retrieves a refund record with its payment method
func (r *GormPaymentRepository) GetRefund(ctx context.Context, id uuid.UUID) (*core.RefundPayment, error) {
	tx := r.gormDB.WithContext(ctx)

	var dbRefund db.RefundPayment
	if err := tx.Where("id = ?", id).First(&dbRefund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}

	methods, err := loadMethods(tx, &dbRefund.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	return &core.RefundPayment{
		ID:        dbRefund.ID,
		OrderID:   dbRefund.OrderID,
		Method:    toCoreMethod(lookupMethod(methods, &dbRefund.PaymentMethodID)),
		Amount:    core.Amount{Value: dbRefund.Amount, Currency: dbRefund.Currency},
		State:     core.RefundState(dbRefund.State),
		CreatedAt: dbRefund.CreatedAt,
	}, nil
}

// WithPaymentLock locks the payment's order and payment rows using SELECT FOR UPDATE,
// runs fn and writes back the resulting states
func (r *GormPaymentRepository) WithPaymentLock(ctx context.Context, paymentID uuid.UUID, fn func(*core.Order, *core.Payment) error) error {
	var orderIDs []uuid.UUID
	if err := r.gormDB.WithContext(ctx).Model(&db.Payment{}).
		Where("id = ?", paymentID).
		Pluck("order_id", &orderIDs).Error; err != nil {
		return fmt.Errorf("failed to resolve payment order: %w", err)
	}
	if len(orderIDs) == 0 {
		return core.ErrPaymentNotFound
	}

	return r.withLockedOrder(ctx, orderIDs[0], func(order *core.Order) error {
		payment := order.Payment(paymentID)
		if payment == nil {
			return core.ErrPaymentNotFound
		}
		return fn(order, payment)
	})
}

// WithOrderLock locks the order and its payment rows using SELECT FOR UPDATE
func (r *GormPaymentRepository) WithOrderLock(ctx context.Context, orderID uuid.UUID, fn func(*core.Order) error) error {
	return r.withLockedOrder(ctx, orderID, fn)
}

// withLockedOrder always locks the order row before payment rows so both lock scopes acquire in the same order
func (r *GormPaymentRepository) withLockedOrder(ctx context.Context, orderID uuid.UUID, fn func(*core.Order) error) error {
	return r.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(tx, orderID, true)
		if err != nil {
			return err
		}

		if err := fn(order); err != nil {
			return err
		}

		return saveOrder(tx, order)
	})
}

// ProcessNotificationOnce holds a transaction-scoped advisory lock on the key while it checks the
// ledger, runs fn and records the key. fn runs its own lock scopes on other connections.
func (r *GormPaymentRepository) ProcessNotificationOnce(ctx context.Context, key string, fn func() error) (bool, error) {
	duplicate := false
	err := r.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
			return fmt.Errorf("failed to lock notification key: %w", err)
		}

		var count int64
		if err := tx.Model(&db.ProcessedNotification{}).
			Where("notification_key = ?", key).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check notification: %w", err)
		}
		if count > 0 {
			duplicate = true
			return nil
		}

		if err := fn(); err != nil {
			return err
		}

		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&db.ProcessedNotification{Key: key, CreatedAt: time.Now()}).Error
		if err != nil {
			return fmt.Errorf("failed to record notification: %w", err)
		}
		return nil
	})
	return duplicate, err
}

func loadOrder(tx *gorm.DB, orderID uuid.UUID, lock bool) (*core.Order, error) {
	query := func() *gorm.DB {
		if lock {
			return tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		return tx
	}

	var dbOrder db.Order
	if err := query().Where("id = ?", orderID).First(&dbOrder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	var dbPayments []db.Payment
	if err := query().Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&dbPayments).Error; err != nil {
		return nil, fmt.Errorf("failed to get order payments: %w", err)
	}

	methodIDs := make([]*uuid.UUID, 0, len(dbPayments))
	for i := range dbPayments {
		methodIDs = append(methodIDs, dbPayments[i].MethodID)
	}
	methods, err := loadMethods(tx, methodIDs...)
	if err != nil {
		return nil, err
	}

	order := &core.Order{
		ID:            dbOrder.ID,
		Number:        dbOrder.Number,
		State:         core.OrderState(dbOrder.State),
		CheckoutState: core.CheckoutState(dbOrder.CheckoutState),
		CreatedAt:     dbOrder.CreatedAt,
		UpdatedAt:     dbOrder.UpdatedAt,
	}
	for i := range dbPayments {
		order.Payments = append(order.Payments, toCorePayment(&dbPayments[i], lookupMethod(methods, dbPayments[i].MethodID)))
	}
	return order, nil
}

func saveOrder(tx *gorm.DB, order *core.Order) error {
	now := time.Now()

	if err := tx.Model(&db.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"state":          string(order.State),
		"checkout_state": string(order.CheckoutState),
		"updated_at":     now,
	}).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	for _, p := range order.Payments {
		if err := tx.Model(&db.Payment{}).Where("id = ?", p.ID).Updates(map[string]any{
			"state":               string(p.State()),
			"processor_reference": p.ProcessorReference,
			"updated_at":          now,
		}).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
	}
	return nil
}

func loadMethods(tx *gorm.DB, ids ...*uuid.UUID) (map[uuid.UUID]*db.PaymentMethod, error) {
	wanted := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != nil {
			wanted = append(wanted, *id)
		}
	}

	methods := make(map[uuid.UUID]*db.PaymentMethod, len(wanted))
	if len(wanted) == 0 {
		return methods, nil
	}

	var dbMethods []db.PaymentMethod
	if err := tx.Where("id IN ?", wanted).Find(&dbMethods).Error; err != nil {
		return nil, fmt.Errorf("failed to get payment methods: %w", err)
	}
	for i := range dbMethods {
		methods[dbMethods[i].ID] = &dbMethods[i]
	}
	return methods, nil
}

func lookupMethod(methods map[uuid.UUID]*db.PaymentMethod, id *uuid.UUID) *db.PaymentMethod {
	if id == nil {
		return nil
	}
	return methods[*id]
}
