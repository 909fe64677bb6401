package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cashflow/payment-reconciliation/internal/adapter/secondary/database"
	"github.com/cashflow/payment-reconciliation/internal/adapter/secondary/messaging"
	"github.com/cashflow/payment-reconciliation/internal/app"
	"github.com/cashflow/payment-reconciliation/internal/config"
	"github.com/cashflow/payment-reconciliation/internal/constant/model/db"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize secondary adapter: Database
	dbConn, err := db.NewDB(cfg.DatabaseURL, cfg.Database)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbConn.Close()

	paymentRepo := database.NewGormPaymentRepository(dbConn.DB)

	// Initialize secondary adapter: Messaging (concrete type for worker)
	msgClient, err := messaging.NewRabbitMQClientConcrete(cfg.RabbitMQURL, zl)
	if err != nil {
		zl.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer msgClient.Close()

	reconciliation := app.NewReconciliation(cfg.Gateway, paymentRepo, msgClient, zl)

	err = msgClient.ConsumeNotifications(func(msg messaging.NotificationMessage) error {
		return reconciliation.HandleNotification(ctx, core.Raw[map[string]any]{Data: msg.Item})
	})
	if err != nil {
		zl.Fatal("Failed to start consuming notifications", zap.Error(err))
	}

	err = msgClient.ConsumeRefunds(func(msg messaging.RefundMessage) error {
		zl.Info("Reconciling refund", zap.String("refund_id", msg.RefundID.String()))
		return reconciliation.ReconcileRefund(ctx, msg.RefundID)
	})
	if err != nil {
		zl.Fatal("Failed to start consuming refunds", zap.Error(err))
	}

	zl.Info("Reconciliation worker started. Press CTRL+C to exit.")
	<-ctx.Done()
	zl.Info("Shutting down worker...")
}
