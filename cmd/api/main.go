package main

import (
	"fmt"
	"log"

	"github.com/cashflow/payment-reconciliation/internal/adapter/primary/http"
	"github.com/cashflow/payment-reconciliation/internal/adapter/secondary/database"
	"github.com/cashflow/payment-reconciliation/internal/adapter/secondary/messaging"
	"github.com/cashflow/payment-reconciliation/internal/app"
	"github.com/cashflow/payment-reconciliation/internal/config"
	"github.com/cashflow/payment-reconciliation/internal/constant/model/db"
	"github.com/cashflow/payment-reconciliation/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
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

	// Initialize secondary adapter: Database
	dbConn, err := db.NewDB(cfg.DatabaseURL, cfg.Database)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbConn.Close()

	// Initialize secondary adapters: Repository and Messaging (implement output ports)
	paymentRepo := database.NewGormPaymentRepository(dbConn.DB)
	msgClient, err := messaging.NewRabbitMQClient(cfg.RabbitMQURL, zl)
	if err != nil {
		zl.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer msgClient.Close()

	// Initialize core service (implements input port)
	reconciliation := app.NewReconciliation(cfg.Gateway, paymentRepo, msgClient, zl)

	// Initialize primary adapter: HTTP handler (uses input port)
	paymentHandler := http.NewPaymentHandler(reconciliation, zl)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	paymentHandler.Register(e)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	zl.Info("Starting API server", zap.String("addr", addr), zap.String("gateway", cfg.Gateway))
	if err := e.Start(addr); err != nil {
		zl.Fatal("Failed to start server", zap.Error(err))
	}
}
