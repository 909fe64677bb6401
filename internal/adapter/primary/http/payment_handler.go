package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/port/input"
	"go.uber.org/zap"
)

// PaymentHandler is a primary adapter (HTTP handler)
type PaymentHandler struct {
	service input.ReconciliationService
	logger  *zap.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service input.ReconciliationService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the handler routes
func (h *PaymentHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/:code/notifications", h.ReceiveNotifications)

	api := e.Group("/api/v1")
	api.GET("/payments/:id", h.GetPayment)
	api.POST("/payments/:id/result", h.SubmitResult)
	api.POST("/payments/:id/capture", h.RequestCapture)
	api.POST("/orders/:id/cancel", h.CancelOrder)
	api.GET("/orders/:id/actions", h.OrderActions)
	api.POST("/refunds/:id/completed", h.RefundCompleted)
}

// notificationEnvelope is the batch the processor posts to the webhook
type notificationEnvelope struct {
	Live              string `json:"live"`
	NotificationItems []struct {
		Item map[string]any `json:"NotificationRequestItem"`
	} `json:"notificationItems"`
}

// PaymentResponse represents the HTTP response for a payment
type PaymentResponse struct {
	ID                 string `json:"id"`
	OrderID            string `json:"order_id"`
	Amount             int64  `json:"amount"`
	DisplayAmount      string `json:"display_amount"`
	Currency           string `json:"currency"`
	MerchantReference  string `json:"merchant_reference"`
	ProcessorReference string `json:"processor_reference,omitempty"`
	State              string `json:"state"`
	CaptureMode        string `json:"capture_mode"`
	CreatedAt          string `json:"created_at"`
}

// ResultResponse represents the classification of a submitted processor response
type ResultResponse struct {
	PaymentID string `json:"payment_id"`
	Result    string `json:"result"`
}

// OrderActionsResponse represents the order actions the guards currently allow
type OrderActionsResponse struct {
	OrderID     string `json:"order_id"`
	Cancellable bool   `json:"cancellable"`
	Refundable  bool   `json:"refundable"`
}

// ReceiveNotifications queues every item of a webhook batch and acknowledges it.
// The payment method code from the URL is added to each item.
func (h *PaymentHandler) ReceiveNotifications(c echo.Context) error {
	var envelope notificationEnvelope
	if err := c.Bind(&envelope); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid notification body",
		})
	}

	code := c.Param("code")
	ctx := c.Request().Context()
	for _, wrapper := range envelope.NotificationItems {
		if wrapper.Item == nil {
			continue
		}
		wrapper.Item["paymentCode"] = code
		if err := h.service.AcceptNotification(ctx, wrapper.Item); err != nil {
			h.logger.Error("failed to accept notification", zap.String("payment_code", code), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Failed to accept notification",
			})
		}
	}

	return c.String(http.StatusOK, "[accepted]")
}

// SubmitResult handles the processor response returned after a redirect or checkout completion
func (h *PaymentHandler) SubmitResult(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid payment ID",
		})
	}

	var resp core.APIResponse
	if err := c.Bind(&resp); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.HandleAPIResponse(c.Request().Context(), id, resp)
	if err != nil {
		return h.fail(c, err, "Failed to process payment result")
	}

	return c.JSON(http.StatusOK, ResultResponse{
		PaymentID: id.String(),
		Result:    string(result),
	})
}

// GetPayment handles payment retrieval by ID
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid payment ID",
		})
	}

	response, err := h.service.GetPayment(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve payment")
	}

	return c.JSON(http.StatusOK, PaymentResponse{
		ID:                 response.ID.String(),
		OrderID:            response.OrderID.String(),
		Amount:             response.Amount,
		DisplayAmount:      formatAmount(response.Amount, response.Currency),
		Currency:           response.Currency,
		MerchantReference:  response.MerchantReference,
		ProcessorReference: response.ProcessorReference,
		State:              string(response.State),
		CaptureMode:        string(response.CaptureMode),
		CreatedAt:          response.CreatedAt.Format(time.RFC3339),
	})
}

// RequestCapture handles a manual capture request
func (h *PaymentHandler) RequestCapture(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid payment ID",
		})
	}

	if err := h.service.RequestCapture(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "Failed to request capture")
	}
	return c.NoContent(http.StatusAccepted)
}

// CancelOrder handles an order cancellation
func (h *PaymentHandler) CancelOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid order ID",
		})
	}

	if err := h.service.CancelOrder(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "Failed to cancel order")
	}
	return c.NoContent(http.StatusNoContent)
}

// OrderActions reports the order actions currently permitted
func (h *PaymentHandler) OrderActions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid order ID",
		})
	}

	actions, err := h.service.OrderActions(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err, "Failed to load order actions")
	}

	return c.JSON(http.StatusOK, OrderActionsResponse{
		OrderID:     actions.OrderID.String(),
		Cancellable: actions.Cancellable,
		Refundable:  actions.Refundable,
	})
}

// RefundCompleted queues a completed refund record for reconciliation
func (h *PaymentHandler) RefundCompleted(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid refund ID",
		})
	}

	if err := h.service.AcceptRefundCompletion(c.Request().Context(), id); err != nil {
		return h.fail(c, err, "Failed to accept refund")
	}
	return c.NoContent(http.StatusAccepted)
}

// fail maps service errors to HTTP responses
func (h *PaymentHandler) fail(c echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, core.ErrPaymentNotFound),
		errors.Is(err, core.ErrOrderNotFound),
		errors.Is(err, core.ErrRefundNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": err.Error(),
		})
	case errors.Is(err, core.ErrActionRejected):
		return c.JSON(http.StatusConflict, map[string]string{
			"error": err.Error(),
		})
	case errors.Is(err, core.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	h.logger.Error(message, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": message,
	})
}
