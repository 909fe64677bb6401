package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/cashflow/payment-reconciliation/internal/port/output"
	"go.uber.org/zap"
)

const (
	ExchangeName = "payments"

	NotificationQueue      = "notification_processing"
	NotificationRoutingKey = "notification.received"

	RefundQueue      = "refund_reconciliation"
	RefundRoutingKey = "refund.completed"

	CommandQueue              = "processor_commands"
	CaptureRequestRoutingKey  = "payment.capture_requested"
	ReversalRequestRoutingKey = "payment.reversal_requested"

	PrefetchCount = 1 // Process one message at a time per worker
)

// NotificationMessage carries one raw webhook item to the worker
type NotificationMessage struct {
	Item       map[string]any `json:"item"`
	ReceivedAt time.Time      `json:"received_at"`
}

// RefundMessage announces a completed refund record
type RefundMessage struct {
	RefundID  uuid.UUID `json:"refund_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RabbitMQClient is a secondary adapter that implements PaymentMessaging output port
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

var bindings = []struct {
	queue      string
	routingKey string
}{
	{NotificationQueue, NotificationRoutingKey},
	{RefundQueue, RefundRoutingKey},
	{CommandQueue, CaptureRequestRoutingKey},
	{CommandQueue, ReversalRequestRoutingKey},
}

// NewRabbitMQClient creates a new RabbitMQ client (returns interface for ports)
func NewRabbitMQClient(amqpURL string, logger *zap.Logger) (output.PaymentMessaging, error) {
	return NewRabbitMQClientConcrete(amqpURL, logger)
}

// NewRabbitMQClientConcrete creates a new RabbitMQ client (returns concrete type for workers)
func NewRabbitMQClientConcrete(amqpURL string, logger *zap.Logger) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: channel,
		logger:  logger,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	declared := map[string]bool{}
	for _, b := range bindings {
		if !declared[b.queue] {
			_, err = channel.QueueDeclare(
				b.queue,
				true,  // durable
				false, // delete when unused
				false, // exclusive
				false, // no-wait
				nil,
			)
			if err != nil {
				return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
			}
			declared[b.queue] = true
		}

		if err := channel.QueueBind(b.queue, b.routingKey, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}

// PublishNotification queues a raw webhook item
func (c *RabbitMQClient) PublishNotification(ctx context.Context, item map[string]any) error {
	return c.publish(ctx, NotificationRoutingKey, NotificationMessage{Item: item, ReceivedAt: time.Now()})
}

// PublishRefundCompleted queues a refund for reconciliation
func (c *RabbitMQClient) PublishRefundCompleted(ctx context.Context, refundID uuid.UUID) error {
	return c.publish(ctx, RefundRoutingKey, RefundMessage{RefundID: refundID, Timestamp: time.Now()})
}

// PublishCaptureRequest sends a capture command to the processor client
func (c *RabbitMQClient) PublishCaptureRequest(ctx context.Context, req core.CaptureRequest) error {
	return c.publish(ctx, CaptureRequestRoutingKey, req)
}

// PublishReversalRequest sends a reversal command to the processor client
func (c *RabbitMQClient) PublishReversalRequest(ctx context.Context, req core.ReversalRequest) error {
	return c.publish(ctx, ReversalRequestRoutingKey, req)
}

func (c *RabbitMQClient) publish(ctx context.Context, routingKey string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = c.channel.PublishWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // Make message persistent
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("published message", zap.String("routing_key", routingKey))
	return nil
}

// ConsumeNotifications starts consuming webhook items
func (c *RabbitMQClient) ConsumeNotifications(handler func(NotificationMessage) error) error {
	return c.consume(NotificationQueue, func(body []byte) error {
		var msg NotificationMessage
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)
		}
		return handler(msg)
	})
}

// ConsumeRefunds starts consuming completed refunds
func (c *RabbitMQClient) ConsumeRefunds(handler func(RefundMessage) error) error {
	return c.consume(RefundQueue, func(body []byte) error {
		var msg RefundMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)
		}
		return handler(msg)
	})
}

func (c *RabbitMQClient) consume(queue string, handle func([]byte) error) error {
	// Set QoS to process one message at a time
	err := c.channel.Qos(
		PrefetchCount,
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue,
		"",    // consumer tag
		false, // auto-ack (we'll manually ack after processing)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("started consuming", zap.String("queue", queue))

	go func() {
		for msg := range msgs {
			if err := handle(msg.Body); err != nil {
				c.logger.Error("failed to process message", zap.String("queue", queue), zap.Error(err))
				// Redelivery cannot fix a terminal error, so drop the message
				if core.IsTerminalError(err) {
					msg.Ack(false)
				} else {
					msg.Nack(false, true)
				}
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}

// Close closes the RabbitMQ connection
func (c *RabbitMQClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
