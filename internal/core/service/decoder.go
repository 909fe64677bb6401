package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/cashflow/payment-reconciliation/internal/core"
)

// NotificationDecoder normalizes a payload into a NotificationItem.
// It returns core.ErrUnrecognizedPayload when the payload is not its shape.
type NotificationDecoder interface {
	Decode(payload core.Payload) (core.Decoded[core.NotificationItem], error)
}

// DecoderChain tries each decoder in order until one recognizes the payload
type DecoderChain []NotificationDecoder

// Decode implements NotificationDecoder
func (c DecoderChain) Decode(payload core.Payload) (core.Decoded[core.NotificationItem], error) {
	for _, d := range c {
		decoded, err := d.Decode(payload)
		if errors.Is(err, core.ErrUnrecognizedPayload) {
			continue
		}
		return decoded, err
	}
	return core.Decoded[core.NotificationItem]{}, core.ErrUnrecognizedPayload
}

// ItemDecoder decodes a single processor notification item
type ItemDecoder struct{}

// Decode implements NotificationDecoder. Already decoded payloads pass through unchanged.
func (ItemDecoder) Decode(payload core.Payload) (core.Decoded[core.NotificationItem], error) {
	switch p := payload.(type) {
	case core.Decoded[core.NotificationItem]:
		return p, nil
	case core.Raw[map[string]any]:
		return decodeItem(p.Data)
	}
	return core.Decoded[core.NotificationItem]{}, core.ErrUnrecognizedPayload
}

func decodeItem(data map[string]any) (core.Decoded[core.NotificationItem], error) {
	eventCode, ok := data["eventCode"].(string)
	if !ok {
		return core.Decoded[core.NotificationItem]{}, core.ErrUnrecognizedPayload
	}
	paymentCode, ok := data["paymentCode"].(string)
	if !ok {
		return core.Decoded[core.NotificationItem]{}, core.ErrUnrecognizedPayload
	}

	item := core.NewNotificationItem(eventCode, toBool(data["success"]))
	item.PaymentCode = paymentCode
	item.MerchantReference = stringField(data, "merchantReference")
	item.PSPReference = stringField(data, "pspReference")
	item.OriginalReference = stringField(data, "originalReference")

	if raw, ok := data["amount"].(map[string]any); ok {
		amount, err := decodeAmount(raw)
		if err != nil {
			return core.Decoded[core.NotificationItem]{}, err
		}
		item.Amount = &amount
	}

	return core.Decoded[core.NotificationItem]{Value: item}, nil
}

func decodeAmount(raw map[string]any) (core.Amount, error) {
	currency, _ := raw["currency"].(string)

	var value int64
	switch v := raw["value"].(type) {
	case int:
		value = int64(v)
	case int64:
		value = v
	case float64:
		if v != math.Trunc(v) {
			return core.Amount{}, fmt.Errorf("%w: amount value %v is not in minor units", core.ErrInvalidArgument, v)
		}
		if v < -(1<<63) || v >= 1<<63 {
			return core.Amount{}, fmt.Errorf("%w: amount value %v is out of range", core.ErrInvalidArgument, v)
		}
		value = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return core.Amount{}, fmt.Errorf("%w: amount value %q: %v", core.ErrInvalidArgument, v, err)
		}
		value = n
	case nil:
	default:
		return core.Amount{}, fmt.Errorf("%w: amount value of type %T", core.ErrInvalidArgument, v)
	}

	return core.NewAmount(value, currency)
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
