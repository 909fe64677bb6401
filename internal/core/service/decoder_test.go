package service

import (
	"encoding/json"
	"testing"

	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawItem(fields map[string]any) core.Raw[map[string]any] {
	item := map[string]any{
		"eventCode":         "authorisation",
		"paymentCode":       "adyen_card",
		"success":           "true",
		"merchantReference": "R1",
		"pspReference":      "PSP1",
	}
	for k, v := range fields {
		item[k] = v
	}
	return core.Raw[map[string]any]{Data: item}
}

func TestItemDecoder_Normalizes(t *testing.T) {
	decoded, err := ItemDecoder{}.Decode(rawItem(map[string]any{
		"originalReference": "ORIG1",
		"amount":            map[string]any{"currency": "EUR", "value": float64(1000)},
	}))
	require.NoError(t, err)

	item := decoded.Value
	assert.Equal(t, core.EventCodeAuthorisation, item.EventCode())
	assert.True(t, item.Success)
	assert.Equal(t, "adyen_card", item.PaymentCode)
	assert.Equal(t, "R1", item.MerchantReference)
	assert.Equal(t, "PSP1", item.PSPReference)
	assert.Equal(t, "ORIG1", item.OriginalReference)
	require.NotNil(t, item.Amount)
	assert.Equal(t, core.Amount{Value: 1000, Currency: "EUR"}, *item.Amount)
}

func TestItemDecoder_SuccessFlag(t *testing.T) {
	tests := []struct {
		name    string
		success any
		want    bool
	}{
		{"string true", "true", true},
		{"string false", "false", false},
		{"capitalized string", "True", false},
		{"native true", true, true},
		{"native false", false, false},
		{"missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := ItemDecoder{}.Decode(rawItem(map[string]any{"success": tt.success}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded.Value.Success)
		})
	}
}

func TestItemDecoder_IsIdempotent(t *testing.T) {
	first, err := ItemDecoder{}.Decode(rawItem(map[string]any{
		"amount": map[string]any{"currency": "EUR", "value": json.Number("1000")},
	}))
	require.NoError(t, err)

	second, err := ItemDecoder{}.Decode(first)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, second.Value.Success)
	assert.Equal(t, core.EventCodeAuthorisation, second.Value.EventCode())
}

func TestItemDecoder_UnrecognizedShape(t *testing.T) {
	for _, missing := range []string{"eventCode", "paymentCode"} {
		raw := rawItem(nil)
		delete(raw.Data, missing)

		_, err := ItemDecoder{}.Decode(raw)
		assert.ErrorIs(t, err, core.ErrUnrecognizedPayload, missing)
	}

	_, err := ItemDecoder{}.Decode(core.Raw[string]{Data: "not a map"})
	assert.ErrorIs(t, err, core.ErrUnrecognizedPayload)
}

func TestItemDecoder_UnknownEventCodeDecodes(t *testing.T) {
	decoded, err := ItemDecoder{}.Decode(rawItem(map[string]any{"eventCode": "offer_closed"}))
	require.NoError(t, err)
	assert.Equal(t, "OFFER_CLOSED", decoded.Value.EventCode())
}

func TestItemDecoder_InvalidAmount(t *testing.T) {
	for name, amount := range map[string]map[string]any{
		"lowercase currency": {"currency": "eur", "value": float64(1000)},
		"fractional value":   {"currency": "EUR", "value": 10.5},
		"string value":       {"currency": "EUR", "value": "1000"},
		"huge value":         {"currency": "EUR", "value": 1e19},
		"huge negative":      {"currency": "EUR", "value": -1e19},
		"huge json number":   {"currency": "EUR", "value": json.Number("10000000000000000000")},
	} {
		_, err := ItemDecoder{}.Decode(rawItem(map[string]any{"amount": amount}))
		assert.ErrorIs(t, err, core.ErrInvalidArgument, name)
	}
}

type decliningDecoder struct{ calls int }

func (d *decliningDecoder) Decode(core.Payload) (core.Decoded[core.NotificationItem], error) {
	d.calls++
	return core.Decoded[core.NotificationItem]{}, core.ErrUnrecognizedPayload
}

func TestDecoderChain(t *testing.T) {
	declining := &decliningDecoder{}
	chain := DecoderChain{declining, ItemDecoder{}}

	decoded, err := chain.Decode(rawItem(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, declining.calls)
	assert.Equal(t, "R1", decoded.Value.MerchantReference)

	_, err = DecoderChain{declining}.Decode(rawItem(nil))
	assert.ErrorIs(t, err, core.ErrUnrecognizedPayload)
}
