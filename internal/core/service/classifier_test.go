package service

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestAPIResponseClassifier(t *testing.T) {
	classifier := APIResponseClassifier{}
	id := uuid.New()

	pending := []string{"received", "processing", "pending", "redirectshopper", "identifyshopper", "challengeshopper", "presenttoshopper"}
	for _, code := range pending {
		for _, variant := range []string{code, strings.ToUpper(code), strings.ToUpper(code[:1]) + code[1:]} {
			result := classifier.Classify(id, core.APIResponse{ResultCode: variant})
			assert.Equal(t, core.ResultPending, result.Type, variant)
			assert.Equal(t, id, result.PaymentID)
		}
	}

	for _, code := range []string{"authorised", "Authorised", "AUTHORISED"} {
		assert.Equal(t, core.ResultAuthorised, classifier.Classify(id, core.APIResponse{ResultCode: code}).Type, code)
	}

	for _, code := range []string{"refused", "error", "cancelled", "", "authorized", "unknownCode"} {
		assert.Equal(t, core.ResultFailed, classifier.Classify(id, core.APIResponse{ResultCode: code}).Type, code)
	}
}

func TestNotificationClassifier(t *testing.T) {
	classifier := NotificationClassifier{}
	id := uuid.New()

	tests := []struct {
		eventCode string
		success   bool
		want      core.ResultType
	}{
		{"AUTHORISATION", true, core.ResultAuthorised},
		{"authorisation", true, core.ResultAuthorised},
		{"AUTHORISATION", false, core.ResultFailed},
		{"CANCELLATION", true, core.ResultFailed},
		{"CANCELLATION", false, core.ResultFailed},
		{"CAPTURE", true, core.ResultPending},
		{"REFUND", false, core.ResultPending},
		{"REPORT_AVAILABLE", true, core.ResultPending},
	}

	for _, tt := range tests {
		t.Run(tt.eventCode, func(t *testing.T) {
			item := core.NewNotificationItem(tt.eventCode, tt.success)
			assert.Equal(t, tt.want, classifier.Classify(id, item).Type)
		})
	}
}
