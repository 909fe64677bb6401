package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/cashflow/payment-reconciliation/internal/core"
)

// ResultClassifier turns a channel-specific input into a canonical PaymentResult
type ResultClassifier[T any] interface {
	Classify(paymentID uuid.UUID, input T) core.PaymentResult
}

var pendingResultCodes = map[string]struct{}{
	"received":         {},
	"processing":       {},
	"pending":          {},
	"redirectshopper":  {},
	"identifyshopper":  {},
	"challengeshopper": {},
	"presenttoshopper": {},
}

// APIResponseClassifier classifies synchronous processor responses.
// Unknown result codes become Failed so checkout is never left waiting.
type APIResponseClassifier struct{}

// Classify maps the response result code to a result type
func (APIResponseClassifier) Classify(paymentID uuid.UUID, resp core.APIResponse) core.PaymentResult {
	code := strings.ToLower(resp.ResultCode)

	resultType := core.ResultFailed
	if code == "authorised" {
		resultType = core.ResultAuthorised
	} else if _, ok := pendingResultCodes[code]; ok {
		resultType = core.ResultPending
	}

	return core.PaymentResult{PaymentID: paymentID, Type: resultType}
}

// NotificationClassifier classifies decoded webhook notifications
type NotificationClassifier struct{}

// Classify maps the event code and success flag to a result type
func (NotificationClassifier) Classify(paymentID uuid.UUID, item core.NotificationItem) core.PaymentResult {
	resultType := core.ResultPending
	switch item.EventCode() {
	case core.EventCodeAuthorisation:
		resultType = core.ResultFailed
		if item.Success {
			resultType = core.ResultAuthorised
		}
	case core.EventCodeCancellation:
		resultType = core.ResultFailed
	}

	return core.PaymentResult{PaymentID: paymentID, Type: resultType}
}
