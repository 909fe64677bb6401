package core

import "github.com/google/uuid"

// ResultType is the canonical outcome of a processor response
type ResultType string

const (
	ResultAuthorised ResultType = "authorised"
	ResultPending    ResultType = "pending"
	ResultFailed     ResultType = "failed"
)

// PaymentResult is the classification of one processor response for one payment
type PaymentResult struct {
	PaymentID uuid.UUID
	Type      ResultType
}

// APIResponse is the part of a synchronous processor response the classifier reads
type APIResponse struct {
	ResultCode        string `json:"resultCode"`
	PSPReference      string `json:"pspReference"`
	MerchantReference string `json:"merchantReference"`
	RefusalReason     string `json:"refusalReason,omitempty"`
	RefusalReasonCode string `json:"refusalReasonCode,omitempty"`
}
