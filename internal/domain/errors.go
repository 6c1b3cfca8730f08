package domain

import (
	"errors"
	"fmt"
)

// Machine codes carried by PaymentError. The Retryable flag on the error is
// the single source of truth for the orchestrator's retry loop; the codes
// below document the conventional classification.
const (
	// Pre-flight, never retried.
	CodeValidationError = "VALIDATION_ERROR"
	CodeInvalidAmount   = "INVALID_AMOUNT"

	// Business-rule rejections, never retried.
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeCardDeclined      = "CARD_DECLINED"
	CodePaymentDeclined   = "PAYMENT_DECLINED"
	CodeFraudDetected     = "FRAUD_DETECTED"
	CodePaymentFailed     = "PAYMENT_FAILED"
	CodeRefundFailed      = "REFUND_FAILED"

	// Infrastructure faults, retried up to the configured bound.
	CodeTimeout       = "TIMEOUT"
	CodeProviderError = "PROVIDER_ERROR"

	// Caller errors, never retried.
	CodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	CodeProviderNotFound    = "PROVIDER_NOT_FOUND"
	CodeBookingNotFound     = "BOOKING_NOT_FOUND"
	CodeInvalidBookingState = "INVALID_BOOKING_STATE"
)

// PaymentError is the typed error of the payment core. Business rejections
// travel inside PaymentResult; a PaymentError is returned directly only for
// infrastructure-level faults and caller errors.
type PaymentError struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Provider  string `json:"provider,omitempty"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

func (e *PaymentError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Code, e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewPaymentError(message, code, provider string, retryable bool) *PaymentError {
	return &PaymentError{Message: message, Code: code, Provider: provider, Retryable: retryable}
}

func NewValidationError(message string, details any) *PaymentError {
	return &PaymentError{Message: message, Code: CodeValidationError, Retryable: false, Details: details}
}

func NewProviderError(message, provider string, details any) *PaymentError {
	return &PaymentError{Message: message, Code: CodeProviderError, Provider: provider, Retryable: true, Details: details}
}

func NewTimeoutError(message, provider string) *PaymentError {
	return &PaymentError{Message: message, Code: CodeTimeout, Provider: provider, Retryable: true}
}

// AsPaymentError unwraps err into a *PaymentError if possible.
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	ok := errors.As(err, &pe)
	return pe, ok
}

// IsRetryable reports whether the orchestrator may retry after err.
// Unknown error types are not retried: without a Retryable flag there is no
// way to know whether the charge reached the gateway.
func IsRetryable(err error) bool {
	if pe, ok := AsPaymentError(err); ok {
		return pe.Retryable
	}
	return false
}
