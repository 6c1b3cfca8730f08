package provider

import (
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

func invalid(msgs ...string) domain.ValidationResult {
	return domain.ValidationResult{IsValid: false, Errors: msgs}
}

// failedResult shapes a business rejection into a FAILED payment result.
// The transaction id of the attempt is kept so the audit trail stays linked.
func failedResult(transactionID string, req domain.PaymentRequest, pe *domain.PaymentError) *domain.PaymentResult {
	return &domain.PaymentResult{
		Success:       false,
		TransactionID: transactionID,
		Status:        domain.StatusFailed,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ProcessedAt:   time.Now(),
		Error:         pe,
	}
}

// paymentRequestSnapshot captures the request for the audit log with card
// data masked. CVVs are never written to the log.
func paymentRequestSnapshot(req domain.PaymentRequest) map[string]any {
	snapshot := map[string]any{
		"booking_id":  req.BookingID,
		"user_id":     req.UserID,
		"amount":      req.Amount,
		"currency":    req.Currency,
		"method_type": string(req.PaymentMethod.Type),
	}
	if req.PaymentMethod.CardNumber != "" {
		snapshot["card_last4"] = lastFour(stripSpaces(req.PaymentMethod.CardNumber))
	}
	if req.PaymentMethod.PhoneNumber != "" {
		snapshot["phone_number"] = req.PaymentMethod.PhoneNumber
	}
	if req.Description != "" {
		snapshot["description"] = req.Description
	}
	return snapshot
}

func lastFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
