package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// ProcessRefund refunds a previously processed payment. The payment record is
// looked up by transaction id and routed to the provider that handled the
// original charge. Retryable provider faults use the same backoff policy as
// payment processing.
func (s *PaymentService) ProcessRefund(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
	payment, err := s.payments.FindByTransactionID(ctx, req.TransactionID)
	if err != nil {
		return nil, domain.NewPaymentError(
			fmt.Sprintf("payment %s not found", req.TransactionID),
			domain.CodePaymentNotFound, "", false)
	}
	if payment.Status != domain.StatusCompleted {
		return nil, domain.NewPaymentError(
			fmt.Sprintf("payment %s is %s, only completed payments can be refunded", req.TransactionID, payment.Status),
			domain.CodeRefundFailed, "", false)
	}

	provider, ok := s.providers[payment.MethodType]
	if !ok {
		return nil, domain.NewPaymentError(
			fmt.Sprintf("no payment provider registered for %s", payment.MethodType),
			domain.CodeProviderNotFound, "", false)
	}

	if req.Amount <= 0 || req.Amount > payment.Amount {
		req.Amount = payment.Amount
	}

	var result *domain.RefundResult
	for attempt := 1; attempt <= s.config.MaxRetryAttempts; attempt++ {
		result, err = provider.RefundPayment(ctx, req)
		if err == nil {
			break
		}
		if !domain.IsRetryable(err) || attempt == s.config.MaxRetryAttempts {
			return nil, err
		}

		delay := s.config.RetryDelay * (1 << (attempt - 1))
		s.logger.Warn("refund attempt failed, retrying",
			"provider", provider.Name(),
			"transaction_id", req.TransactionID,
			"attempt", attempt,
			"delay", delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if result.Success {
		if err := s.payments.UpdateStatus(ctx, req.TransactionID, domain.StatusRefunded); err != nil {
			s.logger.Error("failed to mark payment refunded",
				"transaction_id", req.TransactionID,
				"error", err)
		}
	}
	return result, nil
}
