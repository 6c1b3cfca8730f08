package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// GetPaymentStatus asks the provider for the live status of a transaction,
// falling back to the persisted record when the provider cannot answer.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	payment, err := s.payments.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return "", domain.NewPaymentError(
			fmt.Sprintf("payment %s not found", transactionID),
			domain.CodePaymentNotFound, "", false)
	}

	provider, ok := s.providers[payment.MethodType]
	if !ok {
		return payment.Status, nil
	}

	status, err := provider.GetPaymentStatus(ctx, transactionID)
	if err != nil {
		s.logger.Warn("provider status query failed, using stored status",
			"provider", provider.Name(),
			"transaction_id", transactionID,
			"error", err)
		return payment.Status, nil
	}
	return status, nil
}

// GetPayment returns the persisted payment record.
func (s *PaymentService) GetPayment(ctx context.Context, transactionID string) (*domain.Payment, error) {
	payment, err := s.payments.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, domain.NewPaymentError(
			fmt.Sprintf("payment %s not found", transactionID),
			domain.CodePaymentNotFound, "", false)
	}
	return payment, nil
}

// GetTransactionLogs returns the audit trail of a transaction in append order.
func (s *PaymentService) GetTransactionLogs(ctx context.Context, transactionID string) ([]*domain.TransactionLog, error) {
	return s.logs.FindByTransactionID(ctx, transactionID)
}

// GetPaymentMetrics aggregates persisted payments for a tenant over a date
// range. An empty tenant id falls back to the configured default tenant.
func (s *PaymentService) GetPaymentMetrics(ctx context.Context, tenantID string, from, to time.Time) (*domain.PaymentMetrics, error) {
	if tenantID == "" {
		tenantID = s.config.DefaultTenantID
	}
	return s.payments.Metrics(ctx, tenantID, from, to)
}

// ValidatePaymentMethod runs the provider's pure validation without touching
// the network, for pre-submit form checks.
func (s *PaymentService) ValidatePaymentMethod(details domain.PaymentMethodDetails) (domain.ValidationResult, error) {
	provider, ok := s.providers[details.Type]
	if !ok {
		return domain.ValidationResult{}, domain.NewPaymentError(
			fmt.Sprintf("no payment provider registered for %s", details.Type),
			domain.CodeProviderNotFound, "", false)
	}
	return provider.ValidatePaymentMethod(details), nil
}
