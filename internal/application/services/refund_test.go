package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

func seedCompletedPayment(f *serviceFixture, transactionID string, amount float64) {
	txn := transactionID
	f.payments.Seed(&domain.Payment{
		ID:            uuid.New(),
		TenantID:      "tenant-1",
		BookingID:     "booking-1",
		UserID:        "user-1",
		Amount:        amount,
		Currency:      "EUR",
		MethodType:    domain.TypeCreditCard,
		MethodName:    "Credit Card",
		Status:        domain.StatusCompleted,
		TransactionID: &txn,
	})
}

func TestProcessRefundSuccess(t *testing.T) {
	f := newFixture(t, Config{})
	seedCompletedPayment(f, "txn_1_000000001", 100)

	result, err := f.service.ProcessRefund(context.Background(), domain.RefundRequest{
		TransactionID: "txn_1_000000001",
		Amount:        100,
		Reason:        "guest cancelled",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.RefundCompleted, result.Status)
	assert.Equal(t, 1, f.provider.RefundCalls)

	stored := f.payments.Stored("txn_1_000000001")
	assert.Equal(t, domain.StatusRefunded, stored.Status)
}

func TestProcessRefundUnknownPayment(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.service.ProcessRefund(context.Background(), domain.RefundRequest{TransactionID: "txn_missing"})
	require.Error(t, err)

	pe, ok := domain.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodePaymentNotFound, pe.Code)
}

func TestProcessRefundRejectsNonCompletedPayment(t *testing.T) {
	f := newFixture(t, Config{})
	txn := "txn_pending_000000001"
	f.payments.Seed(&domain.Payment{
		ID:            uuid.New(),
		MethodType:    domain.TypeCreditCard,
		Status:        domain.StatusPending,
		TransactionID: &txn,
	})

	_, err := f.service.ProcessRefund(context.Background(), domain.RefundRequest{TransactionID: txn})
	require.Error(t, err)

	pe, ok := domain.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeRefundFailed, pe.Code)
	assert.Zero(t, f.provider.RefundCalls)
}

func TestProcessRefundCapsAmountAtPayment(t *testing.T) {
	f := newFixture(t, Config{})
	seedCompletedPayment(f, "txn_1_000000001", 100)

	var seen float64
	f.provider.RefundFn = func(_ context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
		seen = req.Amount
		return &domain.RefundResult{Success: true, RefundID: "ref_1", Amount: req.Amount, Status: domain.RefundCompleted, ProcessedAt: time.Now()}, nil
	}

	_, err := f.service.ProcessRefund(context.Background(), domain.RefundRequest{
		TransactionID: "txn_1_000000001",
		Amount:        250, // more than was paid
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, seen)
}

func TestProcessRefundRetriesInfrastructureFaults(t *testing.T) {
	f := newFixture(t, Config{MaxRetryAttempts: 3})
	seedCompletedPayment(f, "txn_1_000000001", 100)

	calls := 0
	f.provider.RefundFn = func(_ context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
		calls++
		if calls < 2 {
			return nil, domain.NewTimeoutError("timed out", "Credit Card")
		}
		return &domain.RefundResult{Success: true, RefundID: "ref_1", Amount: req.Amount, Status: domain.RefundCompleted, ProcessedAt: time.Now()}, nil
	}

	result, err := f.service.ProcessRefund(context.Background(), domain.RefundRequest{TransactionID: "txn_1_000000001", Amount: 100})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, calls)
}

func TestGetPaymentStatusFallsBackToStored(t *testing.T) {
	f := newFixture(t, Config{})
	seedCompletedPayment(f, "txn_1_000000001", 100)

	f.provider.StatusFn = func(context.Context, string) (domain.PaymentStatus, error) {
		return "", domain.NewProviderError("gateway unavailable", "Credit Card", nil)
	}

	status, err := f.service.GetPaymentStatus(context.Background(), "txn_1_000000001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, status)
}

func TestGetPaymentStatusUsesProvider(t *testing.T) {
	f := newFixture(t, Config{})
	seedCompletedPayment(f, "txn_1_000000001", 100)

	f.provider.StatusFn = func(context.Context, string) (domain.PaymentStatus, error) {
		return domain.StatusRefunded, nil
	}

	status, err := f.service.GetPaymentStatus(context.Background(), "txn_1_000000001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, status)
}

func TestGetPaymentStatusUnknownTransaction(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.service.GetPaymentStatus(context.Background(), "txn_missing")
	require.Error(t, err)
	pe, ok := domain.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodePaymentNotFound, pe.Code)
}
