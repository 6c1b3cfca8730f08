package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
	"github.com/stevie86/portugal-hostel-booking/internal/infrastructure/persistence/memory"
)

func multibancoPaymentRequest(amount float64) domain.PaymentRequest {
	return domain.PaymentRequest{
		BookingID:     "booking-3",
		UserID:        "user-3",
		Amount:        amount,
		Currency:      "EUR",
		PaymentMethod: domain.PaymentMethodDetails{Type: domain.TypeMultibanco},
	}
}

func newMultibancoProvider(gateway *fakeMultibancoGateway) *MultibancoProvider {
	return NewMultibancoProvider(testProviderConfig(), gateway, memory.NewTransactionLogStore(), testLogger())
}

func TestMultibancoProcessPaymentPending(t *testing.T) {
	expires := time.Now().AddDate(0, 0, 3).Truncate(time.Second)
	gateway := &fakeMultibancoGateway{
		createFn: func(_ context.Context, order MultibancoOrder) (*MultibancoReference, error) {
			assert.Equal(t, 3, order.ExpiryDays)
			return &MultibancoReference{
				Entity:    "12345",
				Reference: "123456789",
				ExpiresAt: expires,
				Paid:      false,
			}, nil
		},
	}
	p := newMultibancoProvider(gateway)

	result, err := p.ProcessPayment(context.Background(), multibancoPaymentRequest(90.00))
	require.NoError(t, err)

	// A pending reference is a successful initiation, not a failure.
	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusPending, result.Status)
	assert.Nil(t, result.Error)
	assert.Equal(t, "12345", result.ProviderResponse["entity"])
	assert.Equal(t, "123456789", result.ProviderResponse["reference"])
	assert.Equal(t, expires.Format(time.RFC3339), result.ProviderResponse["expiry_date"])
	assert.Equal(t, "pending_payment", result.ProviderResponse["status"])
	assert.Equal(t, "Please complete payment at ATM or online banking within 3 days",
		result.ProviderResponse["instructions"])
}

func TestMultibancoProcessPaymentImmediateSettlement(t *testing.T) {
	gateway := &fakeMultibancoGateway{
		createFn: func(context.Context, MultibancoOrder) (*MultibancoReference, error) {
			return &MultibancoReference{
				Entity:    "67890",
				Reference: "000000000",
				ExpiresAt: time.Now().AddDate(0, 0, 3),
				Paid:      true,
			}, nil
		},
	}
	p := newMultibancoProvider(gateway)

	result, err := p.ProcessPayment(context.Background(), multibancoPaymentRequest(90.00))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Equal(t, "completed", result.ProviderResponse["status"])
	assert.NotContains(t, result.ProviderResponse, "instructions")
}

func TestMultibancoProcessPaymentInvalidAmount(t *testing.T) {
	gateway := &fakeMultibancoGateway{}
	p := newMultibancoProvider(gateway)

	result, err := p.ProcessPayment(context.Background(), multibancoPaymentRequest(0))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, domain.StatusFailed, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, domain.CodeInvalidAmount, result.Error.Code)
	assert.Zero(t, gateway.createCalls)
}

func TestMultibancoProcessPaymentSetupFailure(t *testing.T) {
	gateway := &fakeMultibancoGateway{
		createFn: func(context.Context, MultibancoOrder) (*MultibancoReference, error) {
			return nil, domain.NewPaymentError("Multibanco payment setup failed", domain.CodePaymentFailed, "", false)
		},
	}
	p := newMultibancoProvider(gateway)

	result, err := p.ProcessPayment(context.Background(), multibancoPaymentRequest(90.00))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, domain.StatusFailed, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, domain.CodePaymentFailed, result.Error.Code)
}

func TestMultibancoValidatePaymentMethod(t *testing.T) {
	p := newMultibancoProvider(&fakeMultibancoGateway{})

	result := p.ValidatePaymentMethod(domain.PaymentMethodDetails{Type: domain.TypeMultibanco})
	assert.True(t, result.IsValid, "Multibanco needs no upfront details")

	result = p.ValidatePaymentMethod(domain.PaymentMethodDetails{Type: domain.TypeCreditCard})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Invalid payment type for Multibanco provider")
}

func TestMultibancoCheckDigit(t *testing.T) {
	tests := []struct {
		digits string
		want   int
	}{
		// 1×9+2×8+3×7+4×6+5×5+6×4+7×3+8×2 = 156, 156 mod 11 = 2, 11-2 = 9
		{"12345678", 9},
		// sum 0, remainder 0 collapses to 0
		{"00000000", 0},
		// sum 44, remainder 0 collapses to 0
		{"11111111", 0},
		// sum 12, remainder 1 collapses to 0
		{"00000006", 0},
		// sum 2, remainder 2, 11-2 = 9
		{"00000001", 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, multibancoCheckDigit(tt.digits), tt.digits)
	}
}

func TestIsValidMultibancoReference(t *testing.T) {
	assert.True(t, IsValidMultibancoReference("123456789"))
	assert.True(t, IsValidMultibancoReference("000000000"))
	assert.True(t, IsValidMultibancoReference("111111110"))
	assert.True(t, IsValidMultibancoReference("000000060"))

	assert.False(t, IsValidMultibancoReference("123456788"), "wrong check digit")
	assert.False(t, IsValidMultibancoReference("12345678"), "too short")
	assert.False(t, IsValidMultibancoReference("1234567890"), "too long")
	assert.False(t, IsValidMultibancoReference("12345678x"), "non-digit")
}

func TestGenerateMultibancoReference(t *testing.T) {
	for i := 0; i < 100; i++ {
		ref := GenerateMultibancoReference()
		require.Len(t, ref, 9)
		assert.True(t, IsValidMultibancoReference(ref), ref)
	}
}

func TestMultibancoRefundPayment(t *testing.T) {
	p := newMultibancoProvider(&fakeMultibancoGateway{})

	result, err := p.RefundPayment(context.Background(), domain.RefundRequest{
		TransactionID: "txn_3_000000003",
		Amount:        90.00,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.RefundCompleted, result.Status)
}

func TestMultibancoGetPaymentStatus(t *testing.T) {
	gateway := &fakeMultibancoGateway{
		statusFn: func(context.Context, string) (domain.PaymentStatus, error) {
			return domain.StatusPending, nil
		},
	}
	p := newMultibancoProvider(gateway)

	status, err := p.GetPaymentStatus(context.Background(), "txn_3_000000003")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, status)
}
