package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
	"github.com/stevie86/portugal-hostel-booking/internal/infrastructure/persistence/memory"
)

func mbwayPaymentRequest(amount float64) domain.PaymentRequest {
	return domain.PaymentRequest{
		BookingID: "booking-2",
		UserID:    "user-2",
		Amount:    amount,
		Currency:  "EUR",
		PaymentMethod: domain.PaymentMethodDetails{
			Type:        domain.TypeMBWay,
			PhoneNumber: "+351912345678",
		},
	}
}

func newMBWayProvider(gateway *fakeMBWayGateway) *MBWayProvider {
	return NewMBWayProvider(testProviderConfig(), gateway, memory.NewTransactionLogStore(), testLogger())
}

func TestMBWayProcessPaymentSuccess(t *testing.T) {
	gateway := &fakeMBWayGateway{
		requestFn: func(_ context.Context, charge MBWayCharge) (*MBWayOutcome, error) {
			assert.Equal(t, "+351912345678", charge.PhoneNumber)
			return &MBWayOutcome{Approved: true, Reference: "MBW789"}, nil
		},
	}
	p := newMBWayProvider(gateway)

	result, err := p.ProcessPayment(context.Background(), mbwayPaymentRequest(45.00))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Equal(t, "MBW789", result.ProviderResponse["mbway_reference"])
	assert.Equal(t, "+351912345678", result.ProviderResponse["phone_number"])
	assert.Equal(t, "completed", result.ProviderResponse["status"])
}

func TestMBWayProcessPaymentDeclined(t *testing.T) {
	gateway := &fakeMBWayGateway{
		requestFn: func(context.Context, MBWayCharge) (*MBWayOutcome, error) {
			return &MBWayOutcome{
				Approved:       false,
				DeclineCode:    "PAYMENT_FAILED",
				DeclineMessage: "Payment was declined by MB WAY",
			}, nil
		},
	}
	p := newMBWayProvider(gateway)

	result, err := p.ProcessPayment(context.Background(), mbwayPaymentRequest(45.00))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, domain.StatusFailed, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, domain.CodePaymentFailed, result.Error.Code)
	assert.False(t, result.Error.Retryable)
}

func TestMBWayProcessPaymentRejectedUpfront(t *testing.T) {
	gateway := &fakeMBWayGateway{}
	p := newMBWayProvider(gateway)

	req := mbwayPaymentRequest(45.00)
	req.PaymentMethod.PhoneNumber = "+351212345678" // landline, not MB WAY eligible

	result, err := p.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, domain.CodeValidationError, result.Error.Code)
	assert.Zero(t, gateway.requestCalls)
}

func TestMBWayProcessPaymentInfrastructureFault(t *testing.T) {
	gateway := &fakeMBWayGateway{
		requestFn: func(context.Context, MBWayCharge) (*MBWayOutcome, error) {
			return nil, assert.AnError
		},
	}
	p := newMBWayProvider(gateway)

	result, err := p.ProcessPayment(context.Background(), mbwayPaymentRequest(45.00))
	require.Error(t, err)
	assert.Nil(t, result)

	pe, ok := domain.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeProviderError, pe.Code)
	assert.True(t, pe.Retryable)
	assert.Equal(t, "MB WAY", pe.Provider)
}

func TestMBWayValidatePaymentMethod(t *testing.T) {
	p := newMBWayProvider(&fakeMBWayGateway{})

	tests := []struct {
		name    string
		phone   string
		isValid bool
	}{
		{"mobile with country code", "+351912345678", true},
		{"mobile without plus", "351912345678", true},
		{"bare mobile", "912345678", true},
		{"mobile with spaces", "912 345 678", true},
		{"mobile 96 prefix", "+351961234567", true},
		{"landline rejected", "+351212345678", false},
		{"too short", "91234567", false},
		{"too long", "9123456789", false},
		{"not a number", "abc123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.ValidatePaymentMethod(domain.PaymentMethodDetails{
				Type:        domain.TypeMBWay,
				PhoneNumber: tt.phone,
			})
			assert.Equal(t, tt.isValid, result.IsValid)
			if !tt.isValid {
				assert.NotEmpty(t, result.Errors)
			}
		})
	}

	t.Run("missing phone", func(t *testing.T) {
		result := p.ValidatePaymentMethod(domain.PaymentMethodDetails{Type: domain.TypeMBWay})
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "Phone number is required for MB WAY payments")
	})

	t.Run("wrong type", func(t *testing.T) {
		result := p.ValidatePaymentMethod(domain.PaymentMethodDetails{
			Type:        domain.TypeCreditCard,
			PhoneNumber: "912345678",
		})
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "Invalid payment type for MB WAY provider")
	})
}

func TestMBWayRefundPayment(t *testing.T) {
	p := newMBWayProvider(&fakeMBWayGateway{})

	result, err := p.RefundPayment(context.Background(), domain.RefundRequest{
		TransactionID: "txn_2_000000002",
		Amount:        45.00,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.RefundCompleted, result.Status)
	assert.Equal(t, "REF123", result.RefundID)
}
