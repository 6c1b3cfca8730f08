package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevie86/portugal-hostel-booking/internal/application/services"
	"github.com/stevie86/portugal-hostel-booking/internal/domain"
	"github.com/stevie86/portugal-hostel-booking/internal/infrastructure/persistence/memory"
)

func newTestServer(t *testing.T) (*echo.Echo, *services.MockProvider, *services.MockBookingStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider := services.NewMockProvider("Credit Card", domain.TypeCreditCard)
	bookings := services.NewMockBookingStore(&domain.Booking{
		ID:     "booking-1",
		UserID: "user-1",
		Status: domain.BookingPending,
	})
	service := services.NewPaymentService(
		services.Config{DefaultTenantID: "tenant-1", MaxRetryAttempts: 2, RetryDelay: time.Millisecond},
		services.NewMockPaymentStore(),
		memory.NewTransactionLogStore(),
		bookings,
		&services.MockNotifier{},
		logger,
	)
	service.RegisterProvider(provider)

	return NewServer(NewHandlers(service, logger), logger, 0), provider, bookings
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const paymentBody = `{
	"bookingId": "booking-1",
	"userId": "user-1",
	"amount": 100,
	"currency": "EUR",
	"paymentMethod": {"type": "CREDIT_CARD", "cardNumber": "4111111111111111",
		"expiryMonth": 12, "expiryYear": 2030, "cvv": "123", "cardholderName": "Maria Silva"}
}`

func TestProcessPaymentEndpoint(t *testing.T) {
	e, _, bookings := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/payments", paymentBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.PaymentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.Equal(t, domain.BookingConfirmed, bookings.Status("booking-1"))
}

func TestProcessPaymentEndpointDeclined(t *testing.T) {
	e, provider, bookings := newTestServer(t)
	provider.ProcessFn = func(_ context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
		return &domain.PaymentResult{
			Success:     false,
			Status:      domain.StatusFailed,
			Amount:      req.Amount,
			Currency:    req.Currency,
			ProcessedAt: time.Now(),
			Error:       domain.NewPaymentError("Card was declined", domain.CodeCardDeclined, "Credit Card", false),
		}, nil
	}

	rec := doJSON(e, http.MethodPost, "/api/v1/payments", paymentBody)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var result domain.PaymentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, domain.CodeCardDeclined, result.Error.Code)
	assert.Equal(t, domain.BookingCancelled, bookings.Status("booking-1"))
}

func TestProcessPaymentEndpointUnknownBooking(t *testing.T) {
	e, _, _ := newTestServer(t)

	body := strings.Replace(paymentBody, "booking-1", "booking-missing", 1)
	rec := doJSON(e, http.MethodPost, "/api/v1/payments", body)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error *domain.PaymentError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.CodeBookingNotFound, resp.Error.Code)
}

func TestProcessPaymentEndpointBadBody(t *testing.T) {
	e, _, _ := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/api/v1/payments", `{"amount": "not a number"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateEndpoint(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/payments/validate",
		`{"type": "CREDIT_CARD", "cardNumber": "4111111111111111", "expiryMonth": 12,
		  "expiryYear": 2030, "cvv": "123", "cardholderName": "Maria Silva"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.IsValid)
}

func TestValidateEndpointUnknownMethod(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/payments/validate", `{"type": "PAYPAL"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentMethodsEndpoint(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/payment-methods", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PaymentMethods []struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"paymentMethods"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.PaymentMethods, 1)
	assert.Equal(t, "CREDIT_CARD", resp.PaymentMethods[0].Type)
	assert.Equal(t, "Credit Card", resp.PaymentMethods[0].Name)
}

func TestPaymentStatusEndpointNotFound(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/payments/txn_missing/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefundEndpointNotFound(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/refunds", `{"transactionId": "txn_missing", "amount": 50}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
