package provider

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// Fake gateways with programmable behavior and call counters.

type fakeCardGateway struct {
	mu          sync.Mutex
	chargeCalls int
	chargeFn    func(ctx context.Context, charge CardCharge) (*CardChargeOutcome, error)
	refundFn    func(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error)
	statusFn    func(ctx context.Context, transactionID string) (domain.PaymentStatus, error)
}

func (g *fakeCardGateway) Charge(ctx context.Context, charge CardCharge) (*CardChargeOutcome, error) {
	g.mu.Lock()
	g.chargeCalls++
	g.mu.Unlock()
	if g.chargeFn != nil {
		return g.chargeFn(ctx, charge)
	}
	return &CardChargeOutcome{Approved: true, ChargeID: "ch_test"}, nil
}

func (g *fakeCardGateway) Refund(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error) {
	if g.refundFn != nil {
		return g.refundFn(ctx, transactionID, amount)
	}
	return &RefundOutcome{RefundID: "ref_test"}, nil
}

func (g *fakeCardGateway) ChargeStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	if g.statusFn != nil {
		return g.statusFn(ctx, transactionID)
	}
	return domain.StatusCompleted, nil
}

func (g *fakeCardGateway) charges() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chargeCalls
}

type fakeMBWayGateway struct {
	mu           sync.Mutex
	requestCalls int
	requestFn    func(ctx context.Context, charge MBWayCharge) (*MBWayOutcome, error)
	refundFn     func(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error)
	statusFn     func(ctx context.Context, transactionID string) (domain.PaymentStatus, error)
}

func (g *fakeMBWayGateway) RequestPayment(ctx context.Context, charge MBWayCharge) (*MBWayOutcome, error) {
	g.mu.Lock()
	g.requestCalls++
	g.mu.Unlock()
	if g.requestFn != nil {
		return g.requestFn(ctx, charge)
	}
	return &MBWayOutcome{Approved: true, Reference: "MBW123"}, nil
}

func (g *fakeMBWayGateway) Refund(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error) {
	if g.refundFn != nil {
		return g.refundFn(ctx, transactionID, amount)
	}
	return &RefundOutcome{RefundID: "REF123"}, nil
}

func (g *fakeMBWayGateway) PaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	if g.statusFn != nil {
		return g.statusFn(ctx, transactionID)
	}
	return domain.StatusCompleted, nil
}

type fakeMultibancoGateway struct {
	mu          sync.Mutex
	createCalls int
	createFn    func(ctx context.Context, order MultibancoOrder) (*MultibancoReference, error)
	refundFn    func(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error)
	statusFn    func(ctx context.Context, transactionID string) (domain.PaymentStatus, error)
}

func (g *fakeMultibancoGateway) CreateReference(ctx context.Context, order MultibancoOrder) (*MultibancoReference, error) {
	g.mu.Lock()
	g.createCalls++
	g.mu.Unlock()
	if g.createFn != nil {
		return g.createFn(ctx, order)
	}
	return &MultibancoReference{
		Entity:    "12345",
		Reference: "123456789",
		ExpiresAt: time.Now().AddDate(0, 0, 3),
	}, nil
}

func (g *fakeMultibancoGateway) Refund(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error) {
	if g.refundFn != nil {
		return g.refundFn(ctx, transactionID, amount)
	}
	return &RefundOutcome{RefundID: "REF456"}, nil
}

func (g *fakeMultibancoGateway) PaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	if g.statusFn != nil {
		return g.statusFn(ctx, transactionID)
	}
	return domain.StatusPending, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProviderConfig() domain.ProviderConfig {
	return domain.ProviderConfig{
		Environment:   "sandbox",
		Timeout:       5 * time.Second,
		RetryAttempts: 3,
	}
}

func validCardDetails() domain.PaymentMethodDetails {
	return domain.PaymentMethodDetails{
		Type:           domain.TypeCreditCard,
		CardNumber:     "4111111111111111",
		ExpiryMonth:    12,
		ExpiryYear:     time.Now().Year() + 2,
		CVV:            "123",
		CardholderName: "Maria Silva",
	}
}

func cardPaymentRequest(amount float64) domain.PaymentRequest {
	return domain.PaymentRequest{
		BookingID:     "booking-1",
		UserID:        "user-1",
		Amount:        amount,
		Currency:      "EUR",
		PaymentMethod: validCardDetails(),
		Description:   "Dorm bed, 2 nights",
	}
}
