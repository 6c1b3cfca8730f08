package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// The simulated gateways stand in for the real card network, MB WAY and
// Multibanco backends. They reproduce the outcome distribution of the
// production sandboxes: occasional declines, timeouts and fraud flags, plus
// the Multibanco majority path of a pending reference. Each keeps the status
// of issued transactions so status queries are idempotent reads.

var multibancoTestEntities = []string{"12345", "67890", "11111", "22222"}

type simState struct {
	mu       sync.Mutex
	rng      *rand.Rand
	statuses map[string]domain.PaymentStatus
	latency  time.Duration
}

func newSimState(seed int64, latency time.Duration) *simState {
	return &simState{
		rng:      rand.New(rand.NewSource(seed)),
		statuses: make(map[string]domain.PaymentStatus),
		latency:  latency,
	}
}

// roll returns a uniform float in [0,1) under the state lock.
func (s *simState) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *simState) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *simState) record(transactionID string, status domain.PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[transactionID] = status
}

func (s *simState) status(transactionID string) domain.PaymentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.statuses[transactionID]; ok {
		return status
	}
	return domain.StatusPending
}

// wait simulates network latency, honoring cancellation.
func (s *simState) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.latency):
		return nil
	}
}

// SimulatedCardGateway models a Stripe-like card acquirer.
type SimulatedCardGateway struct {
	*simState
}

func NewSimulatedCardGateway(seed int64, latency time.Duration) *SimulatedCardGateway {
	return &SimulatedCardGateway{simState: newSimState(seed, latency)}
}

func (g *SimulatedCardGateway) Charge(ctx context.Context, charge CardCharge) (*CardChargeOutcome, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	switch {
	case g.roll() < 0.05:
		g.record(charge.TransactionID, domain.StatusFailed)
		return nil, domain.NewPaymentError("Insufficient funds", domain.CodeInsufficientFunds, "", false)
	case g.roll() < 0.03:
		g.record(charge.TransactionID, domain.StatusFailed)
		return nil, domain.NewPaymentError("Card was declined", domain.CodeCardDeclined, "", false)
	case g.roll() < 0.02:
		return nil, domain.NewTimeoutError("Payment processing timed out", "")
	case charge.Amount > 5000 && g.roll() < 0.10:
		g.record(charge.TransactionID, domain.StatusFailed)
		return nil, domain.NewPaymentError("Transaction flagged for fraud review", domain.CodeFraudDetected, "", false)
	}

	if g.roll() < 0.88 {
		g.record(charge.TransactionID, domain.StatusCompleted)
		return &CardChargeOutcome{
			Approved: true,
			ChargeID: fmt.Sprintf("ch_%d", time.Now().UnixMilli()),
		}, nil
	}

	g.record(charge.TransactionID, domain.StatusFailed)
	return &CardChargeOutcome{
		Approved:       false,
		DeclineCode:    "card_declined",
		DeclineMessage: "Your card was declined. Please try a different card.",
	}, nil
}

func (g *SimulatedCardGateway) Refund(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	if g.roll() < 0.02 {
		return nil, domain.NewPaymentError("Credit card refund failed", domain.CodeRefundFailed, "", false)
	}
	g.record(transactionID, domain.StatusRefunded)
	return &RefundOutcome{RefundID: fmt.Sprintf("ref_%d", time.Now().UnixMilli())}, nil
}

func (g *SimulatedCardGateway) ChargeStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return g.status(transactionID), nil
}

// SimulatedMBWayGateway models the MB WAY push-payment API.
type SimulatedMBWayGateway struct {
	*simState
}

func NewSimulatedMBWayGateway(seed int64, latency time.Duration) *SimulatedMBWayGateway {
	return &SimulatedMBWayGateway{simState: newSimState(seed, latency)}
}

func (g *SimulatedMBWayGateway) RequestPayment(ctx context.Context, charge MBWayCharge) (*MBWayOutcome, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	if g.roll() < 0.10 {
		g.record(charge.TransactionID, domain.StatusFailed)
		return nil, domain.NewPaymentError("MB WAY payment declined", domain.CodePaymentDeclined, "", false)
	}

	if g.roll() < 0.85 {
		g.record(charge.TransactionID, domain.StatusCompleted)
		return &MBWayOutcome{
			Approved:  true,
			Reference: fmt.Sprintf("MBW%d", time.Now().UnixMilli()),
		}, nil
	}

	g.record(charge.TransactionID, domain.StatusFailed)
	return &MBWayOutcome{
		Approved:       false,
		DeclineCode:    "PAYMENT_FAILED",
		DeclineMessage: "Payment was declined by MB WAY",
	}, nil
}

func (g *SimulatedMBWayGateway) Refund(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	if g.roll() < 0.05 {
		return nil, domain.NewPaymentError("MB WAY refund failed", domain.CodeRefundFailed, "", false)
	}
	g.record(transactionID, domain.StatusRefunded)
	return &RefundOutcome{RefundID: fmt.Sprintf("REF%d", time.Now().UnixMilli())}, nil
}

func (g *SimulatedMBWayGateway) PaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return g.status(transactionID), nil
}

// SimulatedMultibancoGateway models the interbank reference service. The
// majority path issues a pending reference; a minority settles immediately,
// standing in for guests who pay through home banking right away.
type SimulatedMultibancoGateway struct {
	*simState
}

func NewSimulatedMultibancoGateway(seed int64, latency time.Duration) *SimulatedMultibancoGateway {
	return &SimulatedMultibancoGateway{simState: newSimState(seed, latency)}
}

func (g *SimulatedMultibancoGateway) CreateReference(ctx context.Context, order MultibancoOrder) (*MultibancoReference, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	if g.roll() < 0.08 {
		g.record(order.TransactionID, domain.StatusFailed)
		return nil, domain.NewPaymentError("Multibanco payment setup failed", domain.CodePaymentFailed, "", false)
	}

	expiryDays := order.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = 3
	}
	ref := &MultibancoReference{
		Entity:    multibancoTestEntities[g.intn(len(multibancoTestEntities))],
		Reference: GenerateMultibancoReference(),
		ExpiresAt: time.Now().AddDate(0, 0, expiryDays),
		Paid:      g.roll() < 0.25,
	}

	if ref.Paid {
		g.record(order.TransactionID, domain.StatusCompleted)
	} else {
		g.record(order.TransactionID, domain.StatusPending)
	}
	return ref, nil
}

func (g *SimulatedMultibancoGateway) Refund(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	if g.roll() < 0.03 {
		return nil, domain.NewPaymentError("Multibanco refund failed", domain.CodeRefundFailed, "", false)
	}
	g.record(transactionID, domain.StatusRefunded)
	return &RefundOutcome{RefundID: fmt.Sprintf("REF%d", time.Now().UnixMilli())}, nil
}

func (g *SimulatedMultibancoGateway) PaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return g.status(transactionID), nil
}
