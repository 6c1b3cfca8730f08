package provider

import (
	"context"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// The gateway interfaces isolate the external payment network from the
// providers. The simulated gateways in simulator.go are one implementation;
// a real Stripe/SIBS adapter plugs in behind the same contract. Tests inject
// deterministic fakes.
//
// Gateways return a typed *domain.PaymentError for rejected or failed calls.
// Non-retryable errors are business rejections the provider reshapes into a
// failed PaymentResult; retryable ones propagate to the orchestrator's retry
// loop.

// CardCharge is the gateway-level charge request for card payments.
type CardCharge struct {
	TransactionID  string
	Amount         float64
	Currency       string
	CardNumber     string
	ExpiryMonth    int
	ExpiryYear     int
	CVV            string
	CardholderName string
}

// CardChargeOutcome reports a settled charge attempt. Approved=false is a
// soft decline carrying the gateway's decline code and message.
type CardChargeOutcome struct {
	Approved       bool
	ChargeID       string
	DeclineCode    string
	DeclineMessage string
}

// RefundOutcome reports an accepted refund.
type RefundOutcome struct {
	RefundID string
}

type CardGateway interface {
	Charge(ctx context.Context, charge CardCharge) (*CardChargeOutcome, error)
	Refund(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error)
	ChargeStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error)
}

// MBWayCharge is the gateway-level request for an MB WAY push payment.
type MBWayCharge struct {
	TransactionID string
	PhoneNumber   string
	Amount        float64
	Currency      string
	Description   string
}

type MBWayOutcome struct {
	Approved       bool
	Reference      string
	DeclineCode    string
	DeclineMessage string
}

type MBWayGateway interface {
	RequestPayment(ctx context.Context, charge MBWayCharge) (*MBWayOutcome, error)
	Refund(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error)
	PaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error)
}

// MultibancoOrder asks the banking network for an entity/reference pair the
// guest pays at an ATM or through online banking.
type MultibancoOrder struct {
	TransactionID string
	Amount        float64
	Currency      string
	ExpiryDays    int
}

// MultibancoReference is the issued payment reference. Paid=true means the
// network settled the payment immediately; otherwise the payment stays
// pending until the guest pays or the reference expires.
type MultibancoReference struct {
	Entity    string
	Reference string
	ExpiresAt time.Time
	Paid      bool
}

type MultibancoGateway interface {
	CreateReference(ctx context.Context, order MultibancoOrder) (*MultibancoReference, error)
	Refund(ctx context.Context, transactionID string, amount float64) (*RefundOutcome, error)
	PaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error)
}
