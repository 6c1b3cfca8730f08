// Package application defines the ports between the payment orchestrator and
// its collaborators: payment providers, persistence, bookings, notifications.
package application

import (
	"context"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// Provider is the contract every payment method implementation satisfies.
//
// ProcessPayment never returns an error for expected business failures
// (insufficient funds, declines): those surface as a PaymentResult with
// Success=false and Status=FAILED. An error return is reserved for
// infrastructure-level faults and pre-attempt validation.
type Provider interface {
	Name() string
	SupportedTypes() []domain.PaymentType

	ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error)
	RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error)

	// ValidatePaymentMethod is pure: no network I/O. The orchestrator runs it
	// before any processing attempt.
	ValidatePaymentMethod(details domain.PaymentMethodDetails) domain.ValidationResult

	// GetPaymentStatus is an idempotent read against the provider.
	GetPaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error)

	// Config returns a read-only snapshot of the provider configuration.
	Config() domain.ProviderConfig
}

// PaymentStore persists payment records.
type PaymentStore interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, transactionID string, status domain.PaymentStatus) error
	FindPendingByMethod(ctx context.Context, method domain.PaymentType, olderThan time.Duration, limit int) ([]*domain.Payment, error)
	Metrics(ctx context.Context, tenantID string, from, to time.Time) (*domain.PaymentMetrics, error)
}

// TransactionLogStore is a write-through append-only audit log. Providers
// append one entry per call attempt, the orchestrator one per processed
// request. Entries are never mutated.
type TransactionLogStore interface {
	Append(ctx context.Context, log *domain.TransactionLog) error
	FindByTransactionID(ctx context.Context, transactionID string) ([]*domain.TransactionLog, error)
}

// BookingStore is the minimal booking collaborator: a booking must exist and
// be PENDING before payment is attempted, and payment outcomes move it to
// CONFIRMED or CANCELLED.
type BookingStore interface {
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
}

// Notifier dispatches guest-facing payment notifications. Calls are
// fire-and-forget from the orchestrator's perspective: errors are logged
// and swallowed, never propagated to the payment caller.
type Notifier interface {
	SendPaymentSuccess(ctx context.Context, userID, bookingID string, amount float64, currency, methodName string) error
	SendPaymentFailed(ctx context.Context, userID, bookingID string, amount float64, currency, reason string) error
	SendPaymentPending(ctx context.Context, userID, bookingID string, amount float64, currency, methodName, instructions string) error
}
