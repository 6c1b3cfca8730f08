package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment is the persisted record of a processed payment request. Metadata
// holds the raw provider response and the original request for audit.
type Payment struct {
	ID            uuid.UUID
	TenantID      string
	BookingID     string
	UserID        string
	Amount        float64
	Currency      string
	MethodType    PaymentType
	MethodName    string
	Status        PaymentStatus
	TransactionID *string
	Metadata      map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal reports whether no further status transition is expected.
// PENDING payments are advanced by the reconciler; PROCESSING by a provider.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusCompleted, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

// Booking is the external entity whose lifecycle payment outcomes drive.
// Only the fields the payment core reads are modeled here.
type Booking struct {
	ID          string
	UserID      string
	TenantID    string
	TotalAmount float64
	Status      BookingStatus
	CreatedAt   time.Time
}

// AcceptsPayment reports whether a charge may be attempted for the booking.
// CONFIRMED and CANCELLED are terminal for the payment flow.
func (b *Booking) AcceptsPayment() bool {
	return b.Status == BookingPending
}
