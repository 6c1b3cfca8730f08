// Package worker runs the background jobs of the payment subsystem.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/application"
	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// ReconcilerConfig tunes the pending-payment reconciler.
type ReconcilerConfig struct {
	// Interval between polling rounds.
	Interval time.Duration
	// MinAge keeps just-created payments out of a round, giving the guest a
	// head start before the first status query.
	MinAge time.Duration
	// ExpireAfter fails a payment still pending past this age. Matches the
	// 3-day validity of a Multibanco reference.
	ExpireAfter time.Duration
	// BatchSize caps how many payments one round picks up.
	BatchSize int
}

func (c *ReconcilerConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.MinAge < 0 {
		c.MinAge = 0
	}
	if c.ExpireAfter <= 0 {
		c.ExpireAfter = 72 * time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
}

// Reconciler settles PENDING Multibanco payments: it polls the provider for
// each pending reference and applies the same side effects the orchestrator
// would have applied on an immediate outcome. References unpaid past their
// validity window are failed and their bookings cancelled.
type Reconciler struct {
	provider application.Provider
	payments application.PaymentStore
	bookings application.BookingStore
	notifier application.Notifier
	config   ReconcilerConfig
	logger   *slog.Logger
}

func NewReconciler(
	provider application.Provider,
	payments application.PaymentStore,
	bookings application.BookingStore,
	notifier application.Notifier,
	config ReconcilerConfig,
	logger *slog.Logger,
) *Reconciler {
	config.applyDefaults()
	return &Reconciler{
		provider: provider,
		payments: payments,
		bookings: bookings,
		notifier: notifier,
		config:   config,
		logger:   logger.With("component", "reconciler"),
	}
}

// Start runs polling rounds until the context is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.Info("reconciler started",
		"interval", r.config.Interval,
		"expire_after", r.config.ExpireAfter)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			settled, err := r.ReconcileOnce(ctx)
			if err != nil {
				r.logger.Error("reconciliation round failed", "error", err)
			} else if settled > 0 {
				r.logger.Info("reconciliation round done", "settled", settled)
			}
		}
	}
}

// ReconcileOnce runs a single round and returns how many payments reached a
// terminal status.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	pending, err := r.payments.FindPendingByMethod(ctx, domain.TypeMultibanco, r.config.MinAge, r.config.BatchSize)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, payment := range pending {
		if payment.TransactionID == nil {
			continue
		}
		if r.settle(ctx, payment) {
			settled++
		}
	}
	return settled, nil
}

func (r *Reconciler) settle(ctx context.Context, payment *domain.Payment) bool {
	transactionID := *payment.TransactionID

	status, err := r.provider.GetPaymentStatus(ctx, transactionID)
	if err != nil {
		r.logger.Warn("status query failed, will retry next round",
			"transaction_id", transactionID, "error", err)
		return false
	}

	switch status {
	case domain.StatusCompleted:
		r.transition(ctx, payment, domain.StatusCompleted, domain.BookingConfirmed)
		if err := r.notifier.SendPaymentSuccess(ctx, payment.UserID, payment.BookingID,
			payment.Amount, payment.Currency, payment.MethodName); err != nil {
			r.logger.Error("success notification failed", "transaction_id", transactionID, "error", err)
		}
		return true

	case domain.StatusFailed:
		r.transition(ctx, payment, domain.StatusFailed, domain.BookingCancelled)
		if err := r.notifier.SendPaymentFailed(ctx, payment.UserID, payment.BookingID,
			payment.Amount, payment.Currency, "payment failed"); err != nil {
			r.logger.Error("failure notification failed", "transaction_id", transactionID, "error", err)
		}
		return true

	default:
		if time.Since(payment.CreatedAt) > r.config.ExpireAfter {
			r.transition(ctx, payment, domain.StatusFailed, domain.BookingCancelled)
			if err := r.notifier.SendPaymentFailed(ctx, payment.UserID, payment.BookingID,
				payment.Amount, payment.Currency, "payment reference expired"); err != nil {
				r.logger.Error("failure notification failed", "transaction_id", transactionID, "error", err)
			}
			return true
		}
		return false
	}
}

func (r *Reconciler) transition(ctx context.Context, payment *domain.Payment, paymentStatus domain.PaymentStatus, bookingStatus domain.BookingStatus) {
	transactionID := *payment.TransactionID
	if err := r.payments.UpdateStatus(ctx, transactionID, paymentStatus); err != nil {
		r.logger.Error("failed to update payment status",
			"transaction_id", transactionID, "status", paymentStatus, "error", err)
	}
	if err := r.bookings.UpdateStatus(ctx, payment.BookingID, bookingStatus); err != nil {
		r.logger.Error("failed to update booking status",
			"booking_id", payment.BookingID, "status", bookingStatus, "error", err)
	}
	r.logger.Info("pending payment settled",
		"transaction_id", transactionID,
		"payment_status", paymentStatus,
		"booking_status", bookingStatus)
}
