// Package notification dispatches guest-facing payment notifications. The
// current implementation writes structured log events consumed by the
// platform's notification pipeline; swapping in a direct email/SMS sender
// only means implementing application.Notifier.
package notification

import (
	"context"
	"log/slog"
)

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifications")}
}

func (n *LogNotifier) SendPaymentSuccess(ctx context.Context, userID, bookingID string, amount float64, currency, methodName string) error {
	n.logger.InfoContext(ctx, "payment success notification",
		"user_id", userID,
		"booking_id", bookingID,
		"amount", amount,
		"currency", currency,
		"method", methodName)
	return nil
}

func (n *LogNotifier) SendPaymentFailed(ctx context.Context, userID, bookingID string, amount float64, currency, reason string) error {
	n.logger.InfoContext(ctx, "payment failure notification",
		"user_id", userID,
		"booking_id", bookingID,
		"amount", amount,
		"currency", currency,
		"reason", reason)
	return nil
}

func (n *LogNotifier) SendPaymentPending(ctx context.Context, userID, bookingID string, amount float64, currency, methodName, instructions string) error {
	n.logger.InfoContext(ctx, "payment pending notification",
		"user_id", userID,
		"booking_id", bookingID,
		"amount", amount,
		"currency", currency,
		"method", methodName,
		"instructions", instructions)
	return nil
}
