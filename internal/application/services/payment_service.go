// Package services contains the payment orchestrator: provider registry,
// retry policy, persistence, booking lifecycle coupling and notification
// dispatch.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stevie86/portugal-hostel-booking/internal/application"
	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// Config carries the orchestrator settings.
type Config struct {
	DefaultTenantID  string
	MaxRetryAttempts int
	RetryDelay       time.Duration
}

// ProcessOptions tune a single ProcessPayment call. The zero value gives the
// default policy: retry infrastructure faults only, up to the configured bound.
type ProcessOptions struct {
	// MaxRetries overrides the configured attempt bound when > 0.
	MaxRetries int
	// RetryOnFailure also retries business failures (declined payments),
	// not just infrastructure faults. Off by default.
	RetryOnFailure bool
	// IdempotencyKey is stored in the payment metadata for reconciliation
	// against caller-side retries.
	IdempotencyKey string
}

// PaymentService orchestrates payment processing across the registered
// providers. Providers are registered explicitly at wiring time; there is no
// implicit discovery.
type PaymentService struct {
	providers map[domain.PaymentType]application.Provider
	payments  application.PaymentStore
	logs      application.TransactionLogStore
	bookings  application.BookingStore
	notifier  application.Notifier
	config    Config
	logger    *slog.Logger
}

func NewPaymentService(
	config Config,
	payments application.PaymentStore,
	logs application.TransactionLogStore,
	bookings application.BookingStore,
	notifier application.Notifier,
	logger *slog.Logger,
) *PaymentService {
	if config.MaxRetryAttempts <= 0 {
		config.MaxRetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	return &PaymentService{
		providers: make(map[domain.PaymentType]application.Provider),
		payments:  payments,
		logs:      logs,
		bookings:  bookings,
		notifier:  notifier,
		config:    config,
		logger:    logger,
	}
}

// RegisterProvider binds a provider to every payment type it supports.
// Registering a second provider for the same type replaces the first.
func (s *PaymentService) RegisterProvider(p application.Provider) {
	for _, t := range p.SupportedTypes() {
		s.providers[t] = p
	}
	s.logger.Info("payment provider registered",
		"provider", p.Name(),
		"types", p.SupportedTypes())
}

// Provider returns the provider registered for the payment type.
func (s *PaymentService) Provider(t domain.PaymentType) (application.Provider, bool) {
	p, ok := s.providers[t]
	return p, ok
}

// GetAvailablePaymentMethods lists the payment types available to a tenant,
// sorted for a stable API response. The registry is tenant-global today; the
// tenant id keeps the contract stable for per-tenant provider enablement.
func (s *PaymentService) GetAvailablePaymentMethods(tenantID string) []domain.PaymentType {
	methods := make([]domain.PaymentType, 0, len(s.providers))
	for t := range s.providers {
		methods = append(methods, t)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// ProcessPayment runs the default processing policy.
func (s *PaymentService) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	return s.ProcessPaymentWithOptions(ctx, req, ProcessOptions{})
}

// ProcessPaymentWithOptions processes a payment end to end: booking gate,
// provider lookup, pre-flight validation, the retry loop, persistence, the
// booking status transition and guest notification.
//
// Business failures come back as a PaymentResult with Success=false; an error
// return means the payment could not be processed at all (unknown booking or
// provider, or an infrastructure fault that survived the retry budget).
// Persistence and notification problems never fail a processed payment.
func (s *PaymentService) ProcessPaymentWithOptions(ctx context.Context, req domain.PaymentRequest, opts ProcessOptions) (*domain.PaymentResult, error) {
	booking, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, domain.NewPaymentError(
			fmt.Sprintf("booking %s not found", req.BookingID),
			domain.CodeBookingNotFound, "", false)
	}
	if !booking.AcceptsPayment() {
		return nil, domain.NewPaymentError(
			fmt.Sprintf("booking %s is %s, payment not accepted", booking.ID, booking.Status),
			domain.CodeInvalidBookingState, "", false)
	}

	provider, ok := s.providers[req.PaymentMethod.Type]
	if !ok {
		return nil, domain.NewPaymentError(
			fmt.Sprintf("no payment provider registered for %s", req.PaymentMethod.Type),
			domain.CodeProviderNotFound, "", false)
	}

	// Pre-flight validation short-circuits without consuming the retry budget.
	if validation := provider.ValidatePaymentMethod(req.PaymentMethod); !validation.IsValid {
		result := &domain.PaymentResult{
			Success:     false,
			Status:      domain.StatusFailed,
			Amount:      req.Amount,
			Currency:    req.Currency,
			ProcessedAt: time.Now(),
			Error:       domain.NewValidationError("payment method validation failed", validation.Errors),
		}
		s.finishPayment(ctx, provider, req, opts, result)
		return result, nil
	}

	maxAttempts := s.config.MaxRetryAttempts
	if opts.MaxRetries > 0 {
		maxAttempts = opts.MaxRetries
	}

	result, err := s.attemptWithRetry(ctx, provider, req, opts, maxAttempts)
	if err != nil {
		failed := &domain.PaymentResult{
			Success:     false,
			Status:      domain.StatusFailed,
			Amount:      req.Amount,
			Currency:    req.Currency,
			ProcessedAt: time.Now(),
		}
		reason := err.Error()
		if pe, ok := domain.AsPaymentError(err); ok {
			reason = pe.Message
			failed.Error = pe
		} else {
			failed.Error = domain.NewPaymentError(err.Error(), domain.CodeProviderError, provider.Name(), false)
		}
		// The failure still leaves an audit trail: a FAILED payment record
		// with the error in metadata, even though no charge went through.
		s.persistPayment(ctx, provider, req, opts, failed)
		s.failBooking(ctx, req)
		s.notifyFailure(ctx, req, reason)
		s.logOutcome(ctx, provider.Name(), "", domain.ActionFail, domain.StatusFailed, req, err.Error())
		return nil, err
	}

	s.finishPayment(ctx, provider, req, opts, result)
	return result, nil
}

// attemptWithRetry runs the provider call with exponential backoff. Only
// retryable errors consume further attempts; business failures stop the loop
// unless RetryOnFailure is set.
func (s *PaymentService) attemptWithRetry(ctx context.Context, provider application.Provider, req domain.PaymentRequest, opts ProcessOptions, maxAttempts int) (*domain.PaymentResult, error) {
	var lastErr error
	var lastResult *domain.PaymentResult

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := provider.ProcessPayment(ctx, req)
		if err == nil {
			lastResult = result
			if result.Success || !opts.RetryOnFailure {
				return result, nil
			}
			// Failed result with RetryOnFailure: treat like a retryable fault.
		} else {
			lastErr = err
			if !domain.IsRetryable(err) {
				return nil, err
			}
			lastResult = nil
		}

		if attempt == maxAttempts {
			break
		}

		delay := s.config.RetryDelay * (1 << (attempt - 1))
		s.logger.Warn("payment attempt failed, retrying",
			"provider", provider.Name(),
			"booking_id", req.BookingID,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if lastResult != nil {
		return lastResult, nil
	}
	return nil, lastErr
}

// finishPayment applies the side effects of a processed payment: the persisted
// record, the booking transition and the guest notification. None of these can
// fail the payment; problems are logged and absorbed.
func (s *PaymentService) finishPayment(ctx context.Context, provider application.Provider, req domain.PaymentRequest, opts ProcessOptions, result *domain.PaymentResult) {
	s.persistPayment(ctx, provider, req, opts, result)

	switch result.Status {
	case domain.StatusCompleted:
		s.updateBooking(ctx, req.BookingID, domain.BookingConfirmed)
		if err := s.notifier.SendPaymentSuccess(ctx, req.UserID, req.BookingID, req.Amount, req.Currency, provider.Name()); err != nil {
			s.logger.Error("payment success notification failed", "booking_id", req.BookingID, "error", err)
		}
		s.logOutcome(ctx, provider.Name(), result.TransactionID, domain.ActionComplete, result.Status, req, "")

	case domain.StatusPending:
		// The booking stays PENDING until the reconciler settles the payment.
		instructions := paymentInstructions(req.PaymentMethod.Type, result)
		if err := s.notifier.SendPaymentPending(ctx, req.UserID, req.BookingID, req.Amount, req.Currency, provider.Name(), instructions); err != nil {
			s.logger.Error("payment pending notification failed", "booking_id", req.BookingID, "error", err)
		}
		s.logOutcome(ctx, provider.Name(), result.TransactionID, domain.ActionComplete, result.Status, req, "")

	default:
		s.failBooking(ctx, req)
		reason := "payment failed"
		if result.Error != nil {
			reason = result.Error.Message
		}
		s.notifyFailure(ctx, req, reason)
		s.logOutcome(ctx, provider.Name(), result.TransactionID, domain.ActionFail, result.Status, req, reason)
	}
}

func (s *PaymentService) persistPayment(ctx context.Context, provider application.Provider, req domain.PaymentRequest, opts ProcessOptions, result *domain.PaymentResult) {
	metadata := map[string]any{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if result.ProviderResponse != nil {
		metadata["provider_response"] = result.ProviderResponse
	}
	if opts.IdempotencyKey != "" {
		metadata["idempotency_key"] = opts.IdempotencyKey
	}
	if result.Error != nil {
		metadata["error_code"] = result.Error.Code
		metadata["error_message"] = result.Error.Message
	}

	payment := &domain.Payment{
		ID:         uuid.New(),
		TenantID:   s.config.DefaultTenantID,
		BookingID:  req.BookingID,
		UserID:     req.UserID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		MethodType: req.PaymentMethod.Type,
		MethodName: provider.Name(),
		Status:     result.Status,
		Metadata:   metadata,
	}
	if result.TransactionID != "" {
		payment.TransactionID = &result.TransactionID
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		s.logger.Error("failed to persist payment record",
			"booking_id", req.BookingID,
			"transaction_id", result.TransactionID,
			"error", err)
	}
}

func (s *PaymentService) updateBooking(ctx context.Context, bookingID string, status domain.BookingStatus) {
	if err := s.bookings.UpdateStatus(ctx, bookingID, status); err != nil {
		s.logger.Error("failed to update booking status",
			"booking_id", bookingID,
			"status", status,
			"error", err)
	}
}

func (s *PaymentService) failBooking(ctx context.Context, req domain.PaymentRequest) {
	s.updateBooking(ctx, req.BookingID, domain.BookingCancelled)
}

func (s *PaymentService) notifyFailure(ctx context.Context, req domain.PaymentRequest, reason string) {
	if err := s.notifier.SendPaymentFailed(ctx, req.UserID, req.BookingID, req.Amount, req.Currency, reason); err != nil {
		s.logger.Error("payment failure notification failed", "booking_id", req.BookingID, "error", err)
	}
}

// paymentInstructions builds the guest-facing text for a pending payment.
// Multibanco guests need the entity/reference pair and the validity window;
// MB WAY guests confirm in their app. Other methods fall back to whatever the
// provider supplied.
func paymentInstructions(methodType domain.PaymentType, result *domain.PaymentResult) string {
	switch methodType {
	case domain.TypeMultibanco:
		entity, _ := result.ProviderResponse["entity"].(string)
		reference, _ := result.ProviderResponse["reference"].(string)
		if entity != "" && reference != "" {
			validity := "3 days"
			if raw, ok := result.ProviderResponse["expiry_date"].(string); ok {
				if expiry, err := time.Parse(time.RFC3339, raw); err == nil {
					validity = expiry.Format("2006-01-02")
				}
			}
			return fmt.Sprintf("Please pay at your bank or ATM using: Entity: %s, Reference: %s. Valid until: %s.",
				entity, reference, validity)
		}
	case domain.TypeMBWay:
		return "Please complete the payment using your MB WAY app."
	}
	instructions, _ := result.ProviderResponse["instructions"].(string)
	return instructions
}

// logOutcome appends the orchestrator-level audit entry for a processed
// request, on top of the per-attempt entries the provider wrote.
func (s *PaymentService) logOutcome(ctx context.Context, providerName, transactionID string, action domain.TransactionAction, status domain.PaymentStatus, req domain.PaymentRequest, errMsg string) {
	entry := &domain.TransactionLog{
		ID:            "log_" + uuid.NewString(),
		TransactionID: transactionID,
		Provider:      providerName,
		Action:        action,
		Status:        status,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Error:         errMsg,
		Timestamp:     time.Now(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append orchestrator log",
			"transaction_id", transactionID,
			"error", err)
	}
}
