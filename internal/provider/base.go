// Package provider implements the payment method providers: credit/debit
// card, MB WAY and Multibanco. Each provider owns method-specific validation
// and result shaping; the actual network interaction lives behind a gateway
// interface so simulated and real gateways are interchangeable.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stevie86/portugal-hostel-booking/internal/application"
	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{13,19}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
	ptMobileRe   = regexp.MustCompile(`^(\+?351)?9\d{8}$`)
	ptLandlineRe = regexp.MustCompile(`^(\+?351)?[12345678]\d{8}$`)
)

// baseProvider carries the pieces shared by all concrete providers: config,
// transaction id generation, transaction logging and common field validation.
type baseProvider struct {
	name   string
	config domain.ProviderConfig
	logs   application.TransactionLogStore
	logger *slog.Logger
}

func newBaseProvider(name string, config domain.ProviderConfig, logs application.TransactionLogStore, logger *slog.Logger) baseProvider {
	return baseProvider{name: name, config: config, logs: logs, logger: logger}
}

func (b *baseProvider) Name() string { return b.name }

func (b *baseProvider) Config() domain.ProviderConfig { return b.config }

// generateTransactionID returns an id of the form txn_<millis>_<9 digits>.
func (b *baseProvider) generateTransactionID() string {
	return fmt.Sprintf("txn_%d_%09d", time.Now().UnixMilli(), rand.Intn(1_000_000_000))
}

// logTransaction appends an audit entry. Log failures never fail the payment;
// they are reported through the structured logger only.
func (b *baseProvider) logTransaction(ctx context.Context, entry domain.TransactionLog) {
	entry.ID = "log_" + uuid.NewString()
	entry.Provider = b.name
	entry.Timestamp = time.Now()

	if err := b.logs.Append(ctx, &entry); err != nil {
		b.logger.Error("failed to append transaction log",
			"provider", b.name,
			"transaction_id", entry.TransactionID,
			"action", entry.Action,
			"error", err)
	}
}

// callWithTimeout runs fn under the provider's configured timeout. A deadline
// expiry maps to a retryable TIMEOUT error per the cancellation contract.
func (b *baseProvider) callWithTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx := ctx
	if b.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.config.Timeout)
		defer cancel()
	}

	err := fn(callCtx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return domain.NewTimeoutError("payment processing timed out", b.name)
	}
	return err
}

// wrapGatewayError normalizes an unexpected gateway error into a retryable
// provider error, preserving an already-typed PaymentError untouched.
func (b *baseProvider) wrapGatewayError(err error, operation string) *domain.PaymentError {
	if pe, ok := domain.AsPaymentError(err); ok {
		if pe.Provider == "" {
			pe.Provider = b.name
		}
		return pe
	}
	b.logger.Error("gateway error", "provider", b.name, "operation", operation, "error", err)
	return domain.NewProviderError(fmt.Sprintf("payment provider error: %v", err), b.name, nil)
}

// validateCommonFields runs the checks shared by all providers: Luhn card
// number, expiry ranges, CVV format and Portuguese phone formats. Fields not
// present in the details are skipped.
func (b *baseProvider) validateCommonFields(details domain.PaymentMethodDetails) domain.ValidationResult {
	var errs, warnings []string

	if details.CardNumber != "" && !isValidCardNumber(details.CardNumber) {
		errs = append(errs, "Invalid card number format")
	}

	if details.ExpiryMonth != 0 && (details.ExpiryMonth < 1 || details.ExpiryMonth > 12) {
		errs = append(errs, "Invalid expiry month")
	}

	if details.ExpiryYear != 0 {
		currentYear := time.Now().Year()
		if details.ExpiryYear < currentYear {
			errs = append(errs, "Card has expired")
		} else if details.ExpiryYear > currentYear+20 {
			warnings = append(warnings, "Card expiry year seems unusually far in the future")
		}
	}

	if details.CVV != "" && !cvvRe.MatchString(details.CVV) {
		errs = append(errs, "Invalid CVV format")
	}

	if details.PhoneNumber != "" && !isValidPortuguesePhone(details.PhoneNumber) {
		errs = append(errs, "Invalid phone number format")
	}

	return domain.ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// isValidCardNumber checks length and the Luhn checksum.
func isValidCardNumber(cardNumber string) bool {
	cleaned := stripSpaces(cardNumber)
	if !cardNumberRe.MatchString(cleaned) {
		return false
	}

	sum := 0
	double := false
	for i := len(cleaned) - 1; i >= 0; i-- {
		digit := int(cleaned[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// isValidPortuguesePhone accepts Portuguese mobile and landline numbers.
// MB WAY layers the stricter mobile-only check on top of this.
func isValidPortuguesePhone(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	return ptMobileRe.MatchString(cleaned) || ptLandlineRe.MatchString(cleaned)
}

func isValidPortugueseMobile(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	return ptMobileRe.MatchString(cleaned)
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// supportsType reports whether t is in the provider's supported set.
func supportsType(supported []domain.PaymentType, t domain.PaymentType) bool {
	for _, s := range supported {
		if s == t {
			return true
		}
	}
	return false
}
