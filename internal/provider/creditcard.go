package provider

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/application"
	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

var (
	visaRe       = regexp.MustCompile(`^4`)
	mastercardRe = regexp.MustCompile(`^5[1-5]|^2[2-7]`)
	amexRe       = regexp.MustCompile(`^3[47]`)
	discoverRe   = regexp.MustCompile(`^6(?:011|5)`)
)

// Well-known sandbox card numbers. Accepted with a warning so live form
// validation can flag them without blocking sandbox flows.
var testCards = map[string]bool{
	"4242424242424242": true,
	"4000000000000002": true,
	"5555555555554444": true,
	"378282246310005":  true,
}

// CreditCardProvider handles credit and debit card payments.
type CreditCardProvider struct {
	baseProvider
	gateway CardGateway
}

func NewCreditCardProvider(config domain.ProviderConfig, gateway CardGateway, logs application.TransactionLogStore, logger *slog.Logger) *CreditCardProvider {
	return &CreditCardProvider{
		baseProvider: newBaseProvider("Credit Card", config, logs, logger),
		gateway:      gateway,
	}
}

func (p *CreditCardProvider) SupportedTypes() []domain.PaymentType {
	return []domain.PaymentType{domain.TypeCreditCard, domain.TypeDebitCard}
}

func (p *CreditCardProvider) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	transactionID := p.generateTransactionID()

	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: transactionID,
		Action:        domain.ActionInitiate,
		Status:        domain.StatusPending,
		Amount:        req.Amount,
		Currency:      req.Currency,
		RequestData:   paymentRequestSnapshot(req),
	})

	if req.Amount <= 0 {
		return p.failPayment(ctx, transactionID, req,
			domain.NewPaymentError("Invalid payment amount", domain.CodeInvalidAmount, p.name, false)), nil
	}

	if validation := p.ValidatePaymentMethod(req.PaymentMethod); !validation.IsValid {
		return p.failPayment(ctx, transactionID, req,
			domain.NewValidationError("invalid payment method", validation.Errors)), nil
	}

	var outcome *CardChargeOutcome
	err := p.callWithTimeout(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = p.gateway.Charge(ctx, CardCharge{
			TransactionID:  transactionID,
			Amount:         req.Amount,
			Currency:       req.Currency,
			CardNumber:     stripSpaces(req.PaymentMethod.CardNumber),
			ExpiryMonth:    req.PaymentMethod.ExpiryMonth,
			ExpiryYear:     req.PaymentMethod.ExpiryYear,
			CVV:            req.PaymentMethod.CVV,
			CardholderName: req.PaymentMethod.CardholderName,
		})
		return err
	})
	if err != nil {
		pe := p.wrapGatewayError(err, "processPayment")
		if pe.Retryable {
			p.logFailure(ctx, transactionID, req, pe)
			return nil, pe
		}
		return p.failPayment(ctx, transactionID, req, pe), nil
	}

	if !outcome.Approved {
		result := &domain.PaymentResult{
			Success:     false,
			Status:      domain.StatusFailed,
			Amount:      req.Amount,
			Currency:    req.Currency,
			ProcessedAt: time.Now(),
			Error:       domain.NewPaymentError("Credit card payment failed", domain.CodePaymentFailed, p.name, false),
			ProviderResponse: map[string]any{
				"error_code":    outcome.DeclineCode,
				"error_message": outcome.DeclineMessage,
			},
		}
		p.logProcess(ctx, transactionID, req, result)
		return result, nil
	}

	cleaned := stripSpaces(req.PaymentMethod.CardNumber)
	brand, _ := cardBrand(cleaned)
	result := &domain.PaymentResult{
		Success:       true,
		TransactionID: transactionID,
		Status:        domain.StatusCompleted,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ProcessedAt:   time.Now(),
		ProviderResponse: map[string]any{
			"charge_id":  outcome.ChargeID,
			"card_last4": cleaned[len(cleaned)-4:],
			"card_brand": brand,
			"status":     "succeeded",
		},
	}
	p.logProcess(ctx, transactionID, req, result)
	return result, nil
}

func (p *CreditCardProvider) RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: req.TransactionID,
		Action:        domain.ActionRefund,
		Status:        domain.StatusProcessing,
		Amount:        req.Amount,
		Currency:      "EUR",
	})

	var outcome *RefundOutcome
	err := p.callWithTimeout(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = p.gateway.Refund(ctx, req.TransactionID, req.Amount)
		return err
	})
	if err != nil {
		pe := p.wrapGatewayError(err, "refundPayment")
		if pe.Retryable {
			return nil, pe
		}
		return &domain.RefundResult{
			Success:     false,
			Amount:      req.Amount,
			Status:      domain.RefundFailed,
			ProcessedAt: time.Now(),
			Error:       pe,
		}, nil
	}

	result := &domain.RefundResult{
		Success:     true,
		RefundID:    outcome.RefundID,
		Amount:      req.Amount,
		Status:      domain.RefundCompleted,
		ProcessedAt: time.Now(),
	}
	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: req.TransactionID,
		Action:        domain.ActionComplete,
		Status:        domain.StatusRefunded,
		Amount:        req.Amount,
		Currency:      "EUR",
		ResponseData:  map[string]any{"refund_id": outcome.RefundID},
	})
	return result, nil
}

func (p *CreditCardProvider) ValidatePaymentMethod(details domain.PaymentMethodDetails) domain.ValidationResult {
	if !supportsType(p.SupportedTypes(), details.Type) {
		return invalid("Invalid payment type for credit card provider")
	}
	if details.CardNumber == "" {
		return invalid("Card number is required")
	}
	if details.ExpiryMonth == 0 || details.ExpiryYear == 0 {
		return invalid("Card expiry date is required")
	}
	if details.CVV == "" {
		return invalid("CVV is required")
	}
	if details.CardholderName == "" {
		return invalid("Cardholder name is required")
	}

	result := p.validateCommonFields(details)

	cleaned := stripSpaces(details.CardNumber)
	if _, ok := cardBrand(cleaned); !ok {
		result.Errors = append(result.Errors, "Unsupported card type")
	}
	if testCards[cleaned] {
		result.Warnings = append(result.Warnings, "Test card detected - this will only work in sandbox mode")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func (p *CreditCardProvider) GetPaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	var status domain.PaymentStatus
	err := p.callWithTimeout(ctx, func(ctx context.Context) error {
		var err error
		status, err = p.gateway.ChargeStatus(ctx, transactionID)
		return err
	})
	if err != nil {
		return "", p.wrapGatewayError(err, "getPaymentStatus")
	}
	return status, nil
}

// failPayment logs a FAIL entry and shapes the business rejection into a
// failed result carrying the transaction id of the attempt.
func (p *CreditCardProvider) failPayment(ctx context.Context, transactionID string, req domain.PaymentRequest, pe *domain.PaymentError) *domain.PaymentResult {
	p.logFailure(ctx, transactionID, req, pe)
	return failedResult(transactionID, req, pe)
}

func (p *CreditCardProvider) logFailure(ctx context.Context, transactionID string, req domain.PaymentRequest, pe *domain.PaymentError) {
	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: transactionID,
		Action:        domain.ActionFail,
		Status:        domain.StatusFailed,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Error:         pe.Error(),
	})
}

func (p *CreditCardProvider) logProcess(ctx context.Context, transactionID string, req domain.PaymentRequest, result *domain.PaymentResult) {
	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: transactionID,
		Action:        domain.ActionProcess,
		Status:        result.Status,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ResponseData:  result.ProviderResponse,
	})
}

// cardBrand detects the card network from the number prefix.
func cardBrand(cardNumber string) (string, bool) {
	switch {
	case visaRe.MatchString(cardNumber):
		return "visa", true
	case mastercardRe.MatchString(cardNumber):
		return "mastercard", true
	case amexRe.MatchString(cardNumber):
		return "amex", true
	case discoverRe.MatchString(cardNumber):
		return "discover", true
	default:
		return "", false
	}
}
