package provider

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/application"
	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// multibancoWeights are the check-digit weights applied to the 8 leading
// digits of a payment reference.
var multibancoWeights = [8]int{9, 8, 7, 6, 5, 4, 3, 2}

// MultibancoProvider handles banking-network payments through Multibanco.
// Unlike card and MB WAY payments, the usual outcome is a PENDING result
// carrying an entity/reference pair the guest pays at an ATM within 3 days.
type MultibancoProvider struct {
	baseProvider
	gateway MultibancoGateway
}

func NewMultibancoProvider(config domain.ProviderConfig, gateway MultibancoGateway, logs application.TransactionLogStore, logger *slog.Logger) *MultibancoProvider {
	return &MultibancoProvider{
		baseProvider: newBaseProvider("Multibanco", config, logs, logger),
		gateway:      gateway,
	}
}

func (p *MultibancoProvider) SupportedTypes() []domain.PaymentType {
	return []domain.PaymentType{domain.TypeMultibanco}
}

func (p *MultibancoProvider) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
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

	var ref *MultibancoReference
	err := p.callWithTimeout(ctx, func(ctx context.Context) error {
		var err error
		ref, err = p.gateway.CreateReference(ctx, MultibancoOrder{
			TransactionID: transactionID,
			Amount:        req.Amount,
			Currency:      req.Currency,
			ExpiryDays:    3,
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

	response := map[string]any{
		"entity":      ref.Entity,
		"reference":   ref.Reference,
		"expiry_date": ref.ExpiresAt.Format(time.RFC3339),
	}

	result := &domain.PaymentResult{
		Success:          true,
		TransactionID:    transactionID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		ProcessedAt:      time.Now(),
		ProviderResponse: response,
	}
	if ref.Paid {
		result.Status = domain.StatusCompleted
		response["status"] = "completed"
	} else {
		// Initiated successfully; the guest completes payment at an ATM.
		result.Status = domain.StatusPending
		response["status"] = "pending_payment"
		response["instructions"] = "Please complete payment at ATM or online banking within 3 days"
	}

	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: transactionID,
		Action:        domain.ActionProcess,
		Status:        result.Status,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ResponseData:  response,
	})
	return result, nil
}

func (p *MultibancoProvider) RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
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

	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: req.TransactionID,
		Action:        domain.ActionComplete,
		Status:        domain.StatusRefunded,
		Amount:        req.Amount,
		Currency:      "EUR",
		ResponseData:  map[string]any{"refund_id": outcome.RefundID},
	})
	return &domain.RefundResult{
		Success:     true,
		RefundID:    outcome.RefundID,
		Amount:      req.Amount,
		Status:      domain.RefundCompleted,
		ProcessedAt: time.Now(),
	}, nil
}

// ValidatePaymentMethod needs no upfront user details: the payment reference
// is generated during processing. Only the type gate and the shared field
// checks apply.
func (p *MultibancoProvider) ValidatePaymentMethod(details domain.PaymentMethodDetails) domain.ValidationResult {
	if details.Type != domain.TypeMultibanco {
		return invalid("Invalid payment type for Multibanco provider")
	}
	return p.validateCommonFields(details)
}

func (p *MultibancoProvider) GetPaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	var status domain.PaymentStatus
	err := p.callWithTimeout(ctx, func(ctx context.Context) error {
		var err error
		status, err = p.gateway.PaymentStatus(ctx, transactionID)
		return err
	})
	if err != nil {
		return "", p.wrapGatewayError(err, "getPaymentStatus")
	}
	return status, nil
}

func (p *MultibancoProvider) failPayment(ctx context.Context, transactionID string, req domain.PaymentRequest, pe *domain.PaymentError) *domain.PaymentResult {
	p.logFailure(ctx, transactionID, req, pe)
	return failedResult(transactionID, req, pe)
}

func (p *MultibancoProvider) logFailure(ctx context.Context, transactionID string, req domain.PaymentRequest, pe *domain.PaymentError) {
	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: transactionID,
		Action:        domain.ActionFail,
		Status:        domain.StatusFailed,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Error:         pe.Error(),
	})
}

// GenerateMultibancoReference returns a 9-digit payment reference: 8 random
// digits plus the weighted check digit.
func GenerateMultibancoReference() string {
	digits := fmt.Sprintf("%08d", rand.Intn(100_000_000))
	return fmt.Sprintf("%s%d", digits, multibancoCheckDigit(digits))
}

// IsValidMultibancoReference checks a 9-digit reference against the weighted
// check-digit scheme.
func IsValidMultibancoReference(reference string) bool {
	if len(reference) != 9 {
		return false
	}
	for _, r := range reference {
		if r < '0' || r > '9' {
			return false
		}
	}
	return int(reference[8]-'0') == multibancoCheckDigit(reference[:8])
}

// multibancoCheckDigit computes 11 - (Σ digit[i]×weight[i] mod 11), with
// remainders 0 and 1 collapsing to check digit 0.
func multibancoCheckDigit(digits string) int {
	sum := 0
	for i := 0; i < 8; i++ {
		sum += int(digits[i]-'0') * multibancoWeights[i]
	}
	remainder := sum % 11
	if remainder == 0 || remainder == 1 {
		return 0
	}
	return 11 - remainder
}
