package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/application"
	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// MBWayProvider handles mobile payments through MB WAY.
type MBWayProvider struct {
	baseProvider
	gateway MBWayGateway
}

func NewMBWayProvider(config domain.ProviderConfig, gateway MBWayGateway, logs application.TransactionLogStore, logger *slog.Logger) *MBWayProvider {
	return &MBWayProvider{
		baseProvider: newBaseProvider("MB WAY", config, logs, logger),
		gateway:      gateway,
	}
}

func (p *MBWayProvider) SupportedTypes() []domain.PaymentType {
	return []domain.PaymentType{domain.TypeMBWay}
}

func (p *MBWayProvider) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
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

	var outcome *MBWayOutcome
	err := p.callWithTimeout(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = p.gateway.RequestPayment(ctx, MBWayCharge{
			TransactionID: transactionID,
			PhoneNumber:   req.PaymentMethod.PhoneNumber,
			Amount:        req.Amount,
			Currency:      req.Currency,
			Description:   req.Description,
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

	var result *domain.PaymentResult
	if outcome.Approved {
		result = &domain.PaymentResult{
			Success:       true,
			TransactionID: transactionID,
			Status:        domain.StatusCompleted,
			Amount:        req.Amount,
			Currency:      req.Currency,
			ProcessedAt:   time.Now(),
			ProviderResponse: map[string]any{
				"mbway_reference": outcome.Reference,
				"phone_number":    req.PaymentMethod.PhoneNumber,
				"status":          "completed",
			},
		}
	} else {
		result = &domain.PaymentResult{
			Success:     false,
			Status:      domain.StatusFailed,
			Amount:      req.Amount,
			Currency:    req.Currency,
			ProcessedAt: time.Now(),
			Error:       domain.NewPaymentError("MB WAY payment failed", domain.CodePaymentFailed, p.name, false),
			ProviderResponse: map[string]any{
				"error_code":    outcome.DeclineCode,
				"error_message": outcome.DeclineMessage,
			},
		}
	}

	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: transactionID,
		Action:        domain.ActionProcess,
		Status:        result.Status,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ResponseData:  result.ProviderResponse,
	})
	return result, nil
}

func (p *MBWayProvider) RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
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

// ValidatePaymentMethod requires a Portuguese mobile number: MB WAY accounts
// are bound to mobile phones, so the permissive landline check is not enough.
func (p *MBWayProvider) ValidatePaymentMethod(details domain.PaymentMethodDetails) domain.ValidationResult {
	if details.Type != domain.TypeMBWay {
		return invalid("Invalid payment type for MB WAY provider")
	}
	if details.PhoneNumber == "" {
		return invalid("Phone number is required for MB WAY payments")
	}

	result := p.validateCommonFields(details)
	if !isValidPortugueseMobile(details.PhoneNumber) {
		result.Errors = append(result.Errors, "Invalid Portuguese mobile number format for MB WAY")
	}
	result.IsValid = len(result.Errors) == 0
	return result
}

func (p *MBWayProvider) GetPaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
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

func (p *MBWayProvider) failPayment(ctx context.Context, transactionID string, req domain.PaymentRequest, pe *domain.PaymentError) *domain.PaymentResult {
	p.logFailure(ctx, transactionID, req, pe)
	return failedResult(transactionID, req, pe)
}

func (p *MBWayProvider) logFailure(ctx context.Context, transactionID string, req domain.PaymentRequest, pe *domain.PaymentError) {
	p.logTransaction(ctx, domain.TransactionLog{
		TransactionID: transactionID,
		Action:        domain.ActionFail,
		Status:        domain.StatusFailed,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Error:         pe.Error(),
	})
}
