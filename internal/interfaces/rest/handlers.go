// Package rest exposes the payment service over HTTP.
package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stevie86/portugal-hostel-booking/internal/application/services"
	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

type Handlers struct {
	service *services.PaymentService
	logger  *slog.Logger
}

func NewHandlers(service *services.PaymentService, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

type processPaymentRequest struct {
	domain.PaymentRequest
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

type errorResponse struct {
	Error *domain.PaymentError `json:"error"`
}

func (h *Handlers) ProcessPayment(c echo.Context) error {
	var req processPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: domain.NewValidationError("invalid request body", nil),
		})
	}

	result, err := h.service.ProcessPaymentWithOptions(c.Request().Context(), req.PaymentRequest,
		services.ProcessOptions{IdempotencyKey: req.IdempotencyKey})
	if err != nil {
		return h.paymentError(c, err)
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, result)
}

func (h *Handlers) ValidatePaymentMethod(c echo.Context) error {
	var details domain.PaymentMethodDetails
	if err := c.Bind(&details); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: domain.NewValidationError("invalid request body", nil),
		})
	}

	result, err := h.service.ValidatePaymentMethod(details)
	if err != nil {
		return h.paymentError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handlers) GetPaymentMethods(c echo.Context) error {
	methods := h.service.GetAvailablePaymentMethods(c.QueryParam("tenantId"))
	out := make([]map[string]any, 0, len(methods))
	for _, m := range methods {
		out = append(out, map[string]any{
			"type": m,
			"name": m.DisplayName(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"paymentMethods": out})
}

func (h *Handlers) GetPaymentStatus(c echo.Context) error {
	transactionID := c.Param("transactionId")
	status, err := h.service.GetPaymentStatus(c.Request().Context(), transactionID)
	if err != nil {
		return h.paymentError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"transactionId": transactionID,
		"status":        status,
	})
}

func (h *Handlers) GetTransactionLogs(c echo.Context) error {
	transactionID := c.Param("transactionId")
	logs, err := h.service.GetTransactionLogs(c.Request().Context(), transactionID)
	if err != nil {
		return h.paymentError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"transactionId": transactionID,
		"logs":          logs,
	})
}

func (h *Handlers) ProcessRefund(c echo.Context) error {
	var req domain.RefundRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: domain.NewValidationError("invalid request body", nil),
		})
	}

	result, err := h.service.ProcessRefund(c.Request().Context(), req)
	if err != nil {
		return h.paymentError(c, err)
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, result)
}

func (h *Handlers) GetMetrics(c echo.Context) error {
	tenantID := c.QueryParam("tenantId")

	to := time.Now()
	from := to.AddDate(0, -1, 0)
	if v := c.QueryParam("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Error: domain.NewValidationError("invalid 'from' timestamp", nil),
			})
		}
		from = parsed
	}
	if v := c.QueryParam("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Error: domain.NewValidationError("invalid 'to' timestamp", nil),
			})
		}
		to = parsed
	}

	metrics, err := h.service.GetPaymentMetrics(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return h.paymentError(c, err)
	}
	return c.JSON(http.StatusOK, metrics)
}

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// paymentError maps a service error to an HTTP status.
func (h *Handlers) paymentError(c echo.Context, err error) error {
	pe, ok := domain.AsPaymentError(err)
	if !ok {
		h.logger.Error("unhandled service error", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error: domain.NewPaymentError("internal error", domain.CodeProviderError, "", false),
		})
	}

	status := http.StatusInternalServerError
	switch pe.Code {
	case domain.CodeValidationError, domain.CodeInvalidAmount, domain.CodeProviderNotFound:
		status = http.StatusBadRequest
	case domain.CodePaymentNotFound, domain.CodeBookingNotFound:
		status = http.StatusNotFound
	case domain.CodeInvalidBookingState, domain.CodeRefundFailed:
		status = http.StatusConflict
	case domain.CodeTimeout, domain.CodeProviderError:
		status = http.StatusBadGateway
	}
	return c.JSON(status, errorResponse{Error: pe})
}
