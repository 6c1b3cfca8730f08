package rest

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewServer builds the echo instance with middleware and routes.
func NewServer(h *Handlers, logger *slog.Logger, requestTimeout time.Duration) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency)
			return nil
		},
	}))
	if requestTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{Timeout: requestTimeout}))
	}

	e.GET("/health", h.Health)

	v1 := e.Group("/api/v1")
	v1.POST("/payments", h.ProcessPayment)
	v1.POST("/payments/validate", h.ValidatePaymentMethod)
	v1.GET("/payments/:transactionId/status", h.GetPaymentStatus)
	v1.GET("/payments/:transactionId/logs", h.GetTransactionLogs)
	v1.GET("/payment-methods", h.GetPaymentMethods)
	v1.POST("/refunds", h.ProcessRefund)
	v1.GET("/metrics", h.GetMetrics)

	return e
}
