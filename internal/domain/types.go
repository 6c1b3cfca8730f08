// Package domain defines the core types of the payment processing subsystem.
package domain

import "time"

// PaymentType identifies a payment method family.
type PaymentType string

const (
	TypeCreditCard   PaymentType = "CREDIT_CARD"
	TypeDebitCard    PaymentType = "DEBIT_CARD"
	TypePayPal       PaymentType = "PAYPAL"
	TypeBankTransfer PaymentType = "BANK_TRANSFER"
	TypeMBWay        PaymentType = "MB_WAY"
	TypeMultibanco   PaymentType = "MULTIBANCO"
)

// DisplayName returns the human-readable name of the payment method,
// used in notifications and stored payment records.
func (t PaymentType) DisplayName() string {
	switch t {
	case TypeCreditCard:
		return "Credit Card"
	case TypeDebitCard:
		return "Debit Card"
	case TypeMBWay:
		return "MB WAY"
	case TypeMultibanco:
		return "Multibanco"
	case TypePayPal:
		return "PayPal"
	case TypeBankTransfer:
		return "Bank Transfer"
	default:
		return "Unknown"
	}
}

// PaymentStatus represents the state of a payment in its lifecycle.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusProcessing PaymentStatus = "PROCESSING"
	StatusCompleted  PaymentStatus = "COMPLETED"
	StatusFailed     PaymentStatus = "FAILED"
	StatusRefunded   PaymentStatus = "REFUNDED"
)

// BookingStatus is the lifecycle of the booking a payment confirms.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// PaymentMethodDetails is a tagged union keyed by Type. Card fields apply to
// CREDIT_CARD/DEBIT_CARD, PhoneNumber to MB_WAY; Multibanco needs no upfront
// details because the payment reference is assigned during processing.
type PaymentMethodDetails struct {
	Type           PaymentType `json:"type"`
	CardNumber     string      `json:"cardNumber,omitempty"`
	ExpiryMonth    int         `json:"expiryMonth,omitempty"`
	ExpiryYear     int         `json:"expiryYear,omitempty"`
	CVV            string      `json:"cvv,omitempty"`
	CardholderName string      `json:"cardholderName,omitempty"`
	PhoneNumber    string      `json:"phoneNumber,omitempty"`
	Email          string      `json:"email,omitempty"`
}

// PaymentRequest is the immutable input to payment processing.
type PaymentRequest struct {
	BookingID     string               `json:"bookingId"`
	UserID        string               `json:"userId"`
	Amount        float64              `json:"amount"`
	Currency      string               `json:"currency"`
	PaymentMethod PaymentMethodDetails `json:"paymentMethod"`
	Description   string               `json:"description,omitempty"`
	Metadata      map[string]any       `json:"metadata,omitempty"`
}

// PaymentResult is the outcome of a processing attempt. Success=true with
// Status=PENDING is a valid combination: the payment was initiated and awaits
// external completion (the Multibanco ATM flow).
type PaymentResult struct {
	Success          bool           `json:"success"`
	TransactionID    string         `json:"transactionId,omitempty"`
	Status           PaymentStatus  `json:"status"`
	Amount           float64        `json:"amount"`
	Currency         string         `json:"currency"`
	ProcessedAt      time.Time      `json:"processedAt"`
	Error            *PaymentError  `json:"error,omitempty"`
	ProviderResponse map[string]any `json:"providerResponse,omitempty"`
}

// RefundRequest asks a provider to return funds for a completed payment.
type RefundRequest struct {
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason,omitempty"`
}

// RefundStatus is the terminal state of a refund attempt.
type RefundStatus string

const (
	RefundCompleted RefundStatus = "COMPLETED"
	RefundFailed    RefundStatus = "FAILED"
	RefundPending   RefundStatus = "PENDING"
)

type RefundResult struct {
	Success     bool          `json:"success"`
	RefundID    string        `json:"refundId,omitempty"`
	Amount      float64       `json:"amount"`
	Status      RefundStatus  `json:"status"`
	ProcessedAt time.Time     `json:"processedAt"`
	Error       *PaymentError `json:"error,omitempty"`
}

// ValidationResult reports pre-flight validation of payment method details.
// Errors are hard failures; warnings are non-blocking (e.g. a test card).
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// TransactionAction labels a transaction log entry.
type TransactionAction string

const (
	ActionInitiate TransactionAction = "INITIATE"
	ActionProcess  TransactionAction = "PROCESS"
	ActionComplete TransactionAction = "COMPLETE"
	ActionFail     TransactionAction = "FAIL"
	ActionRefund   TransactionAction = "REFUND"
)

// TransactionLog is an append-only audit record of a single provider-call
// attempt. Entries are never mutated.
type TransactionLog struct {
	ID            string            `json:"id"`
	TransactionID string            `json:"transactionId"`
	Provider      string            `json:"provider"`
	Action        TransactionAction `json:"action"`
	Status        PaymentStatus     `json:"status"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	RequestData   map[string]any    `json:"requestData,omitempty"`
	ResponseData  map[string]any    `json:"responseData,omitempty"`
	Error         string            `json:"error,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// ProviderConfig is the read-only configuration snapshot a provider exposes.
type ProviderConfig struct {
	APIKey        string
	BaseURL       string
	Environment   string // "sandbox" or "production"
	Timeout       time.Duration
	RetryAttempts int
}

// PaymentMetrics aggregates persisted payments over a date range.
type PaymentMetrics struct {
	TotalProcessed int            `json:"totalProcessed"`
	TotalAmount    float64        `json:"totalAmount"`
	SuccessRate    float64        `json:"successRate"`
	FailureReasons map[string]int `json:"failureReasons"`
	ProviderUsage  map[string]int `json:"providerUsage"`
}
