package services

import (
	"context"
	"sync"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// Hand-rolled mocks with programmable function fields and call counters,
// shared by the service and worker tests.

// MockProvider implements application.Provider.
type MockProvider struct {
	mu sync.Mutex

	NameValue  string
	Types      []domain.PaymentType
	ConfigVal  domain.ProviderConfig
	ProcessFn  func(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error)
	RefundFn   func(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error)
	ValidateFn func(details domain.PaymentMethodDetails) domain.ValidationResult
	StatusFn   func(ctx context.Context, transactionID string) (domain.PaymentStatus, error)

	ProcessCalls  int
	RefundCalls   int
	ValidateCalls int
	StatusCalls   int
	ProcessTimes  []time.Time
}

func NewMockProvider(name string, types ...domain.PaymentType) *MockProvider {
	return &MockProvider{NameValue: name, Types: types}
}

func (m *MockProvider) Name() string { return m.NameValue }

func (m *MockProvider) SupportedTypes() []domain.PaymentType { return m.Types }

func (m *MockProvider) Config() domain.ProviderConfig { return m.ConfigVal }

func (m *MockProvider) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	m.mu.Lock()
	m.ProcessCalls++
	m.ProcessTimes = append(m.ProcessTimes, time.Now())
	m.mu.Unlock()
	if m.ProcessFn != nil {
		return m.ProcessFn(ctx, req)
	}
	return &domain.PaymentResult{
		Success:       true,
		TransactionID: "txn_mock_000000001",
		Status:        domain.StatusCompleted,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ProcessedAt:   time.Now(),
	}, nil
}

func (m *MockProvider) RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
	m.mu.Lock()
	m.RefundCalls++
	m.mu.Unlock()
	if m.RefundFn != nil {
		return m.RefundFn(ctx, req)
	}
	return &domain.RefundResult{
		Success:     true,
		RefundID:    "ref_mock",
		Amount:      req.Amount,
		Status:      domain.RefundCompleted,
		ProcessedAt: time.Now(),
	}, nil
}

func (m *MockProvider) ValidatePaymentMethod(details domain.PaymentMethodDetails) domain.ValidationResult {
	m.mu.Lock()
	m.ValidateCalls++
	m.mu.Unlock()
	if m.ValidateFn != nil {
		return m.ValidateFn(details)
	}
	return domain.ValidationResult{IsValid: true}
}

func (m *MockProvider) GetPaymentStatus(ctx context.Context, transactionID string) (domain.PaymentStatus, error) {
	m.mu.Lock()
	m.StatusCalls++
	m.mu.Unlock()
	if m.StatusFn != nil {
		return m.StatusFn(ctx, transactionID)
	}
	return domain.StatusCompleted, nil
}

// Attempts returns the number of ProcessPayment calls.
func (m *MockProvider) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ProcessCalls
}

// MockPaymentStore implements application.PaymentStore in memory.
type MockPaymentStore struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
	created  []*domain.Payment

	CreateErr   error
	FindErr     error
	UpdateErr   error
	CreateCalls int
	UpdateCalls int
	MetricsFn   func(ctx context.Context, tenantID string, from, to time.Time) (*domain.PaymentMetrics, error)
	PendingFn   func(ctx context.Context, method domain.PaymentType, olderThan time.Duration, limit int) ([]*domain.Payment, error)
}

func NewMockPaymentStore() *MockPaymentStore {
	return &MockPaymentStore{payments: make(map[string]*domain.Payment)}
}

func (m *MockPaymentStore) Create(_ context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.created = append(m.created, payment)
	if payment.TransactionID != nil {
		m.payments[*payment.TransactionID] = payment
	}
	return nil
}

// Created returns every successfully created payment in insertion order.
func (m *MockPaymentStore) Created() []*domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Payment, len(m.created))
	copy(out, m.created)
	return out
}

func (m *MockPaymentStore) FindByTransactionID(_ context.Context, transactionID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	payment, ok := m.payments[transactionID]
	if !ok {
		return nil, domain.NewPaymentError("payment not found", domain.CodePaymentNotFound, "", false)
	}
	return payment, nil
}

func (m *MockPaymentStore) UpdateStatus(_ context.Context, transactionID string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if payment, ok := m.payments[transactionID]; ok {
		payment.Status = status
	}
	return nil
}

func (m *MockPaymentStore) FindPendingByMethod(ctx context.Context, method domain.PaymentType, olderThan time.Duration, limit int) ([]*domain.Payment, error) {
	if m.PendingFn != nil {
		return m.PendingFn(ctx, method, olderThan, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Payment
	for _, p := range m.payments {
		if p.MethodType == method && p.Status == domain.StatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPaymentStore) Metrics(ctx context.Context, tenantID string, from, to time.Time) (*domain.PaymentMetrics, error) {
	if m.MetricsFn != nil {
		return m.MetricsFn(ctx, tenantID, from, to)
	}
	return &domain.PaymentMetrics{}, nil
}

// Stored returns the payment persisted under the transaction id, if any.
func (m *MockPaymentStore) Stored(transactionID string) *domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[transactionID]
}

// Seed inserts a payment directly, bypassing the error hooks.
func (m *MockPaymentStore) Seed(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.TransactionID != nil {
		m.payments[*payment.TransactionID] = payment
	}
}

// MockBookingStore implements application.BookingStore in memory.
type MockBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking

	FindErr     error
	UpdateErr   error
	UpdateCalls int
}

func NewMockBookingStore(bookings ...*domain.Booking) *MockBookingStore {
	store := &MockBookingStore{bookings: make(map[string]*domain.Booking)}
	for _, b := range bookings {
		store.bookings[b.ID] = b
	}
	return store
}

func (m *MockBookingStore) FindByID(_ context.Context, id string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	booking, ok := m.bookings[id]
	if !ok {
		return nil, domain.NewPaymentError("booking not found", domain.CodeBookingNotFound, "", false)
	}
	return booking, nil
}

func (m *MockBookingStore) UpdateStatus(_ context.Context, id string, status domain.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if booking, ok := m.bookings[id]; ok {
		booking.Status = status
	}
	return nil
}

// Status returns the current status of a booking.
func (m *MockBookingStore) Status(id string) domain.BookingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if booking, ok := m.bookings[id]; ok {
		return booking.Status
	}
	return ""
}

// MockNotifier implements application.Notifier, counting dispatches.
type MockNotifier struct {
	mu sync.Mutex

	Err           error
	SuccessCalls  int
	FailedCalls   int
	PendingCalls  int
	LastReason    string
	LastInstructs string
}

func (m *MockNotifier) SendPaymentSuccess(_ context.Context, _, _ string, _ float64, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessCalls++
	return m.Err
}

func (m *MockNotifier) SendPaymentFailed(_ context.Context, _, _ string, _ float64, _, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedCalls++
	m.LastReason = reason
	return m.Err
}

func (m *MockNotifier) SendPaymentPending(_ context.Context, _, _ string, _ float64, _, _, instructions string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PendingCalls++
	m.LastInstructs = instructions
	return m.Err
}

func (m *MockNotifier) Counts() (success, failed, pending int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SuccessCalls, m.FailedCalls, m.PendingCalls
}
