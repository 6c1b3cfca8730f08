package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// PaymentStore persists payment records in the payments table.
type PaymentStore struct {
	pool *pgxpool.Pool
}

func NewPaymentStore(pool *pgxpool.Pool) *PaymentStore {
	return &PaymentStore{pool: pool}
}

const paymentColumns = `id, tenant_id, booking_id, user_id, amount, currency,
	method_type, method_name, status, transaction_id, metadata, created_at, updated_at`

func (s *PaymentStore) Create(ctx context.Context, payment *domain.Payment) error {
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := s.pool.Exec(ctx, query,
		payment.ID, payment.TenantID, payment.BookingID, payment.UserID,
		payment.Amount, payment.Currency, payment.MethodType, payment.MethodName,
		payment.Status, payment.TransactionID, payment.Metadata,
		payment.CreatedAt, payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func (s *PaymentStore) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`
	rows, err := s.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("querying payment: %w", err)
	}

	payment, err := pgx.CollectOneRow(rows, scanPayment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning payment: %w", err)
	}
	return payment, nil
}

func (s *PaymentStore) UpdateStatus(ctx context.Context, transactionID string, status domain.PaymentStatus) error {
	query := `UPDATE payments SET status = $2, updated_at = now() WHERE transaction_id = $1`
	tag, err := s.pool.Exec(ctx, query, transactionID, status)
	if err != nil {
		return fmt.Errorf("updating payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// FindPendingByMethod returns PENDING payments of the given method created
// before now-olderThan, oldest first. The reconciler uses this to pick up
// Multibanco payments awaiting settlement.
func (s *PaymentStore) FindPendingByMethod(ctx context.Context, method domain.PaymentType, olderThan time.Duration, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE method_type = $1 AND status = $2 AND created_at <= $3
		ORDER BY created_at
		LIMIT $4`
	rows, err := s.pool.Query(ctx, query,
		method, domain.StatusPending, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("querying pending payments: %w", err)
	}

	payments, err := pgx.CollectRows(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("scanning pending payments: %w", err)
	}
	return payments, nil
}

// Metrics aggregates a tenant's payments over [from, to].
func (s *PaymentStore) Metrics(ctx context.Context, tenantID string, from, to time.Time) (*domain.PaymentMetrics, error) {
	metrics := &domain.PaymentMetrics{
		FailureReasons: make(map[string]int),
		ProviderUsage:  make(map[string]int),
	}

	var completed int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       coalesce(sum(amount), 0),
		       count(*) FILTER (WHERE status = $4)
		FROM payments
		WHERE tenant_id = $1 AND created_at BETWEEN $2 AND $3`,
		tenantID, from, to, domain.StatusCompleted,
	).Scan(&metrics.TotalProcessed, &metrics.TotalAmount, &completed)
	if err != nil {
		return nil, fmt.Errorf("aggregating payments: %w", err)
	}
	if metrics.TotalProcessed > 0 {
		metrics.SuccessRate = float64(completed) / float64(metrics.TotalProcessed)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT coalesce(metadata->>'error_code', 'UNKNOWN'), count(*)
		FROM payments
		WHERE tenant_id = $1 AND created_at BETWEEN $2 AND $3 AND status = $4
		GROUP BY 1`,
		tenantID, from, to, domain.StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("aggregating failure reasons: %w", err)
	}
	for rows.Next() {
		var reason string
		var count int
		if err := rows.Scan(&reason, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning failure reasons: %w", err)
		}
		metrics.FailureReasons[reason] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading failure reasons: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT method_name, count(*)
		FROM payments
		WHERE tenant_id = $1 AND created_at BETWEEN $2 AND $3
		GROUP BY 1`,
		tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregating provider usage: %w", err)
	}
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning provider usage: %w", err)
		}
		metrics.ProviderUsage[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading provider usage: %w", err)
	}

	return metrics, nil
}

func scanPayment(row pgx.CollectableRow) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(&p.ID, &p.TenantID, &p.BookingID, &p.UserID,
		&p.Amount, &p.Currency, &p.MethodType, &p.MethodName,
		&p.Status, &p.TransactionID, &p.Metadata, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
