package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// TransactionLogStore is the write-through audit log on the transaction_logs
// table. Rows are append-only; there is no update path.
type TransactionLogStore struct {
	pool *pgxpool.Pool
}

func NewTransactionLogStore(pool *pgxpool.Pool) *TransactionLogStore {
	return &TransactionLogStore{pool: pool}
}

func (s *TransactionLogStore) Append(ctx context.Context, log *domain.TransactionLog) error {
	query := `
		INSERT INTO transaction_logs
			(id, transaction_id, provider, action, status, amount, currency,
			 request_data, response_data, error, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.pool.Exec(ctx, query,
		log.ID, log.TransactionID, log.Provider, log.Action, log.Status,
		log.Amount, log.Currency, log.RequestData, log.ResponseData,
		log.Error, log.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting transaction log: %w", err)
	}
	return nil
}

func (s *TransactionLogStore) FindByTransactionID(ctx context.Context, transactionID string) ([]*domain.TransactionLog, error) {
	query := `
		SELECT id, transaction_id, provider, action, status, amount, currency,
		       request_data, response_data, error, timestamp
		FROM transaction_logs
		WHERE transaction_id = $1
		ORDER BY timestamp`
	rows, err := s.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("querying transaction logs: %w", err)
	}

	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.TransactionLog, error) {
		var l domain.TransactionLog
		err := row.Scan(&l.ID, &l.TransactionID, &l.Provider, &l.Action, &l.Status,
			&l.Amount, &l.Currency, &l.RequestData, &l.ResponseData,
			&l.Error, &l.Timestamp)
		if err != nil {
			return nil, err
		}
		return &l, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning transaction logs: %w", err)
	}
	return logs, nil
}
