package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// BookingStore reads and transitions the bookings that payments drive.
type BookingStore struct {
	pool *pgxpool.Pool
}

func NewBookingStore(pool *pgxpool.Pool) *BookingStore {
	return &BookingStore{pool: pool}
}

func (s *BookingStore) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, tenant_id, total_amount, status, created_at
		FROM bookings WHERE id = $1`, id,
	).Scan(&b.ID, &b.UserID, &b.TenantID, &b.TotalAmount, &b.Status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking: %w", err)
	}
	return &b, nil
}

func (s *BookingStore) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bookings SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("updating booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}
