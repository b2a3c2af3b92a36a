package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

// ShiftRepository reads the on-call schedule.
type ShiftRepository interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Shift, error)
}

type shiftRepository struct {
	pool *pgxpool.Pool
}

// NewShiftRepository instantiates repository.
func NewShiftRepository(pool *pgxpool.Pool) ShiftRepository {
	return &shiftRepository{pool: pool}
}

// ListBetween returns shifts overlapping [from, to], ordered by start.
func (r *shiftRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Shift, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	const query = `
        SELECT actor_id, starts_at, ends_at
        FROM oncall_shifts
        WHERE starts_at <= $2 AND ends_at >= $1
        ORDER BY starts_at, actor_id`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0)
	for rows.Next() {
		var s domain.Shift
		if err := rows.Scan(&s.ActorID, &s.Start, &s.End); err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}
