package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftmarket/suspension-service/internal/domain"
)

// ShiftRepository is the read-only view over shift assignments owned
// by the scheduling service, used to validate audit linkage.
type ShiftRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Shift, error)
}

type shiftRepository struct {
	pool *pgxpool.Pool
}

// NewShiftRepository constructs repository.
func NewShiftRepository(pool *pgxpool.Pool) ShiftRepository {
	return &shiftRepository{pool: pool}
}

func (r *shiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	const query = `
        SELECT id, business_id, worker_id, starts_at, ends_at
        FROM shifts WHERE id=$1`
	var s domain.Shift
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.BusinessID,
		&s.WorkerID,
		&s.StartsAt,
		&s.EndsAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
