package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftmarket/suspension-service/internal/domain"
)

// WorkerRepository is the directory of externally-owned workers this
// service knows about, holding only the reference and the cached
// enforcement projection, plus the resettable strike counters.
type WorkerRepository interface {
	Get(ctx context.Context, id string) (*domain.Worker, error)
	Ensure(ctx context.Context, id string) error
	UpdateCache(ctx context.Context, id string, cache domain.WorkerCache) error
	GetStrikes(ctx context.Context, workerID string) (map[domain.ViolationCategory]int, error)
	IncrementStrike(ctx context.Context, workerID string, category domain.ViolationCategory) (int, error)
	DecrementStrike(ctx context.Context, workerID string, category domain.ViolationCategory) error
	ResetStrikes(ctx context.Context, workerID string) (int, error)
}

type workerRepository struct {
	pool *pgxpool.Pool
}

// NewWorkerRepository constructs repository.
func NewWorkerRepository(pool *pgxpool.Pool) WorkerRepository {
	return &workerRepository{pool: pool}
}

func (r *workerRepository) Get(ctx context.Context, id string) (*domain.Worker, error) {
	const query = `
        SELECT id, is_suspended, strike_count, suspension_count, updated_at
        FROM workers WHERE id=$1`
	var w domain.Worker
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.IsSuspended,
		&w.StrikeCount,
		&w.SuspensionCount,
		&w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *workerRepository) Ensure(ctx context.Context, id string) error {
	const query = `INSERT INTO workers (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *workerRepository) UpdateCache(ctx context.Context, id string, cache domain.WorkerCache) error {
	const query = `
        UPDATE workers SET is_suspended=$1, strike_count=$2, suspension_count=$3, updated_at=NOW()
        WHERE id=$4`
	_, err := r.pool.Exec(ctx, query, cache.IsSuspended, cache.StrikeCount, cache.SuspensionCount, id)
	return err
}

func (r *workerRepository) GetStrikes(ctx context.Context, workerID string) (map[domain.ViolationCategory]int, error) {
	const query = `SELECT category, strikes FROM worker_strikes WHERE worker_id=$1`
	rows, err := r.pool.Query(ctx, query, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	strikes := map[domain.ViolationCategory]int{}
	for rows.Next() {
		var category domain.ViolationCategory
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		strikes[category] = count
	}
	return strikes, rows.Err()
}

// IncrementStrike bumps the resettable counter for one category and
// returns the new value.
func (r *workerRepository) IncrementStrike(ctx context.Context, workerID string, category domain.ViolationCategory) (int, error) {
	const query = `
        INSERT INTO worker_strikes (worker_id, category, strikes) VALUES ($1,$2,1)
        ON CONFLICT (worker_id, category)
        DO UPDATE SET strikes = worker_strikes.strikes + 1, updated_at = NOW()
        RETURNING strikes`
	var strikes int
	err := r.pool.QueryRow(ctx, query, workerID, category).Scan(&strikes)
	return strikes, err
}

// DecrementStrike undoes one increment, clamped at zero. Used to roll
// the counter back when the suspension insert fails after the bump.
func (r *workerRepository) DecrementStrike(ctx context.Context, workerID string, category domain.ViolationCategory) error {
	const query = `
        UPDATE worker_strikes SET strikes = GREATEST(strikes - 1, 0), updated_at = NOW()
        WHERE worker_id=$1 AND category=$2`
	_, err := r.pool.Exec(ctx, query, workerID, category)
	return err
}

// ResetStrikes zeroes every category counter and returns the previous
// total. Historical suspension records are untouched.
func (r *workerRepository) ResetStrikes(ctx context.Context, workerID string) (int, error) {
	const query = `
        WITH previous AS (
            SELECT COALESCE(SUM(strikes), 0) AS total FROM worker_strikes WHERE worker_id=$1
        ), cleared AS (
            UPDATE worker_strikes SET strikes=0, updated_at=NOW() WHERE worker_id=$1
        )
        SELECT total FROM previous`
	var previous int
	err := r.pool.QueryRow(ctx, query, workerID).Scan(&previous)
	return previous, err
}
