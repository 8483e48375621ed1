package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftmarket/suspension-service/internal/domain"
)

// HistoryRepository persists the immutable audit trail.
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.SuspensionHistory) error
	ListBySuspension(ctx context.Context, suspensionID string, limit, offset int) ([]domain.SuspensionHistory, error)
	ListByWorker(ctx context.Context, workerID string, limit, offset int) ([]domain.SuspensionHistory, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository constructs repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Create(ctx context.Context, entry *domain.SuspensionHistory) error {
	const query = `
        INSERT INTO suspension_history (suspension_id, worker_id, changed_by_type, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.SuspensionID,
		entry.WorkerID,
		entry.ChangedByType,
		entry.ChangedByID,
		entry.ChangeType,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) ListBySuspension(ctx context.Context, suspensionID string, limit, offset int) ([]domain.SuspensionHistory, error) {
	const query = `
        SELECT id, suspension_id, worker_id, changed_by_type, changed_by_id, change_type, old_value, new_value, created_at
        FROM suspension_history WHERE suspension_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, suspensionID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *historyRepository) ListByWorker(ctx context.Context, workerID string, limit, offset int) ([]domain.SuspensionHistory, error) {
	const query = `
        SELECT id, suspension_id, worker_id, changed_by_type, changed_by_id, change_type, old_value, new_value, created_at
        FROM suspension_history WHERE worker_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, workerID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *historyRepository) list(ctx context.Context, query string, args ...any) ([]domain.SuspensionHistory, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SuspensionHistory
	for rows.Next() {
		var entry domain.SuspensionHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.SuspensionID,
			&entry.WorkerID,
			&entry.ChangedByType,
			&entry.ChangedByID,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
