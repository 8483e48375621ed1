package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftmarket/suspension-service/internal/domain"
)

// SuspensionFilter captures admin search parameters.
type SuspensionFilter struct {
	WorkerID   *string
	Statuses   []domain.SuspensionStatus
	Types      []domain.SuspensionType
	Categories []domain.ViolationCategory
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	Limit      int
	Offset     int
}

// SuspensionRepository encapsulates suspension persistence. Status
// transitions use status preconditions in the WHERE clause so a lift
// racing a scheduler expire can never overwrite a terminal state: the
// loser observes zero rows affected.
type SuspensionRepository interface {
	Create(ctx context.Context, suspension *domain.Suspension) error
	GetByID(ctx context.Context, id string) (*domain.Suspension, error)
	GetByCaseKey(ctx context.Context, key string) (*domain.Suspension, error)
	ListByWorker(ctx context.Context, workerID string) ([]domain.Suspension, error)
	ListWithFilter(ctx context.Context, filter SuspensionFilter) ([]domain.Suspension, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Suspension, error)
	MarkLifted(ctx context.Context, id, liftedBy, notes string) (bool, error)
	MarkExpired(ctx context.Context, id string) (bool, error)
	CountGroupedBy(ctx context.Context, column string) (map[string]int, error)
}

type suspensionRepository struct {
	pool *pgxpool.Pool
}

// NewSuspensionRepository instantiates repository.
func NewSuspensionRepository(pool *pgxpool.Pool) SuspensionRepository {
	return &suspensionRepository{pool: pool}
}

const suspensionColumns = `id, case_key, worker_id, type, reason_category, reason_details,
               strike_count, status, affects_booking, affects_visibility, issuer_id,
               related_shift_id, lifted_by, lift_notes, starts_at, ends_at, created_at, updated_at`

func (r *suspensionRepository) Create(ctx context.Context, suspension *domain.Suspension) error {
	const query = `
        INSERT INTO suspensions (case_key, worker_id, type, reason_category, reason_details,
            strike_count, status, affects_booking, affects_visibility, issuer_id,
            related_shift_id, starts_at, ends_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		suspension.CaseKey,
		suspension.WorkerID,
		suspension.Type,
		suspension.ReasonCategory,
		suspension.ReasonDetails,
		suspension.StrikeCount,
		suspension.Status,
		suspension.AffectsBooking,
		suspension.AffectsVisibility,
		suspension.IssuerID,
		suspension.RelatedShiftID,
		suspension.StartsAt,
		suspension.EndsAt,
	).Scan(&suspension.ID, &suspension.CreatedAt, &suspension.UpdatedAt)
}

func (r *suspensionRepository) GetByID(ctx context.Context, id string) (*domain.Suspension, error) {
	query := `SELECT ` + suspensionColumns + ` FROM suspensions WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *suspensionRepository) GetByCaseKey(ctx context.Context, key string) (*domain.Suspension, error) {
	query := `SELECT ` + suspensionColumns + ` FROM suspensions WHERE case_key=$1`
	return r.fetchSingle(ctx, query, key)
}

func (r *suspensionRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Suspension, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	return scanSuspension(row)
}

func (r *suspensionRepository) ListByWorker(ctx context.Context, workerID string) ([]domain.Suspension, error) {
	query := `SELECT ` + suspensionColumns + ` FROM suspensions WHERE worker_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuspensions(rows)
}

func (r *suspensionRepository) ListWithFilter(ctx context.Context, filter SuspensionFilter) ([]domain.Suspension, error) {
	base := `SELECT ` + suspensionColumns + ` FROM suspensions`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.WorkerID != nil {
		args = append(args, *filter.WorkerID)
		clauses = append(clauses, fmt.Sprintf("worker_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("reason_category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.IssuedFrom != nil {
		args = append(args, *filter.IssuedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.IssuedTo != nil {
		args = append(args, *filter.IssuedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuspensions(rows)
}

func (r *suspensionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Suspension, error) {
	if limit <= 0 {
		limit = 200
	}
	query := fmt.Sprintf(`SELECT %s FROM suspensions
        WHERE status=$1 AND ends_at IS NOT NULL AND ends_at <= $2
        ORDER BY ends_at LIMIT %d`, suspensionColumns, limit)
	rows, err := r.pool.Query(ctx, query, domain.SuspensionStatusActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuspensions(rows)
}

// MarkLifted transitions ACTIVE -> LIFTED. Returns false without error
// when the record was already terminal, which callers treat as an
// idempotent no-op or a lost race depending on the operation.
func (r *suspensionRepository) MarkLifted(ctx context.Context, id, liftedBy, notes string) (bool, error) {
	const query = `
        UPDATE suspensions SET status=$1, lifted_by=$2, lift_notes=$3, updated_at=NOW()
        WHERE id=$4 AND status=$5`
	cmd, err := r.pool.Exec(ctx, query,
		domain.SuspensionStatusLifted, liftedBy, notes, id, domain.SuspensionStatusActive)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// MarkExpired transitions ACTIVE -> EXPIRED with the same contract.
func (r *suspensionRepository) MarkExpired(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE suspensions SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3 AND ends_at IS NOT NULL AND ends_at <= NOW()`
	cmd, err := r.pool.Exec(ctx, query,
		domain.SuspensionStatusExpired, id, domain.SuspensionStatusActive)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

var groupableColumns = map[string]struct{}{
	"reason_category": {},
	"type":            {},
	"status":          {},
}

func (r *suspensionRepository) CountGroupedBy(ctx context.Context, column string) (map[string]int, error) {
	if _, ok := groupableColumns[column]; !ok {
		return nil, fmt.Errorf("unsupported group column %q", column)
	}
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM suspensions GROUP BY %s`, column, column)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		result[key] = count
	}
	return result, rows.Err()
}

func scanSuspension(row pgx.Row) (*domain.Suspension, error) {
	var s domain.Suspension
	if err := row.Scan(
		&s.ID,
		&s.CaseKey,
		&s.WorkerID,
		&s.Type,
		&s.ReasonCategory,
		&s.ReasonDetails,
		&s.StrikeCount,
		&s.Status,
		&s.AffectsBooking,
		&s.AffectsVisibility,
		&s.IssuerID,
		&s.RelatedShiftID,
		&s.LiftedByID,
		&s.LiftNotes,
		&s.StartsAt,
		&s.EndsAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSuspensions(rows pgx.Rows) ([]domain.Suspension, error) {
	var result []domain.Suspension
	for rows.Next() {
		s, err := scanSuspension(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}
