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

// AppealFilter captures triage search parameters.
type AppealFilter struct {
	SuspensionID *string
	WorkerID     *string
	Statuses     []domain.AppealStatus
	Limit        int
	Offset       int
}

// AppealRepository encapsulates appeal persistence. ClaimReview and
// MarkDecided carry status preconditions so concurrent reviewers get
// exactly-once semantics at the database, not in memory.
type AppealRepository interface {
	Create(ctx context.Context, appeal *domain.Appeal) error
	AddEvidence(ctx context.Context, ref *domain.EvidenceRef) error
	GetByID(ctx context.Context, id string) (*domain.Appeal, error)
	GetByCaseKey(ctx context.Context, key string) (*domain.Appeal, error)
	ListWithFilter(ctx context.Context, filter AppealFilter) ([]domain.Appeal, error)
	ListBySuspension(ctx context.Context, suspensionID string) ([]domain.Appeal, error)
	HasUnresolved(ctx context.Context, suspensionID string) (bool, error)
	HasDenied(ctx context.Context, suspensionID string) (bool, error)
	ClaimReview(ctx context.Context, id, reviewerID string) (bool, error)
	MarkDecided(ctx context.Context, id, reviewerID string, status domain.AppealStatus, notes string, reviewedAt time.Time) (bool, error)
	AverageResolutionHours(ctx context.Context) (float64, error)
	CountUnresolvedOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type appealRepository struct {
	pool *pgxpool.Pool
}

// NewAppealRepository constructs repository.
func NewAppealRepository(pool *pgxpool.Pool) AppealRepository {
	return &appealRepository{pool: pool}
}

const appealColumns = `id, case_key, suspension_id, worker_id, reason, status,
               reviewer_id, review_notes, created_at, reviewed_at`

func (r *appealRepository) Create(ctx context.Context, appeal *domain.Appeal) error {
	const query = `
        INSERT INTO suspension_appeals (case_key, suspension_id, worker_id, reason, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, query,
		appeal.CaseKey,
		appeal.SuspensionID,
		appeal.WorkerID,
		appeal.Reason,
		appeal.Status,
	).Scan(&appeal.ID, &appeal.CreatedAt); err != nil {
		return err
	}
	for i := range appeal.Evidence {
		appeal.Evidence[i].AppealID = appeal.ID
		appeal.Evidence[i].Position = i
		if err := r.AddEvidence(ctx, &appeal.Evidence[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *appealRepository) AddEvidence(ctx context.Context, ref *domain.EvidenceRef) error {
	const query = `
        INSERT INTO appeal_evidence (appeal_id, file_name, storage_key, position)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ref.AppealID,
		ref.FileName,
		ref.StorageKey,
		ref.Position,
	).Scan(&ref.ID, &ref.CreatedAt)
}

func (r *appealRepository) GetByID(ctx context.Context, id string) (*domain.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM suspension_appeals WHERE id=$1`
	appeal, err := scanAppeal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	evidence, err := r.listEvidence(ctx, appeal.ID)
	if err != nil {
		return nil, err
	}
	appeal.Evidence = evidence
	return appeal, nil
}

func (r *appealRepository) GetByCaseKey(ctx context.Context, key string) (*domain.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM suspension_appeals WHERE case_key=$1`
	appeal, err := scanAppeal(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		return nil, err
	}
	evidence, err := r.listEvidence(ctx, appeal.ID)
	if err != nil {
		return nil, err
	}
	appeal.Evidence = evidence
	return appeal, nil
}

func (r *appealRepository) listEvidence(ctx context.Context, appealID string) ([]domain.EvidenceRef, error) {
	const query = `
        SELECT id, appeal_id, file_name, storage_key, position, created_at
        FROM appeal_evidence WHERE appeal_id=$1 ORDER BY position`
	rows, err := r.pool.Query(ctx, query, appealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EvidenceRef
	for rows.Next() {
		var ref domain.EvidenceRef
		if err := rows.Scan(&ref.ID, &ref.AppealID, &ref.FileName, &ref.StorageKey, &ref.Position, &ref.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}

func (r *appealRepository) ListWithFilter(ctx context.Context, filter AppealFilter) ([]domain.Appeal, error) {
	base := `SELECT ` + appealColumns + ` FROM suspension_appeals`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SuspensionID != nil {
		args = append(args, *filter.SuspensionID)
		clauses = append(clauses, fmt.Sprintf("suspension_id=$%d", len(args)))
	}
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
	return scanAppeals(rows)
}

func (r *appealRepository) ListBySuspension(ctx context.Context, suspensionID string) ([]domain.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM suspension_appeals WHERE suspension_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, suspensionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppeals(rows)
}

func (r *appealRepository) HasUnresolved(ctx context.Context, suspensionID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM suspension_appeals WHERE suspension_id=$1 AND status IN ($2,$3))`
	var exists bool
	err := r.pool.QueryRow(ctx, query, suspensionID,
		domain.AppealStatusPending, domain.AppealStatusUnderReview).Scan(&exists)
	return exists, err
}

func (r *appealRepository) HasDenied(ctx context.Context, suspensionID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM suspension_appeals WHERE suspension_id=$1 AND status=$2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, suspensionID, domain.AppealStatusDenied).Scan(&exists)
	return exists, err
}

// ClaimReview transitions PENDING -> UNDER_REVIEW for one reviewer.
// False means another reviewer already claimed it or the appeal left
// the pending state.
func (r *appealRepository) ClaimReview(ctx context.Context, id, reviewerID string) (bool, error) {
	const query = `
        UPDATE suspension_appeals SET status=$1, reviewer_id=$2
        WHERE id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query,
		domain.AppealStatusUnderReview, reviewerID, id, domain.AppealStatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// MarkDecided finalizes an appeal exactly once. False means a
// concurrent decision already resolved it.
func (r *appealRepository) MarkDecided(ctx context.Context, id, reviewerID string, status domain.AppealStatus, notes string, reviewedAt time.Time) (bool, error) {
	const query = `
        UPDATE suspension_appeals SET status=$1, reviewer_id=$2, review_notes=$3, reviewed_at=$4
        WHERE id=$5 AND status IN ($6,$7)`
	cmd, err := r.pool.Exec(ctx, query,
		status, reviewerID, notes, reviewedAt, id,
		domain.AppealStatusPending, domain.AppealStatusUnderReview)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *appealRepository) AverageResolutionHours(ctx context.Context) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM reviewed_at - created_at) / 3600.0), 0)
        FROM suspension_appeals WHERE reviewed_at IS NOT NULL`
	var avg float64
	err := r.pool.QueryRow(ctx, query).Scan(&avg)
	return avg, err
}

func (r *appealRepository) CountUnresolvedOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM suspension_appeals
        WHERE status IN ($1,$2) AND created_at < $3`
	var count int
	err := r.pool.QueryRow(ctx, query,
		domain.AppealStatusPending, domain.AppealStatusUnderReview, cutoff).Scan(&count)
	return count, err
}

func scanAppeal(row pgx.Row) (*domain.Appeal, error) {
	var a domain.Appeal
	if err := row.Scan(
		&a.ID,
		&a.CaseKey,
		&a.SuspensionID,
		&a.WorkerID,
		&a.Reason,
		&a.Status,
		&a.ReviewerID,
		&a.ReviewNotes,
		&a.CreatedAt,
		&a.ReviewedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAppeals(rows pgx.Rows) ([]domain.Appeal, error) {
	var result []domain.Appeal
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
