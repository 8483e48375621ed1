package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/shiftmarket/suspension-service/internal/config"
	"github.com/shiftmarket/suspension-service/internal/domain"
	"github.com/shiftmarket/suspension-service/internal/events"
	"github.com/shiftmarket/suspension-service/internal/repository"
	"github.com/shiftmarket/suspension-service/internal/storage"
	apperrors "github.com/shiftmarket/suspension-service/pkg/util/errorutil"
)

const uniqueViolationCode = "23505"

// SuspensionLifter is the ledger-side hook the appeal workflow cascades
// into when an appeal is approved.
type SuspensionLifter interface {
	LiftForAppeal(ctx context.Context, suspensionID, notes string) error
}

// AppealService runs the two-party appeal review state machine.
type AppealService struct {
	appeals     repository.AppealRepository
	suspensions repository.SuspensionRepository
	evidence    storage.EvidenceStore
	lifter      SuspensionLifter
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	policy      config.PolicyConfig
	now         func() time.Time
}

// AppealDependencies bundles collaborators for the appeal service.
type AppealDependencies struct {
	AppealRepo     repository.AppealRepository
	SuspensionRepo repository.SuspensionRepository
	EvidenceStore  storage.EvidenceStore
	Lifter         SuspensionLifter
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Policy         config.PolicyConfig
}

// NewAppealService constructs the service.
func NewAppealService(deps AppealDependencies) *AppealService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppealService{
		appeals:     deps.AppealRepo,
		suspensions: deps.SuspensionRepo,
		evidence:    deps.EvidenceStore,
		lifter:      deps.Lifter,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		policy:      deps.Policy,
		now:         time.Now,
	}
}

// EvidenceUpload carries one evidence file submitted with an appeal.
type EvidenceUpload struct {
	FileName string
	Data     []byte
}

// Submit creates an appeal for a suspension after checking eligibility:
// warnings are not appealable, the suspension must still be active, at
// most one unresolved appeal may exist and the configured submission
// window must not have passed.
func (s *AppealService) Submit(ctx context.Context, suspensionID, workerID, reason string, uploads []EvidenceUpload) (*domain.Appeal, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("appeal reason required", nil)
	}

	suspension, err := s.suspensions.GetByID(ctx, suspensionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("suspension", map[string]any{"id": suspensionID})
		}
		return nil, apperrors.MapError(err)
	}
	if suspension.WorkerID != workerID {
		return nil, apperrors.NewForbidden("appeal must target the worker's own suspension")
	}
	if err := s.checkEligibility(ctx, suspension); err != nil {
		return nil, err
	}

	evidence := make([]domain.EvidenceRef, 0, len(uploads))
	for _, upload := range uploads {
		key, err := s.evidence.Store(ctx, upload.FileName, upload.Data)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		evidence = append(evidence, domain.EvidenceRef{
			FileName:   upload.FileName,
			StorageKey: key,
		})
	}

	appeal := &domain.Appeal{
		CaseKey:      generateCaseKey("APL"),
		SuspensionID: suspension.ID,
		WorkerID:     workerID,
		Reason:       reason,
		Status:       domain.AppealStatusPending,
		Evidence:     evidence,
	}
	if err := s.appeals.Create(ctx, appeal); err != nil {
		// The partial unique index enforces one unresolved appeal per
		// suspension against concurrent submissions.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, apperrors.NewNotEligible("suspension already has an unresolved appeal", apperrors.ReasonAlreadyAppealed)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventAppealSubmitted,
		WorkerID: workerID,
		Actor:    workerActor(workerID),
		Payload: events.AppealSubmittedPayload{
			AppealID:      appeal.ID,
			CaseKey:       appeal.CaseKey,
			SuspensionID:  suspension.ID,
			EvidenceCount: len(evidence),
		},
	})
	return appeal, nil
}

func (s *AppealService) checkEligibility(ctx context.Context, suspension *domain.Suspension) error {
	if suspension.Type == domain.SuspensionTypeWarning {
		return apperrors.NewNotEligible("warnings carry no enforcement effect and cannot be appealed", apperrors.ReasonWarningNotAppealable)
	}
	if suspension.Resolved() {
		return apperrors.NewNotEligible("suspension is already resolved", apperrors.ReasonSuspensionResolved)
	}
	if s.now().After(suspension.StartsAt.Add(s.policy.AppealWindow())) {
		return apperrors.NewNotEligible(
			fmt.Sprintf("appeals must be submitted within %d days of the suspension start", s.policy.AppealWindowDays),
			apperrors.ReasonWindowExpired)
	}
	unresolved, err := s.appeals.HasUnresolved(ctx, suspension.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if unresolved {
		return apperrors.NewNotEligible("suspension already has an unresolved appeal", apperrors.ReasonAlreadyAppealed)
	}
	if !s.policy.AllowReappealOnDeny {
		denied, err := s.appeals.HasDenied(ctx, suspension.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if denied {
			return apperrors.NewNotEligible("a denied appeal forecloses further appeals on this suspension", apperrors.ReasonReappealAfterDenial)
		}
	}
	return nil
}

// StartReview claims a pending appeal for one reviewer. A second claim
// on the same appeal conflicts.
func (s *AppealService) StartReview(ctx context.Context, appealID, reviewerID string) (*domain.Appeal, error) {
	appeal, err := s.getOrMapped(ctx, appealID)
	if err != nil {
		return nil, err
	}

	claimed, err := s.appeals.ClaimReview(ctx, appeal.ID, reviewerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !claimed {
		return nil, apperrors.NewConflict("appeal is not pending review", map[string]any{
			"status": appeal.Status,
		})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventAppealReviewStarted,
		WorkerID: appeal.WorkerID,
		Actor:    adminActor(reviewerID),
		Payload: events.AppealReviewStartedPayload{
			AppealID:   appeal.ID,
			CaseKey:    appeal.CaseKey,
			ReviewerID: reviewerID,
		},
	})
	return s.getOrMapped(ctx, appealID)
}

// Decide resolves an appeal exactly once. Approval cascades to the
// ledger: the suspension is lifted by the system actor. Denial leaves
// the suspension under its own lifecycle.
func (s *AppealService) Decide(ctx context.Context, appealID, reviewerID string, decision domain.AppealDecision, notes string) (*domain.Appeal, error) {
	if !domain.ValidAppealDecision(decision) {
		return nil, apperrors.NewValidationError("decision must be APPROVED or DENIED", map[string]any{"decision": decision})
	}
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) < domain.NotesMinLen {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("review notes must be at least %d characters", domain.NotesMinLen), nil)
	}

	appeal, err := s.getOrMapped(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if appeal.Resolved() {
		return nil, apperrors.NewConflict("appeal already resolved", map[string]any{
			"status": appeal.Status,
		})
	}

	status := domain.AppealStatusDenied
	if decision == domain.AppealDecisionApproved {
		status = domain.AppealStatusApproved
	}

	// The lift runs before the appeal is marked decided: lifting is
	// idempotent, so a failure here leaves the appeal unresolved and
	// the whole decision retryable. The reverse order would strand an
	// APPROVED appeal next to a still-active suspension.
	if decision == domain.AppealDecisionApproved {
		cascadeNotes := fmt.Sprintf("Appeal %s approved: %s", appeal.CaseKey, notes)
		if err := s.lifter.LiftForAppeal(ctx, appeal.SuspensionID, cascadeNotes); err != nil {
			return nil, err
		}
	}

	decided, err := s.appeals.MarkDecided(ctx, appeal.ID, reviewerID, status, notes, s.now())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !decided {
		return nil, apperrors.NewConflict("appeal already resolved", map[string]any{
			"status": appeal.Status,
		})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventAppealDecided,
		WorkerID: appeal.WorkerID,
		Actor:    adminActor(reviewerID),
		Payload: events.AppealDecidedPayload{
			AppealID:     appeal.ID,
			CaseKey:      appeal.CaseKey,
			SuspensionID: appeal.SuspensionID,
			Decision:     decision,
			NotesPreview: stringPreview(notes, 120),
		},
	})
	return s.getOrMapped(ctx, appealID)
}

// Get fetches one appeal with its evidence.
func (s *AppealService) Get(ctx context.Context, appealID string) (*domain.Appeal, error) {
	return s.getOrMapped(ctx, appealID)
}

// AppealListFilter narrows appeal listings. OverdueOnly keeps only
// unresolved appeals past the configured SLA.
type AppealListFilter struct {
	SuspensionID *string
	WorkerID     *string
	Statuses     []domain.AppealStatus
	OverdueOnly  bool
	Limit        int
	Offset       int
}

// List returns appeals matching the filter.
func (s *AppealService) List(ctx context.Context, filter AppealListFilter) ([]domain.Appeal, error) {
	repoFilter := repository.AppealFilter{
		SuspensionID: filter.SuspensionID,
		WorkerID:     filter.WorkerID,
		Statuses:     filter.Statuses,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if filter.OverdueOnly {
		repoFilter.Statuses = []domain.AppealStatus{domain.AppealStatusPending, domain.AppealStatusUnderReview}
	}
	appeals, err := s.appeals.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !filter.OverdueOnly {
		return appeals, nil
	}
	now := s.now()
	overdue := make([]domain.Appeal, 0, len(appeals))
	for _, appeal := range appeals {
		if appeal.Overdue(now, s.policy.AppealSLAHours) {
			overdue = append(overdue, appeal)
		}
	}
	return overdue, nil
}

// ListBySuspension returns all appeals ever filed against a suspension.
func (s *AppealService) ListBySuspension(ctx context.Context, suspensionID string) ([]domain.Appeal, error) {
	appeals, err := s.appeals.ListBySuspension(ctx, suspensionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return appeals, nil
}

// SLAHours exposes the configured review SLA for read-model rendering.
func (s *AppealService) SLAHours() int {
	return s.policy.AppealSLAHours
}

// EvidenceURL resolves a stored evidence pointer to a fetchable URL.
func (s *AppealService) EvidenceURL(ref domain.EvidenceRef) string {
	return s.evidence.ResolveURL(ref.StorageKey)
}

func (s *AppealService) getOrMapped(ctx context.Context, appealID string) (*domain.Appeal, error) {
	// Case keys are the human-facing reference; both resolve.
	fetch := s.appeals.GetByID
	if strings.HasPrefix(appealID, "APL-") {
		fetch = s.appeals.GetByCaseKey
	}
	appeal, err := fetch(ctx, appealID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("appeal", map[string]any{"id": appealID})
		}
		return nil, apperrors.MapError(err)
	}
	return appeal, nil
}

func (s *AppealService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
