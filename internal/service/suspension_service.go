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
	"go.uber.org/zap"

	"github.com/shiftmarket/suspension-service/internal/domain"
	"github.com/shiftmarket/suspension-service/internal/events"
	"github.com/shiftmarket/suspension-service/internal/policy"
	"github.com/shiftmarket/suspension-service/internal/repository"
	apperrors "github.com/shiftmarket/suspension-service/pkg/util/errorutil"
)

// SuspensionService coordinates the suspension ledger: issuance,
// lifting, strike escalation and the worker enforcement projection.
type SuspensionService struct {
	suspensions repository.SuspensionRepository
	workers     repository.WorkerRepository
	shifts      repository.ShiftRepository
	history     repository.HistoryRepository
	flagCache   *repository.WorkerFlagCache
	escalation  *policy.Escalation
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// SuspensionDependencies bundles collaborators for the ledger service.
type SuspensionDependencies struct {
	SuspensionRepo repository.SuspensionRepository
	WorkerRepo     repository.WorkerRepository
	ShiftRepo      repository.ShiftRepository
	HistoryRepo    repository.HistoryRepository
	FlagCache      *repository.WorkerFlagCache
	Escalation     *policy.Escalation
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewSuspensionService constructs the service.
func NewSuspensionService(deps SuspensionDependencies) *SuspensionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuspensionService{
		suspensions: deps.SuspensionRepo,
		workers:     deps.WorkerRepo,
		shifts:      deps.ShiftRepo,
		history:     deps.HistoryRepo,
		flagCache:   deps.FlagCache,
		escalation:  deps.Escalation,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// IssueInput describes a suspension issuance payload. DurationHours
// applies only to temporary suspensions; the two override pointers
// replace the type defaults when set.
type IssueInput struct {
	WorkerID          string
	Type              domain.SuspensionType
	Category          domain.ViolationCategory
	Details           string
	DurationHours     *int
	RelatedShiftID    *string
	IssuerID          string
	AffectsBooking    *bool
	AffectsVisibility *bool
}

// DurationSuggestion pairs the advisory escalation output with the
// ordinal it was computed for, so the admin UI can pre-fill the form.
type DurationSuggestion struct {
	Ordinal    int
	Hours      int
	Indefinite bool
	Type       domain.SuspensionType
}

// SuggestDuration returns the escalation table's advice for the
// worker's next offense in the given category.
func (s *SuspensionService) SuggestDuration(ctx context.Context, workerID string, category domain.ViolationCategory) (*DurationSuggestion, error) {
	if !domain.ValidViolationCategory(category) {
		return nil, apperrors.NewValidationError("unknown violation category", map[string]any{"category": category})
	}
	strikes, err := s.workers.GetStrikes(ctx, workerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ordinal := strikes[category] + 1
	suggestion := s.escalation.SuggestedDuration(category, ordinal)
	return &DurationSuggestion{
		Ordinal:    ordinal,
		Hours:      suggestion.Hours,
		Indefinite: suggestion.Indefinite,
		Type:       suggestion.SuggestedType(),
	}, nil
}

// Issue creates a suspension, snapshots the offense ordinal, advances
// the strike counter for non-warning types and refreshes the worker
// projection.
func (s *SuspensionService) Issue(ctx context.Context, input IssueInput) (*domain.Suspension, error) {
	if err := validateIssueInput(input); err != nil {
		return nil, err
	}

	if err := s.workers.Ensure(ctx, input.WorkerID); err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.RelatedShiftID != nil {
		shift, err := s.shifts.GetByID(ctx, *input.RelatedShiftID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("related shift not found", map[string]any{"shift_id": *input.RelatedShiftID})
			}
			return nil, apperrors.MapError(err)
		}
		if shift.WorkerID != input.WorkerID {
			return nil, apperrors.NewValidationError("related shift belongs to a different worker", map[string]any{"shift_id": shift.ID})
		}
	}

	strikes, err := s.workers.GetStrikes(ctx, input.WorkerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ordinal := strikes[input.Category]
	if input.Type.CountsAsStrike() {
		ordinal, err = s.workers.IncrementStrike(ctx, input.WorkerID, input.Category)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	now := s.now()
	suspension := &domain.Suspension{
		CaseKey:           generateCaseKey("SUS"),
		WorkerID:          input.WorkerID,
		Type:              input.Type,
		ReasonCategory:    input.Category,
		ReasonDetails:     strings.TrimSpace(input.Details),
		StrikeCount:       ordinal,
		Status:            domain.SuspensionStatusActive,
		AffectsBooking:    resolveOverride(input.AffectsBooking, input.Type.DefaultAffectsBooking()),
		AffectsVisibility: resolveOverride(input.AffectsVisibility, input.Type.DefaultAffectsVisibility()),
		IssuerID:          input.IssuerID,
		RelatedShiftID:    input.RelatedShiftID,
		StartsAt:          now,
	}
	if input.Type.RequiresEndDate() {
		endsAt := now.Add(time.Duration(*input.DurationHours) * time.Hour)
		suspension.EndsAt = &endsAt
	}

	if err := s.suspensions.Create(ctx, suspension); err != nil {
		if input.Type.CountsAsStrike() {
			// Roll the counter back so the failed issuance does not
			// inflate the next offense's ordinal.
			if derr := s.workers.DecrementStrike(ctx, input.WorkerID, input.Category); derr != nil {
				s.logger.Error("strike rollback failed",
					zap.String("worker_id", input.WorkerID),
					zap.String("category", string(input.Category)),
					zap.Error(derr))
			}
		}
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, &domain.SuspensionHistory{
		SuspensionID:  &suspension.ID,
		WorkerID:      suspension.WorkerID,
		ChangedByType: domain.SubjectTypeAdmin,
		ChangedByID:   input.IssuerID,
		ChangeType:    domain.ChangeTypeIssued,
		NewValue: map[string]any{
			"status":       suspension.Status,
			"type":         suspension.Type,
			"category":     suspension.ReasonCategory,
			"strike_count": suspension.StrikeCount,
		},
	})

	if err := s.RefreshWorkerCache(ctx, suspension.WorkerID); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventSuspensionIssued,
		WorkerID: suspension.WorkerID,
		Actor:    adminActor(input.IssuerID),
		Payload: events.SuspensionIssuedPayload{
			SuspensionID:   suspension.ID,
			CaseKey:        suspension.CaseKey,
			Type:           suspension.Type,
			Category:       suspension.ReasonCategory,
			StrikeCount:    suspension.StrikeCount,
			AffectsBooking: suspension.AffectsBooking,
			EndsAt:         suspension.EndsAt,
		},
	})
	return suspension, nil
}

// Lift ends a suspension early. Lifting a record that already reached
// a terminal state succeeds without mutation.
func (s *SuspensionService) Lift(ctx context.Context, id, adminID, notes string) (*domain.Suspension, error) {
	return s.lift(ctx, id, domain.SubjectTypeAdmin, adminID, notes)
}

// LiftForAppeal is the appeal-approval cascade entry point, acting as
// the system rather than a human admin.
func (s *SuspensionService) LiftForAppeal(ctx context.Context, suspensionID, notes string) error {
	_, err := s.lift(ctx, suspensionID, domain.SubjectTypeSystem, domain.SystemActorID, notes)
	return err
}

func (s *SuspensionService) lift(ctx context.Context, id string, actorType domain.SubjectType, actorID, notes string) (*domain.Suspension, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) < domain.NotesMinLen {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("lift notes must be at least %d characters", domain.NotesMinLen), nil)
	}

	suspension, err := s.getOrMapped(ctx, id)
	if err != nil {
		return nil, err
	}

	lifted, err := s.suspensions.MarkLifted(ctx, suspension.ID, actorID, notes)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !lifted {
		// Already expired or lifted; report success without mutation.
		// Re-fetch so a concurrent transition that won the row is what
		// the caller sees, not the pre-update snapshot.
		return s.getOrMapped(ctx, suspension.ID)
	}

	s.recordHistory(ctx, &domain.SuspensionHistory{
		SuspensionID:  &suspension.ID,
		WorkerID:      suspension.WorkerID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": domain.SuspensionStatusActive},
		NewValue:      map[string]any{"status": domain.SuspensionStatusLifted, "notes": notes},
	})

	if err := s.RefreshWorkerCache(ctx, suspension.WorkerID); err != nil {
		return nil, err
	}

	actor := adminActor(actorID)
	if actorType == domain.SubjectTypeSystem {
		actor = systemActor()
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSuspensionLifted,
		WorkerID: suspension.WorkerID,
		Actor:    actor,
		Payload: events.SuspensionLiftedPayload{
			SuspensionID: suspension.ID,
			CaseKey:      suspension.CaseKey,
			Notes:        notes,
		},
	})

	return s.getOrMapped(ctx, id)
}

// ResetStrikes zeroes the worker's escalation counters. Historical
// suspensions are preserved; only the forward-looking ordinal resets.
func (s *SuspensionService) ResetStrikes(ctx context.Context, workerID, adminID, notes string) error {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) < domain.NotesMinLen {
		return apperrors.NewValidationError(
			fmt.Sprintf("reset notes must be at least %d characters", domain.NotesMinLen), nil)
	}

	if _, err := s.workers.Get(ctx, workerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("worker", map[string]any{"id": workerID})
		}
		return apperrors.MapError(err)
	}

	previous, err := s.workers.ResetStrikes(ctx, workerID)
	if err != nil {
		return apperrors.MapError(err)
	}

	s.recordHistory(ctx, &domain.SuspensionHistory{
		WorkerID:      workerID,
		ChangedByType: domain.SubjectTypeAdmin,
		ChangedByID:   adminID,
		ChangeType:    domain.ChangeTypeStrikesReset,
		OldValue:      map[string]any{"strike_count": previous},
		NewValue:      map[string]any{"strike_count": 0, "notes": notes},
	})

	if err := s.RefreshWorkerCache(ctx, workerID); err != nil {
		return err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventStrikesReset,
		WorkerID: workerID,
		Actor:    adminActor(adminID),
		Payload: events.StrikesResetPayload{
			PreviousStrikes: previous,
			Notes:           notes,
		},
	})
	return nil
}

// ExpireDue sweeps active suspensions whose end time has passed and
// transitions each to EXPIRED. A lift racing the sweep wins or loses
// at the row level; either way the record stays terminal. Returns the
// number of suspensions expired.
func (s *SuspensionService) ExpireDue(ctx context.Context, batchSize int) (int, error) {
	due, err := s.suspensions.ListDue(ctx, s.now(), batchSize)
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	expired := 0
	for i := range due {
		suspension := &due[i]
		won, err := s.suspensions.MarkExpired(ctx, suspension.ID)
		if err != nil {
			return expired, apperrors.MapError(err)
		}
		if !won {
			// A concurrent lift reached the record first.
			continue
		}
		expired++

		// Refresh before moving on: an error later in the batch must
		// not leave this worker flagged for an already-expired record,
		// since the sweep never revisits non-ACTIVE rows.
		if err := s.RefreshWorkerCache(ctx, suspension.WorkerID); err != nil {
			return expired, err
		}

		s.recordHistory(ctx, &domain.SuspensionHistory{
			SuspensionID:  &suspension.ID,
			WorkerID:      suspension.WorkerID,
			ChangedByType: domain.SubjectTypeSystem,
			ChangedByID:   domain.SystemActorID,
			ChangeType:    domain.ChangeTypeStatus,
			OldValue:      map[string]any{"status": domain.SuspensionStatusActive},
			NewValue:      map[string]any{"status": domain.SuspensionStatusExpired},
		})
		s.publishEvent(ctx, events.Event{
			Type:     events.EventSuspensionExpired,
			WorkerID: suspension.WorkerID,
			Actor:    systemActor(),
			Payload: events.SuspensionExpiredPayload{
				SuspensionID: suspension.ID,
				CaseKey:      suspension.CaseKey,
				EndedAt:      *suspension.EndsAt,
			},
		})
	}
	return expired, nil
}

// RemainingDuration reports the time left on an active temporary
// suspension. Zero for warnings, open-ended types and resolved records.
func (s *SuspensionService) RemainingDuration(ctx context.Context, id string) (time.Duration, error) {
	suspension, err := s.getOrMapped(ctx, id)
	if err != nil {
		return 0, err
	}
	return suspension.Remaining(s.now()), nil
}

// Get fetches one suspension.
func (s *SuspensionService) Get(ctx context.Context, id string) (*domain.Suspension, error) {
	return s.getOrMapped(ctx, id)
}

// List returns suspensions matching the filter.
func (s *SuspensionService) List(ctx context.Context, filter repository.SuspensionFilter) ([]domain.Suspension, error) {
	suspensions, err := s.suspensions.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return suspensions, nil
}

// History returns the audit trail for one suspension.
func (s *SuspensionService) History(ctx context.Context, suspensionID string, limit, offset int) ([]domain.SuspensionHistory, error) {
	entries, err := s.history.ListBySuspension(ctx, suspensionID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// GetWorker returns the cached enforcement snapshot for one worker.
func (s *SuspensionService) GetWorker(ctx context.Context, workerID string) (*domain.Worker, error) {
	worker, err := s.workers.Get(ctx, workerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("worker", map[string]any{"id": workerID})
		}
		return nil, apperrors.MapError(err)
	}
	return worker, nil
}

// IsWorkerSuspended answers the booking-path question "may this worker
// claim shifts right now". The Redis flag is consulted first; on a
// miss or a cache error the answer comes from the worker row.
func (s *SuspensionService) IsWorkerSuspended(ctx context.Context, workerID string) (bool, error) {
	suspended, hit, err := s.flagCache.IsSuspended(ctx, workerID)
	if err != nil {
		s.logger.Warn("worker flag cache read failed",
			zap.String("worker_id", workerID), zap.Error(err))
	} else if hit {
		return suspended, nil
	}
	worker, err := s.GetWorker(ctx, workerID)
	if err != nil {
		return false, err
	}
	return worker.IsSuspended, nil
}

// WorkerHistory returns the audit trail across all of a worker's
// suspensions, strikes resets included.
func (s *SuspensionService) WorkerHistory(ctx context.Context, workerID string, limit, offset int) ([]domain.SuspensionHistory, error) {
	entries, err := s.history.ListByWorker(ctx, workerID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// RefreshWorkerCache recomputes the worker projection from the full
// suspension set and the strike counters, then mirrors the booking
// flag into Redis. The mirror is best-effort.
func (s *SuspensionService) RefreshWorkerCache(ctx context.Context, workerID string) error {
	suspensions, err := s.suspensions.ListByWorker(ctx, workerID)
	if err != nil {
		return apperrors.MapError(err)
	}
	strikes, err := s.workers.GetStrikes(ctx, workerID)
	if err != nil {
		return apperrors.MapError(err)
	}
	cache := domain.ProjectWorkerCache(suspensions, strikes)
	if err := s.workers.UpdateCache(ctx, workerID, cache); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.flagCache.SetSuspended(ctx, workerID, cache.IsSuspended); err != nil {
		s.logger.Warn("worker flag cache update failed",
			zap.String("worker_id", workerID), zap.Error(err))
	}
	return nil
}

func (s *SuspensionService) getOrMapped(ctx context.Context, id string) (*domain.Suspension, error) {
	// Case keys are the human-facing reference; both resolve.
	fetch := s.suspensions.GetByID
	if strings.HasPrefix(id, "SUS-") {
		fetch = s.suspensions.GetByCaseKey
	}
	suspension, err := fetch(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("suspension", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return suspension, nil
}

func (s *SuspensionService) recordHistory(ctx context.Context, entry *domain.SuspensionHistory) {
	if s.history == nil {
		return
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("history write failed", zap.Error(err))
	}
}

func (s *SuspensionService) publishEvent(ctx context.Context, event events.Event) {
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

func validateIssueInput(input IssueInput) error {
	if strings.TrimSpace(input.WorkerID) == "" {
		return apperrors.NewValidationError("worker reference required", nil)
	}
	if strings.TrimSpace(input.IssuerID) == "" {
		return apperrors.NewValidationError("issuer reference required", nil)
	}
	if !domain.ValidSuspensionType(input.Type) {
		return apperrors.NewValidationError("unknown suspension type", map[string]any{"type": input.Type})
	}
	if !domain.ValidViolationCategory(input.Category) {
		return apperrors.NewValidationError("unknown violation category", map[string]any{"category": input.Category})
	}
	details := strings.TrimSpace(input.Details)
	if n := utf8.RuneCountInString(details); n < domain.ReasonDetailsMinLen || n > domain.ReasonDetailsMaxLen {
		return apperrors.NewValidationError(
			fmt.Sprintf("reason details must be between %d and %d characters", domain.ReasonDetailsMinLen, domain.ReasonDetailsMaxLen),
			map[string]any{"length": n})
	}
	if input.Type.RequiresEndDate() {
		if input.DurationHours == nil || *input.DurationHours <= 0 {
			return apperrors.NewValidationError("temporary suspensions require a positive duration", nil)
		}
	} else if input.DurationHours != nil {
		return apperrors.NewValidationError(
			fmt.Sprintf("%s suspensions must not carry an end date", strings.ToLower(string(input.Type))), nil)
	}
	return nil
}

func resolveOverride(override *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	return fallback
}

func generateCaseKey(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func adminActor(adminID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeAdmin, AdminID: &adminID}
}

func workerActor(workerID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeWorker, WorkerID: &workerID}
}

func systemActor() events.Actor {
	return events.Actor{Type: domain.SubjectTypeSystem}
}
