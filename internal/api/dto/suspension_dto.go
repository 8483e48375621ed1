package dto

import (
	"time"

	"github.com/shiftmarket/suspension-service/internal/domain"
)

// IssueSuspensionRequest payload.
type IssueSuspensionRequest struct {
	WorkerID          string                   `json:"worker_id"`
	Type              domain.SuspensionType    `json:"type"`
	Category          domain.ViolationCategory `json:"category"`
	Details           string                   `json:"details"`
	DurationHours     *int                     `json:"duration_hours"`
	RelatedShiftID    *string                  `json:"related_shift_id"`
	AffectsBooking    *bool                    `json:"affects_booking"`
	AffectsVisibility *bool                    `json:"affects_visibility"`
}

// LiftSuspensionRequest payload.
type LiftSuspensionRequest struct {
	Notes string `json:"notes"`
}

// ResetStrikesRequest payload.
type ResetStrikesRequest struct {
	Notes string `json:"notes"`
}

// SuspensionResponse is the full suspension view.
type SuspensionResponse struct {
	ID                string                   `json:"id"`
	CaseKey           string                   `json:"case_key"`
	WorkerID          string                   `json:"worker_id"`
	Type              domain.SuspensionType    `json:"type"`
	Category          domain.ViolationCategory `json:"category"`
	Details           string                   `json:"details"`
	StrikeCount       int                      `json:"strike_count"`
	Status            domain.SuspensionStatus  `json:"status"`
	AffectsBooking    bool                     `json:"affects_booking"`
	AffectsVisibility bool                     `json:"affects_visibility"`
	IssuerID          string                   `json:"issuer_id"`
	RelatedShiftID    *string                  `json:"related_shift_id,omitempty"`
	LiftedByID        *string                  `json:"lifted_by,omitempty"`
	LiftNotes         *string                  `json:"lift_notes,omitempty"`
	StartsAt          time.Time                `json:"starts_at"`
	EndsAt            *time.Time               `json:"ends_at,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

// NewSuspensionResponse maps the domain aggregate.
func NewSuspensionResponse(s *domain.Suspension) SuspensionResponse {
	return SuspensionResponse{
		ID:                s.ID,
		CaseKey:           s.CaseKey,
		WorkerID:          s.WorkerID,
		Type:              s.Type,
		Category:          s.ReasonCategory,
		Details:           s.ReasonDetails,
		StrikeCount:       s.StrikeCount,
		Status:            s.Status,
		AffectsBooking:    s.AffectsBooking,
		AffectsVisibility: s.AffectsVisibility,
		IssuerID:          s.IssuerID,
		RelatedShiftID:    s.RelatedShiftID,
		LiftedByID:        s.LiftedByID,
		LiftNotes:         s.LiftNotes,
		StartsAt:          s.StartsAt,
		EndsAt:            s.EndsAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// SuggestionResponse pre-fills the admin issuance form.
type SuggestionResponse struct {
	Ordinal       int                   `json:"ordinal"`
	DurationHours *int                  `json:"duration_hours,omitempty"`
	Indefinite    bool                  `json:"indefinite"`
	SuggestedType domain.SuspensionType `json:"suggested_type"`
}

// RemainingResponse reports the time left on a suspension.
type RemainingResponse struct {
	SuspensionID   string  `json:"suspension_id"`
	RemainingHours float64 `json:"remaining_hours"`
}

// WorkerResponse is the cached enforcement snapshot.
type WorkerResponse struct {
	ID              string    `json:"id"`
	IsSuspended     bool      `json:"is_suspended"`
	StrikeCount     int       `json:"strike_count"`
	SuspensionCount int       `json:"suspension_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SuspendedFlagResponse is the booking-path yes/no answer.
type SuspendedFlagResponse struct {
	WorkerID    string `json:"worker_id"`
	IsSuspended bool   `json:"is_suspended"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	ID            string                      `json:"id"`
	SuspensionID  *string                     `json:"suspension_id,omitempty"`
	WorkerID      string                      `json:"worker_id"`
	ChangedByType domain.SubjectType          `json:"changed_by_type"`
	ChangedByID   string                      `json:"changed_by_id"`
	ChangeType    domain.SuspensionChangeType `json:"change_type"`
	OldValue      map[string]any              `json:"old_value,omitempty"`
	NewValue      map[string]any              `json:"new_value,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
}
