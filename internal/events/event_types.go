package events

import (
	"time"

	"github.com/shiftmarket/suspension-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSuspensionIssued    EventType = "suspension_issued"
	EventSuspensionLifted    EventType = "suspension_lifted"
	EventSuspensionExpired   EventType = "suspension_expired"
	EventStrikesReset        EventType = "strikes_reset"
	EventAppealSubmitted     EventType = "appeal_submitted"
	EventAppealReviewStarted EventType = "appeal_review_started"
	EventAppealDecided       EventType = "appeal_decided"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type     domain.SubjectType `json:"type"`
	AdminID  *string            `json:"admin_id,omitempty"`
	WorkerID *string            `json:"worker_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	WorkerID  string      `json:"worker_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SuspensionIssuedPayload payload.
type SuspensionIssuedPayload struct {
	SuspensionID   string                   `json:"suspension_id"`
	CaseKey        string                   `json:"case_key"`
	Type           domain.SuspensionType    `json:"type"`
	Category       domain.ViolationCategory `json:"category"`
	StrikeCount    int                      `json:"strike_count"`
	AffectsBooking bool                     `json:"affects_booking"`
	EndsAt         *time.Time               `json:"ends_at,omitempty"`
}

// SuspensionLiftedPayload payload.
type SuspensionLiftedPayload struct {
	SuspensionID string `json:"suspension_id"`
	CaseKey      string `json:"case_key"`
	Notes        string `json:"notes"`
}

// SuspensionExpiredPayload payload.
type SuspensionExpiredPayload struct {
	SuspensionID string    `json:"suspension_id"`
	CaseKey      string    `json:"case_key"`
	EndedAt      time.Time `json:"ended_at"`
}

// StrikesResetPayload payload.
type StrikesResetPayload struct {
	PreviousStrikes int    `json:"previous_strikes"`
	Notes           string `json:"notes"`
}

// AppealSubmittedPayload payload.
type AppealSubmittedPayload struct {
	AppealID      string `json:"appeal_id"`
	CaseKey       string `json:"case_key"`
	SuspensionID  string `json:"suspension_id"`
	EvidenceCount int    `json:"evidence_count"`
}

// AppealReviewStartedPayload payload.
type AppealReviewStartedPayload struct {
	AppealID   string `json:"appeal_id"`
	CaseKey    string `json:"case_key"`
	ReviewerID string `json:"reviewer_id"`
}

// AppealDecidedPayload payload.
type AppealDecidedPayload struct {
	AppealID     string                `json:"appeal_id"`
	CaseKey      string                `json:"case_key"`
	SuspensionID string                `json:"suspension_id"`
	Decision     domain.AppealDecision `json:"decision"`
	NotesPreview string                `json:"notes_preview"`
}
