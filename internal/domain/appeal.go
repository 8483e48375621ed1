package domain

import "time"

// AppealStatus enumerates review states for suspension appeals.
type AppealStatus string

const (
	AppealStatusPending     AppealStatus = "PENDING"
	AppealStatusUnderReview AppealStatus = "UNDER_REVIEW"
	AppealStatusApproved    AppealStatus = "APPROVED"
	AppealStatusDenied      AppealStatus = "DENIED"
)

// AppealDecision is the terminal outcome chosen by a reviewer.
type AppealDecision string

const (
	AppealDecisionApproved AppealDecision = "APPROVED"
	AppealDecisionDenied   AppealDecision = "DENIED"
)

// ValidAppealDecision reports whether d is a known decision.
func ValidAppealDecision(d AppealDecision) bool {
	return d == AppealDecisionApproved || d == AppealDecisionDenied
}

// EvidenceRef points at a stored evidence file backing an appeal.
type EvidenceRef struct {
	ID         string
	AppealID   string
	FileName   string
	StorageKey string
	Position   int
	CreatedAt  time.Time
}

// Appeal is a worker's challenge against one suspension.
type Appeal struct {
	ID           string
	CaseKey      string
	SuspensionID string
	WorkerID     string
	Reason       string
	Status       AppealStatus
	ReviewerID   *string
	ReviewNotes  *string
	Evidence     []EvidenceRef
	CreatedAt    time.Time
	ReviewedAt   *time.Time
}

// Resolved reports whether the appeal reached a terminal state.
func (a *Appeal) Resolved() bool {
	return a.Status == AppealStatusApproved || a.Status == AppealStatusDenied
}

// WaitingDuration returns how long the appeal has been (or was) waiting
// for a decision. Resolved appeals report the frozen review latency.
func (a *Appeal) WaitingDuration(now time.Time) time.Duration {
	if a.Resolved() && a.ReviewedAt != nil {
		return a.ReviewedAt.Sub(a.CreatedAt)
	}
	return now.Sub(a.CreatedAt)
}

// WaitingHours is WaitingDuration expressed in fractional hours.
func (a *Appeal) WaitingHours(now time.Time) float64 {
	return a.WaitingDuration(now).Hours()
}

// Overdue reports whether an unresolved appeal has outlived the SLA.
// Resolved appeals are never overdue regardless of how long they took.
func (a *Appeal) Overdue(now time.Time, slaHours int) bool {
	if a.Resolved() || slaHours <= 0 {
		return false
	}
	return a.WaitingHours(now) > float64(slaHours)
}
