package domain

import "time"

// SuspensionType enumerates enforcement levels.
type SuspensionType string

const (
	SuspensionTypeWarning    SuspensionType = "WARNING"
	SuspensionTypeTemporary  SuspensionType = "TEMPORARY"
	SuspensionTypeIndefinite SuspensionType = "INDEFINITE"
	SuspensionTypePermanent  SuspensionType = "PERMANENT"
)

// SuspensionStatus enumerates lifecycle states for suspensions.
type SuspensionStatus string

const (
	SuspensionStatusActive  SuspensionStatus = "ACTIVE"
	SuspensionStatusExpired SuspensionStatus = "EXPIRED"
	SuspensionStatusLifted  SuspensionStatus = "LIFTED"
)

// ViolationCategory enumerates policy violation categories.
type ViolationCategory string

const (
	CategoryNoShow          ViolationCategory = "NO_SHOW"
	CategoryLateArrival     ViolationCategory = "LATE_ARRIVAL"
	CategoryEarlyDeparture  ViolationCategory = "EARLY_DEPARTURE"
	CategoryMisconduct      ViolationCategory = "MISCONDUCT"
	CategoryHarassment      ViolationCategory = "HARASSMENT"
	CategoryFraud           ViolationCategory = "FRAUD"
	CategoryPolicyViolation ViolationCategory = "POLICY_VIOLATION"
)

// Suspension is the aggregate for worker enforcement records.
type Suspension struct {
	ID                string
	CaseKey           string
	WorkerID          string
	Type              SuspensionType
	ReasonCategory    ViolationCategory
	ReasonDetails     string
	StrikeCount       int
	Status            SuspensionStatus
	AffectsBooking    bool
	AffectsVisibility bool
	IssuerID          string
	RelatedShiftID    *string
	LiftedByID        *string
	LiftNotes         *string
	StartsAt          time.Time
	EndsAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReasonDetailsMinLen and ReasonDetailsMaxLen bound issuance free text.
const (
	ReasonDetailsMinLen = 20
	ReasonDetailsMaxLen = 5000
)

// NotesMinLen applies to lift notes, reset notes and appeal review notes.
const NotesMinLen = 10

var knownTypes = map[SuspensionType]struct{}{
	SuspensionTypeWarning:    {},
	SuspensionTypeTemporary:  {},
	SuspensionTypeIndefinite: {},
	SuspensionTypePermanent:  {},
}

var knownCategories = map[ViolationCategory]struct{}{
	CategoryNoShow:          {},
	CategoryLateArrival:     {},
	CategoryEarlyDeparture:  {},
	CategoryMisconduct:      {},
	CategoryHarassment:      {},
	CategoryFraud:           {},
	CategoryPolicyViolation: {},
}

// ValidSuspensionType reports whether t is a known enforcement level.
func ValidSuspensionType(t SuspensionType) bool {
	_, ok := knownTypes[t]
	return ok
}

// ValidViolationCategory reports whether c is a known category.
func ValidViolationCategory(c ViolationCategory) bool {
	_, ok := knownCategories[c]
	return ok
}

// RequiresEndDate reports whether the type must carry an end timestamp.
func (t SuspensionType) RequiresEndDate() bool {
	return t == SuspensionTypeTemporary
}

// CountsAsStrike reports whether the type advances the escalation counter.
// Warnings carry no enforcement effect and never escalate.
func (t SuspensionType) CountsAsStrike() bool {
	return t != SuspensionTypeWarning
}

// DefaultAffectsBooking returns the booking-block default for the type.
func (t SuspensionType) DefaultAffectsBooking() bool {
	return t != SuspensionTypeWarning
}

// DefaultAffectsVisibility returns the search-visibility default for the type.
func (t SuspensionType) DefaultAffectsVisibility() bool {
	return t == SuspensionTypeIndefinite || t == SuspensionTypePermanent
}

// Resolved reports whether the suspension reached a terminal state.
func (s *Suspension) Resolved() bool {
	return s.Status == SuspensionStatusExpired || s.Status == SuspensionStatusLifted
}

// Appealable reports whether an appeal may ever target this suspension.
func (s *Suspension) Appealable() bool {
	return s.Type != SuspensionTypeWarning && s.Status == SuspensionStatusActive
}

// Remaining returns the time left on an active temporary suspension at
// the given instant. Zero for anything already resolved or open-ended.
func (s *Suspension) Remaining(now time.Time) time.Duration {
	if s.Status != SuspensionStatusActive || s.EndsAt == nil {
		return 0
	}
	left := s.EndsAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// DueForExpiry reports whether the scheduler should expire the record.
func (s *Suspension) DueForExpiry(now time.Time) bool {
	return s.Status == SuspensionStatusActive && s.EndsAt != nil && !now.Before(*s.EndsAt)
}
