package domain

import "time"

// SuspensionChangeType captures what changed in a history entry.
type SuspensionChangeType string

const (
	ChangeTypeIssued       SuspensionChangeType = "ISSUED"
	ChangeTypeStatus       SuspensionChangeType = "STATUS_CHANGE"
	ChangeTypeStrikesReset SuspensionChangeType = "STRIKES_RESET"
)

// SuspensionHistory is an immutable audit trail entry. Suspensions are
// never hard-deleted; every transition leaves one of these behind.
type SuspensionHistory struct {
	ID            string
	SuspensionID  *string
	WorkerID      string
	ChangedByType SubjectType
	ChangedByID   string
	ChangeType    SuspensionChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
