package domain

import "time"

// Shift is the read-only view of a shift assignment referenced by a
// suspension for audit linkage. Owned by the scheduling service.
type Shift struct {
	ID         string
	BusinessID string
	WorkerID   string
	StartsAt   time.Time
	EndsAt     time.Time
}
