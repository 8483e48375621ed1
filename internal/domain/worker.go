package domain

import "time"

// Worker is the slice of the externally-owned worker identity that this
// service reads and keeps consistent: a reference plus cached
// enforcement fields. Profile data lives in the identity service.
type Worker struct {
	ID              string
	IsSuspended     bool
	StrikeCount     int
	SuspensionCount int
	UpdatedAt       time.Time
}

// WorkerCache is the recomputed projection written back after every
// ledger mutation. IsSuspended must equal "has at least one ACTIVE
// suspension with AffectsBooking" at all times.
type WorkerCache struct {
	IsSuspended     bool
	StrikeCount     int
	SuspensionCount int
}

// ProjectWorkerCache derives the cached fields from the full set of a
// worker's suspensions plus the resettable per-category strike counters.
// Derivation from the complete set, rather than incremental updates,
// keeps the projection correct under concurrent multi-suspension flows.
func ProjectWorkerCache(suspensions []Suspension, strikes map[ViolationCategory]int) WorkerCache {
	cache := WorkerCache{SuspensionCount: len(suspensions)}
	for i := range suspensions {
		s := &suspensions[i]
		if s.Status == SuspensionStatusActive && s.AffectsBooking {
			cache.IsSuspended = true
		}
	}
	for _, n := range strikes {
		cache.StrikeCount += n
	}
	return cache
}
