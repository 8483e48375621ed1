package policy

import (
	"fmt"

	"github.com/shiftmarket/suspension-service/internal/domain"
)

// Indefinite marks an escalation step with no end date: the suggested
// suspension is open-ended rather than a fixed number of hours.
const Indefinite = -1

// Steps holds the suggested duration in hours for the 1st, 2nd and
// 3rd-or-later offense in one violation category. Ordinals past the
// third reuse the last column.
type Steps [3]int

// Table maps violation categories to their escalation steps. The table
// is advisory: admins may override the suggestion at issuance.
type Table map[domain.ViolationCategory]Steps

// DefaultTable is the shipped escalation schedule.
var DefaultTable = Table{
	domain.CategoryNoShow:          {24, 72, 168},
	domain.CategoryLateArrival:     {12, 24, 72},
	domain.CategoryEarlyDeparture:  {12, 24, 72},
	domain.CategoryMisconduct:      {48, 168, Indefinite},
	domain.CategoryHarassment:      {168, Indefinite, Indefinite},
	domain.CategoryFraud:           {Indefinite, Indefinite, Indefinite},
	domain.CategoryPolicyViolation: {24, 72, Indefinite},
}

// fallback applies to categories missing from a custom table.
var fallback = Steps{24, 72, Indefinite}

// Escalation suggests suspension durations from a validated table.
type Escalation struct {
	table Table
}

// NewEscalation validates the table and returns the policy. Numeric
// steps must be positive; Indefinite is the only non-positive value
// allowed.
func NewEscalation(table Table) (*Escalation, error) {
	if table == nil {
		table = DefaultTable
	}
	for category, steps := range table {
		if !domain.ValidViolationCategory(category) {
			return nil, fmt.Errorf("escalation table: unknown category %q", category)
		}
		for i, hours := range steps {
			if hours != Indefinite && hours <= 0 {
				return nil, fmt.Errorf("escalation table: %s offense %d: hours must be positive or indefinite, got %d", category, i+1, hours)
			}
		}
	}
	return &Escalation{table: table}, nil
}

// Suggestion is the advisory output for one category/ordinal pair.
type Suggestion struct {
	Hours      int
	Indefinite bool
}

// SuggestedDuration returns the advisory duration for the given offense
// ordinal (1-based). Ordinals beyond the third clamp to the third step;
// ordinals below one are treated as the first offense.
func (e *Escalation) SuggestedDuration(category domain.ViolationCategory, ordinal int) Suggestion {
	steps, ok := e.table[category]
	if !ok {
		steps = fallback
	}
	if ordinal < 1 {
		ordinal = 1
	}
	if ordinal > len(steps) {
		ordinal = len(steps)
	}
	hours := steps[ordinal-1]
	if hours == Indefinite {
		return Suggestion{Indefinite: true}
	}
	return Suggestion{Hours: hours}
}

// SuggestedType maps a suggestion to the suspension type it implies.
func (s Suggestion) SuggestedType() domain.SuspensionType {
	if s.Indefinite {
		return domain.SuspensionTypeIndefinite
	}
	return domain.SuspensionTypeTemporary
}
