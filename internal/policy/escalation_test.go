package policy

import (
	"testing"

	"github.com/shiftmarket/suspension-service/internal/domain"
)

func TestEscalation_DefaultTable(t *testing.T) {
	e, err := NewEscalation(nil)
	if err != nil {
		t.Fatalf("nil table should fall back to the default: %v", err)
	}

	cases := []struct {
		category   domain.ViolationCategory
		ordinal    int
		hours      int
		indefinite bool
	}{
		{domain.CategoryNoShow, 1, 24, false},
		{domain.CategoryNoShow, 2, 72, false},
		{domain.CategoryNoShow, 3, 168, false},
		{domain.CategoryLateArrival, 1, 12, false},
		{domain.CategoryMisconduct, 3, 0, true},
		{domain.CategoryHarassment, 2, 0, true},
		{domain.CategoryFraud, 1, 0, true},
		{domain.CategoryPolicyViolation, 2, 72, false},
	}
	for _, tc := range cases {
		got := e.SuggestedDuration(tc.category, tc.ordinal)
		if got.Hours != tc.hours || got.Indefinite != tc.indefinite {
			t.Errorf("%s offense %d: got %+v, want hours=%d indefinite=%v",
				tc.category, tc.ordinal, got, tc.hours, tc.indefinite)
		}
	}
}

func TestEscalation_OrdinalClamping(t *testing.T) {
	e, err := NewEscalation(nil)
	if err != nil {
		t.Fatalf("NewEscalation: %v", err)
	}

	// Past the third offense the last step repeats.
	for ordinal := 3; ordinal <= 10; ordinal++ {
		got := e.SuggestedDuration(domain.CategoryNoShow, ordinal)
		if got.Hours != 168 {
			t.Errorf("offense %d should reuse the third step (168h), got %+v", ordinal, got)
		}
	}
	// Non-positive ordinals are treated as the first offense.
	for _, ordinal := range []int{0, -5} {
		got := e.SuggestedDuration(domain.CategoryNoShow, ordinal)
		if got.Hours != 24 {
			t.Errorf("ordinal %d should clamp to the first step (24h), got %+v", ordinal, got)
		}
	}
}

func TestEscalation_Monotonic(t *testing.T) {
	e, err := NewEscalation(nil)
	if err != nil {
		t.Fatalf("NewEscalation: %v", err)
	}

	// Within every category the suggestion never gets lighter as the
	// ordinal grows; indefinite counts as heavier than any bound.
	for category := range DefaultTable {
		previous := 0
		previousIndefinite := false
		for ordinal := 1; ordinal <= 3; ordinal++ {
			got := e.SuggestedDuration(category, ordinal)
			if previousIndefinite && !got.Indefinite {
				t.Errorf("%s offense %d: bounded suggestion after an indefinite one", category, ordinal)
			}
			if !got.Indefinite && got.Hours < previous {
				t.Errorf("%s offense %d: %dh is lighter than the previous %dh", category, ordinal, got.Hours, previous)
			}
			previous = got.Hours
			previousIndefinite = got.Indefinite
		}
	}
}

func TestEscalation_UnknownCategoryFallback(t *testing.T) {
	e, err := NewEscalation(Table{domain.CategoryNoShow: {24, 72, 168}})
	if err != nil {
		t.Fatalf("NewEscalation: %v", err)
	}

	got := e.SuggestedDuration(domain.CategoryMisconduct, 1)
	if got.Hours != 24 {
		t.Errorf("missing category should use the fallback first step, got %+v", got)
	}
	got = e.SuggestedDuration(domain.CategoryMisconduct, 3)
	if !got.Indefinite {
		t.Errorf("missing category should use the fallback third step, got %+v", got)
	}
}

func TestNewEscalation_Validation(t *testing.T) {
	if _, err := NewEscalation(Table{"RUDENESS": {1, 2, 3}}); err == nil {
		t.Error("unknown category should fail validation")
	}
	if _, err := NewEscalation(Table{domain.CategoryNoShow: {0, 72, 168}}); err == nil {
		t.Error("zero hours should fail validation")
	}
	if _, err := NewEscalation(Table{domain.CategoryNoShow: {-2, 72, 168}}); err == nil {
		t.Error("negative hours other than Indefinite should fail validation")
	}
	if _, err := NewEscalation(Table{domain.CategoryNoShow: {Indefinite, Indefinite, Indefinite}}); err != nil {
		t.Errorf("Indefinite steps are valid: %v", err)
	}
}

func TestSuggestionSuggestedType(t *testing.T) {
	if got := (Suggestion{Hours: 24}).SuggestedType(); got != domain.SuspensionTypeTemporary {
		t.Errorf("bounded suggestion implies TEMPORARY, got %s", got)
	}
	if got := (Suggestion{Indefinite: true}).SuggestedType(); got != domain.SuspensionTypeIndefinite {
		t.Errorf("indefinite suggestion implies INDEFINITE, got %s", got)
	}
}
