package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad input", nil), CodeValidationFailed, http.StatusBadRequest},
		{NewNotFound("suspension", nil), CodeNotFound, http.StatusNotFound},
		{NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{NewForbidden("wrong subject"), CodeForbidden, http.StatusForbidden},
		{NewConflict("already resolved", nil), CodeConflict, http.StatusConflict},
		{NewNotEligible("window passed", ReasonWindowExpired), CodeNotEligible, http.StatusUnprocessableEntity},
		{NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		var domainErr *DomainError
		if !errors.As(tc.err, &domainErr) {
			t.Fatalf("%v should be a DomainError", tc.err)
		}
		if domainErr.Code != tc.code {
			t.Errorf("expected code %s, got %s", tc.code, domainErr.Code)
		}
		if domainErr.HTTPStatus != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.code, tc.status, domainErr.HTTPStatus)
		}
		if !IsCode(tc.err, tc.code) {
			t.Errorf("IsCode should match %s", tc.code)
		}
	}
}

func TestNotEligibleCarriesReason(t *testing.T) {
	err := NewNotEligible("suspension already has an unresolved appeal", ReasonAlreadyAppealed)
	domainErr := ToDomainError(err)
	if domainErr.Details["reason"] != ReasonAlreadyAppealed {
		t.Errorf("expected reason %q, got %v", ReasonAlreadyAppealed, domainErr.Details["reason"])
	}
}

func TestToDomainError(t *testing.T) {
	if got := ToDomainError(nil); got != nil {
		t.Errorf("nil maps to nil, got %v", got)
	}

	got := ToDomainError(pgx.ErrNoRows)
	if got.Code != CodeNotFound {
		t.Errorf("pgx.ErrNoRows should map to NOT_FOUND, got %s", got.Code)
	}
	got = ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	if got.Code != CodeNotFound {
		t.Errorf("wrapped pgx.ErrNoRows should map to NOT_FOUND, got %s", got.Code)
	}

	got = ToDomainError(errors.New("connection reset"))
	if got.Code != CodeInternal || got.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("unknown errors map to INTERNAL_ERROR/500, got %s/%d", got.Code, got.HTTPStatus)
	}

	original := NewConflict("appeal already resolved", nil)
	if got := ToDomainError(original); got.Code != CodeConflict {
		t.Errorf("existing DomainError should pass through, got %s", got.Code)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewInternalError(cause)
	if !errors.Is(err, cause) {
		t.Error("DomainError should unwrap to its cause")
	}
}
