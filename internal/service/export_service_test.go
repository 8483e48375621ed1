package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shiftmarket/suspension-service/internal/domain"
	"github.com/shiftmarket/suspension-service/internal/repository"
)

func TestExportService_ExportSuspensions(t *testing.T) {
	repo := newMockSuspensionRepo()
	svc := NewExportService(repo, newMockAppealRepo())
	ctx := context.Background()

	endsAt := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	if err := repo.Create(ctx, &domain.Suspension{
		CaseKey:        "SUS-AB12CD34",
		WorkerID:       "worker-1",
		Type:           domain.SuspensionTypeTemporary,
		ReasonCategory: domain.CategoryNoShow,
		StrikeCount:    2,
		Status:         domain.SuspensionStatusActive,
		AffectsBooking: true,
		IssuerID:       "admin-1",
		StartsAt:       endsAt.Add(-24 * time.Hour),
		EndsAt:         &endsAt,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.Create(ctx, &domain.Suspension{
		CaseKey:        "SUS-FF00FF00",
		WorkerID:       "worker-2",
		Type:           domain.SuspensionTypePermanent,
		ReasonCategory: domain.CategoryFraud,
		StrikeCount:    1,
		Status:         domain.SuspensionStatusActive,
		AffectsBooking: true,
		IssuerID:       "admin-1",
		StartsAt:       endsAt.Add(-48 * time.Hour),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := svc.ExportSuspensions(ctx, repository.SuspensionFilter{})
	if err != nil {
		t.Fatalf("export should succeed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output should be valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "case_key" || records[0][5] != "strike_count" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][0] != "SUS-AB12CD34" || records[1][5] != "2" {
		t.Errorf("unexpected first row %v", records[1])
	}
	if records[1][10] != endsAt.Format(time.RFC3339) {
		t.Errorf("expected ends_at %s, got %s", endsAt.Format(time.RFC3339), records[1][10])
	}
	if records[2][10] != "" {
		t.Errorf("open-ended suspension should export a blank ends_at, got %q", records[2][10])
	}
}

func TestExportService_ExportAppeals(t *testing.T) {
	appeals := newMockAppealRepo()
	svc := NewExportService(newMockSuspensionRepo(), appeals)
	ctx := context.Background()

	appeal := &domain.Appeal{
		CaseKey:      "APL-AB12CD34",
		SuspensionID: "sus-1",
		WorkerID:     "worker-1",
		Reason:       appealReason,
		Status:       domain.AppealStatusPending,
	}
	if err := appeals.Create(ctx, appeal); err != nil {
		t.Fatalf("seed: %v", err)
	}
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	reviewed := created.Add(36 * time.Hour)
	appeals.byID[appeal.ID].CreatedAt = created
	appeals.byID[appeal.ID].Status = domain.AppealStatusDenied
	appeals.byID[appeal.ID].ReviewedAt = &reviewed

	out, err := svc.ExportAppeals(ctx, repository.AppealFilter{})
	if err != nil {
		t.Fatalf("export should succeed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output should be valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(records))
	}
	if records[1][3] != "DENIED" {
		t.Errorf("unexpected status column %q", records[1][3])
	}
	// Resolved appeals export the frozen review latency.
	if records[1][5] != "36.00" {
		t.Errorf("expected waiting_hours 36.00, got %q", records[1][5])
	}
	if records[1][7] != reviewed.Format(time.RFC3339) {
		t.Errorf("expected reviewed_at %s, got %s", reviewed.Format(time.RFC3339), records[1][7])
	}
}

func TestAnalyticsService_Overview(t *testing.T) {
	suspensions := newMockSuspensionRepo()
	appeals := newMockAppealRepo()
	svc := NewAnalyticsService(suspensions, appeals, defaultTestPolicy())
	ctx := context.Background()

	seed := []struct {
		typ      domain.SuspensionType
		category domain.ViolationCategory
		status   domain.SuspensionStatus
	}{
		{domain.SuspensionTypeTemporary, domain.CategoryNoShow, domain.SuspensionStatusActive},
		{domain.SuspensionTypeTemporary, domain.CategoryNoShow, domain.SuspensionStatusExpired},
		{domain.SuspensionTypePermanent, domain.CategoryFraud, domain.SuspensionStatusActive},
	}
	for _, s := range seed {
		if err := suspensions.Create(ctx, &domain.Suspension{
			WorkerID:       "worker-1",
			Type:           s.typ,
			ReasonCategory: s.category,
			Status:         s.status,
			IssuerID:       "admin-1",
			StartsAt:       time.Now(),
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	appeal := &domain.Appeal{SuspensionID: "sus-1", WorkerID: "worker-1", Reason: appealReason, Status: domain.AppealStatusPending}
	if err := appeals.Create(ctx, appeal); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Unresolved and 80 hours old: past the 72h SLA.
	appeals.byID[appeal.ID].CreatedAt = time.Now().Add(-80 * time.Hour)

	overview, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview should succeed: %v", err)
	}
	if overview.SuspensionsByCategory["NO_SHOW"] != 2 {
		t.Errorf("expected 2 NO_SHOW, got %d", overview.SuspensionsByCategory["NO_SHOW"])
	}
	if overview.SuspensionsByType["PERMANENT"] != 1 {
		t.Errorf("expected 1 PERMANENT, got %d", overview.SuspensionsByType["PERMANENT"])
	}
	if overview.SuspensionsByStatus["ACTIVE"] != 2 {
		t.Errorf("expected 2 ACTIVE, got %d", overview.SuspensionsByStatus["ACTIVE"])
	}
	if overview.OverdueAppeals != 1 {
		t.Errorf("expected 1 overdue appeal, got %d", overview.OverdueAppeals)
	}
	if overview.AppealSLAHours != 72 {
		t.Errorf("expected SLA 72h, got %d", overview.AppealSLAHours)
	}
}
