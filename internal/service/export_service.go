package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/shiftmarket/suspension-service/internal/repository"
	apperrors "github.com/shiftmarket/suspension-service/pkg/util/errorutil"
)

// ExportService serializes filtered suspension and appeal lists to CSV.
// Pure read-side formatting over the same filters the list endpoints
// use.
type ExportService struct {
	suspensions repository.SuspensionRepository
	appeals     repository.AppealRepository
	now         func() time.Time
}

// NewExportService constructs the service.
func NewExportService(suspensions repository.SuspensionRepository, appeals repository.AppealRepository) *ExportService {
	return &ExportService{suspensions: suspensions, appeals: appeals, now: time.Now}
}

var suspensionCSVHeader = []string{
	"case_key", "worker_id", "type", "category", "status", "strike_count",
	"affects_booking", "affects_visibility", "issuer_id", "starts_at", "ends_at", "created_at",
}

// ExportSuspensions renders matching suspensions as CSV.
func (s *ExportService) ExportSuspensions(ctx context.Context, filter repository.SuspensionFilter) ([]byte, error) {
	suspensions, err := s.suspensions.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(suspensionCSVHeader); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	for i := range suspensions {
		susp := &suspensions[i]
		record := []string{
			susp.CaseKey,
			susp.WorkerID,
			string(susp.Type),
			string(susp.ReasonCategory),
			string(susp.Status),
			strconv.Itoa(susp.StrikeCount),
			strconv.FormatBool(susp.AffectsBooking),
			strconv.FormatBool(susp.AffectsVisibility),
			susp.IssuerID,
			susp.StartsAt.Format(time.RFC3339),
			formatOptionalTime(susp.EndsAt),
			susp.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

var appealCSVHeader = []string{
	"case_key", "suspension_id", "worker_id", "status", "reviewer_id",
	"waiting_hours", "created_at", "reviewed_at",
}

// ExportAppeals renders matching appeals as CSV, including the SLA
// waiting time (frozen for resolved appeals).
func (s *ExportService) ExportAppeals(ctx context.Context, filter repository.AppealFilter) ([]byte, error) {
	appeals, err := s.appeals.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(appealCSVHeader); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	for i := range appeals {
		appeal := &appeals[i]
		reviewer := ""
		if appeal.ReviewerID != nil {
			reviewer = *appeal.ReviewerID
		}
		record := []string{
			appeal.CaseKey,
			appeal.SuspensionID,
			appeal.WorkerID,
			string(appeal.Status),
			reviewer,
			strconv.FormatFloat(appeal.WaitingHours(now), 'f', 2, 64),
			appeal.CreatedAt.Format(time.RFC3339),
			formatOptionalTime(appeal.ReviewedAt),
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
