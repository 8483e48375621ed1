package service

import (
	"context"
	"time"

	"github.com/shiftmarket/suspension-service/internal/config"
	"github.com/shiftmarket/suspension-service/internal/repository"
	apperrors "github.com/shiftmarket/suspension-service/pkg/util/errorutil"
)

// AnalyticsService computes read-only triage projections over the
// ledger and appeal state. No side effects.
type AnalyticsService struct {
	suspensions repository.SuspensionRepository
	appeals     repository.AppealRepository
	policy      config.PolicyConfig
	now         func() time.Time
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(suspensions repository.SuspensionRepository, appeals repository.AppealRepository, policy config.PolicyConfig) *AnalyticsService {
	return &AnalyticsService{
		suspensions: suspensions,
		appeals:     appeals,
		policy:      policy,
		now:         time.Now,
	}
}

// Overview is the admin triage dashboard payload.
type Overview struct {
	SuspensionsByCategory map[string]int `json:"suspensions_by_category"`
	SuspensionsByType     map[string]int `json:"suspensions_by_type"`
	SuspensionsByStatus   map[string]int `json:"suspensions_by_status"`
	AvgResolutionHours    float64        `json:"avg_appeal_resolution_hours"`
	OverdueAppeals        int            `json:"overdue_appeals"`
	AppealSLAHours        int            `json:"appeal_sla_hours"`
}

// Overview aggregates suspension counts and appeal SLA posture.
func (s *AnalyticsService) Overview(ctx context.Context) (*Overview, error) {
	byCategory, err := s.suspensions.CountGroupedBy(ctx, "reason_category")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byType, err := s.suspensions.CountGroupedBy(ctx, "type")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byStatus, err := s.suspensions.CountGroupedBy(ctx, "status")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	avgHours, err := s.appeals.AverageResolutionHours(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	cutoff := s.now().Add(-time.Duration(s.policy.AppealSLAHours) * time.Hour)
	overdue, err := s.appeals.CountUnresolvedOlderThan(ctx, cutoff)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Overview{
		SuspensionsByCategory: byCategory,
		SuspensionsByType:     byType,
		SuspensionsByStatus:   byStatus,
		AvgResolutionHours:    avgHours,
		OverdueAppeals:        overdue,
		AppealSLAHours:        s.policy.AppealSLAHours,
	}, nil
}
