package dto

import (
	"time"

	"github.com/shiftmarket/suspension-service/internal/domain"
)

// SubmitAppealRequest payload. Evidence files arrive base64-encoded in
// JSON; multipart uploads land on the same input.
type SubmitAppealRequest struct {
	Reason   string           `json:"reason"`
	Evidence []EvidenceUpload `json:"evidence"`
}

// EvidenceUpload is one inline evidence file.
type EvidenceUpload struct {
	FileName string `json:"file_name"`
	Data     []byte `json:"data"`
}

// DecideAppealRequest payload.
type DecideAppealRequest struct {
	Decision domain.AppealDecision `json:"decision"`
	Notes    string                `json:"notes"`
}

// EvidenceResponse is one stored evidence reference.
type EvidenceResponse struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// AppealResponse is the full appeal view with SLA annotations.
type AppealResponse struct {
	ID           string              `json:"id"`
	CaseKey      string              `json:"case_key"`
	SuspensionID string              `json:"suspension_id"`
	WorkerID     string              `json:"worker_id"`
	Reason       string              `json:"reason"`
	Status       domain.AppealStatus `json:"status"`
	ReviewerID   *string             `json:"reviewer_id,omitempty"`
	ReviewNotes  *string             `json:"review_notes,omitempty"`
	Evidence     []EvidenceResponse  `json:"evidence"`
	WaitingHours float64             `json:"waiting_hours"`
	Overdue      bool                `json:"overdue"`
	CreatedAt    time.Time           `json:"created_at"`
	ReviewedAt   *time.Time          `json:"reviewed_at,omitempty"`
}

// NewAppealResponse maps the domain aggregate with SLA fields computed
// at render time.
func NewAppealResponse(a *domain.Appeal, now time.Time, slaHours int, resolveURL func(domain.EvidenceRef) string) AppealResponse {
	evidence := make([]EvidenceResponse, 0, len(a.Evidence))
	for _, ref := range a.Evidence {
		evidence = append(evidence, EvidenceResponse{
			FileName: ref.FileName,
			URL:      resolveURL(ref),
		})
	}
	return AppealResponse{
		ID:           a.ID,
		CaseKey:      a.CaseKey,
		SuspensionID: a.SuspensionID,
		WorkerID:     a.WorkerID,
		Reason:       a.Reason,
		Status:       a.Status,
		ReviewerID:   a.ReviewerID,
		ReviewNotes:  a.ReviewNotes,
		Evidence:     evidence,
		WaitingHours: a.WaitingHours(now),
		Overdue:      a.Overdue(now, slaHours),
		CreatedAt:    a.CreatedAt,
		ReviewedAt:   a.ReviewedAt,
	}
}
