package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shiftmarket/suspension-service/internal/domain"
	"github.com/shiftmarket/suspension-service/internal/events"
	"github.com/shiftmarket/suspension-service/internal/repository"
)

// ── suspension repo mock ──

type mockSuspensionRepo struct {
	byID         map[string]*domain.Suspension
	order        []string
	nextID       int
	failOn       string
	failErr      error
	expireFailID string

	// afterGet, when set, runs once after the next GetByID. Used to
	// slip a concurrent transition between a fetch and its update.
	afterGet func()

	// dueOverride, when set, is returned verbatim by ListDue. Used to
	// feed the sweep a stale snapshot and exercise the expire/lift race.
	dueOverride []domain.Suspension
}

func newMockSuspensionRepo() *mockSuspensionRepo {
	return &mockSuspensionRepo{byID: map[string]*domain.Suspension{}}
}

func (m *mockSuspensionRepo) fail(op string) error {
	if m.failOn == op {
		return m.failErr
	}
	return nil
}

func (m *mockSuspensionRepo) Create(ctx context.Context, s *domain.Suspension) error {
	if err := m.fail("Create"); err != nil {
		return err
	}
	m.nextID++
	s.ID = fmt.Sprintf("sus-%d", m.nextID)
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.byID[s.ID] = &cp
	m.order = append(m.order, s.ID)
	return nil
}

func (m *mockSuspensionRepo) GetByID(ctx context.Context, id string) (*domain.Suspension, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	if m.afterGet != nil {
		hook := m.afterGet
		m.afterGet = nil
		hook()
	}
	return &cp, nil
}

func (m *mockSuspensionRepo) GetByCaseKey(ctx context.Context, key string) (*domain.Suspension, error) {
	for _, id := range m.order {
		if m.byID[id].CaseKey == key {
			cp := *m.byID[id]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockSuspensionRepo) ListByWorker(ctx context.Context, workerID string) ([]domain.Suspension, error) {
	if err := m.fail("ListByWorker"); err != nil {
		return nil, err
	}
	var out []domain.Suspension
	for _, id := range m.order {
		if m.byID[id].WorkerID == workerID {
			out = append(out, *m.byID[id])
		}
	}
	return out, nil
}

func (m *mockSuspensionRepo) ListWithFilter(ctx context.Context, filter repository.SuspensionFilter) ([]domain.Suspension, error) {
	var out []domain.Suspension
	for _, id := range m.order {
		s := m.byID[id]
		if filter.WorkerID != nil && s.WorkerID != *filter.WorkerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, s.Status) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSuspensionRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Suspension, error) {
	if err := m.fail("ListDue"); err != nil {
		return nil, err
	}
	if m.dueOverride != nil {
		return m.dueOverride, nil
	}
	var out []domain.Suspension
	for _, id := range m.order {
		s := m.byID[id]
		if s.DueForExpiry(now) {
			out = append(out, *s)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockSuspensionRepo) MarkLifted(ctx context.Context, id, liftedBy, notes string) (bool, error) {
	s, ok := m.byID[id]
	if !ok || s.Status != domain.SuspensionStatusActive {
		return false, nil
	}
	s.Status = domain.SuspensionStatusLifted
	s.LiftedByID = &liftedBy
	s.LiftNotes = &notes
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockSuspensionRepo) MarkExpired(ctx context.Context, id string) (bool, error) {
	if m.expireFailID == id {
		return false, m.failErr
	}
	s, ok := m.byID[id]
	if !ok || s.Status != domain.SuspensionStatusActive || s.EndsAt == nil {
		return false, nil
	}
	s.Status = domain.SuspensionStatusExpired
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockSuspensionRepo) CountGroupedBy(ctx context.Context, column string) (map[string]int, error) {
	out := map[string]int{}
	for _, id := range m.order {
		s := m.byID[id]
		switch column {
		case "type":
			out[string(s.Type)]++
		case "status":
			out[string(s.Status)]++
		case "reason_category":
			out[string(s.ReasonCategory)]++
		default:
			return nil, fmt.Errorf("unexpected group column %q", column)
		}
	}
	return out, nil
}

func containsStatus(statuses []domain.SuspensionStatus, s domain.SuspensionStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ── appeal repo mock ──

type mockAppealRepo struct {
	byID   map[string]*domain.Appeal
	order  []string
	nextID int
}

func newMockAppealRepo() *mockAppealRepo {
	return &mockAppealRepo{byID: map[string]*domain.Appeal{}}
}

func (m *mockAppealRepo) Create(ctx context.Context, a *domain.Appeal) error {
	// Mirrors the partial unique index on unresolved appeals.
	for _, id := range m.order {
		existing := m.byID[id]
		if existing.SuspensionID == a.SuspensionID && !existing.Resolved() {
			return &pgconn.PgError{Code: "23505", ConstraintName: "idx_appeals_one_unresolved"}
		}
	}
	m.nextID++
	a.ID = fmt.Sprintf("apl-%d", m.nextID)
	a.CreatedAt = time.Now()
	for i := range a.Evidence {
		a.Evidence[i].AppealID = a.ID
		a.Evidence[i].Position = i
	}
	cp := *a
	m.byID[a.ID] = &cp
	m.order = append(m.order, a.ID)
	return nil
}

func (m *mockAppealRepo) AddEvidence(ctx context.Context, ref *domain.EvidenceRef) error {
	a, ok := m.byID[ref.AppealID]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Evidence = append(a.Evidence, *ref)
	return nil
}

func (m *mockAppealRepo) GetByID(ctx context.Context, id string) (*domain.Appeal, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	cp.Evidence = append([]domain.EvidenceRef{}, a.Evidence...)
	return &cp, nil
}

func (m *mockAppealRepo) GetByCaseKey(ctx context.Context, key string) (*domain.Appeal, error) {
	for _, id := range m.order {
		if m.byID[id].CaseKey == key {
			return m.GetByID(ctx, id)
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockAppealRepo) ListWithFilter(ctx context.Context, filter repository.AppealFilter) ([]domain.Appeal, error) {
	var out []domain.Appeal
	for _, id := range m.order {
		a := m.byID[id]
		if filter.SuspensionID != nil && a.SuspensionID != *filter.SuspensionID {
			continue
		}
		if filter.WorkerID != nil && a.WorkerID != *filter.WorkerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsAppealStatus(filter.Statuses, a.Status) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockAppealRepo) ListBySuspension(ctx context.Context, suspensionID string) ([]domain.Appeal, error) {
	return m.ListWithFilter(ctx, repository.AppealFilter{SuspensionID: &suspensionID})
}

func (m *mockAppealRepo) HasUnresolved(ctx context.Context, suspensionID string) (bool, error) {
	for _, id := range m.order {
		a := m.byID[id]
		if a.SuspensionID == suspensionID && !a.Resolved() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAppealRepo) HasDenied(ctx context.Context, suspensionID string) (bool, error) {
	for _, id := range m.order {
		a := m.byID[id]
		if a.SuspensionID == suspensionID && a.Status == domain.AppealStatusDenied {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAppealRepo) ClaimReview(ctx context.Context, id, reviewerID string) (bool, error) {
	a, ok := m.byID[id]
	if !ok || a.Status != domain.AppealStatusPending {
		return false, nil
	}
	a.Status = domain.AppealStatusUnderReview
	a.ReviewerID = &reviewerID
	return true, nil
}

func (m *mockAppealRepo) MarkDecided(ctx context.Context, id, reviewerID string, status domain.AppealStatus, notes string, reviewedAt time.Time) (bool, error) {
	a, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	if a.Status != domain.AppealStatusPending && a.Status != domain.AppealStatusUnderReview {
		return false, nil
	}
	a.Status = status
	a.ReviewerID = &reviewerID
	a.ReviewNotes = &notes
	a.ReviewedAt = &reviewedAt
	return true, nil
}

func (m *mockAppealRepo) AverageResolutionHours(ctx context.Context) (float64, error) {
	var total float64
	var n int
	for _, id := range m.order {
		a := m.byID[id]
		if a.Resolved() && a.ReviewedAt != nil {
			total += a.ReviewedAt.Sub(a.CreatedAt).Hours()
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}

func (m *mockAppealRepo) CountUnresolvedOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	count := 0
	for _, id := range m.order {
		a := m.byID[id]
		if !a.Resolved() && a.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func containsAppealStatus(statuses []domain.AppealStatus, s domain.AppealStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ── worker repo mock ──

type mockWorkerRepo struct {
	workers map[string]*domain.Worker
	strikes map[string]map[domain.ViolationCategory]int
}

func newMockWorkerRepo() *mockWorkerRepo {
	return &mockWorkerRepo{
		workers: map[string]*domain.Worker{},
		strikes: map[string]map[domain.ViolationCategory]int{},
	}
}

func (m *mockWorkerRepo) Get(ctx context.Context, id string) (*domain.Worker, error) {
	w, ok := m.workers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *w
	return &cp, nil
}

func (m *mockWorkerRepo) Ensure(ctx context.Context, id string) error {
	if _, ok := m.workers[id]; !ok {
		m.workers[id] = &domain.Worker{ID: id}
	}
	return nil
}

func (m *mockWorkerRepo) UpdateCache(ctx context.Context, id string, cache domain.WorkerCache) error {
	w, ok := m.workers[id]
	if !ok {
		return pgx.ErrNoRows
	}
	w.IsSuspended = cache.IsSuspended
	w.StrikeCount = cache.StrikeCount
	w.SuspensionCount = cache.SuspensionCount
	w.UpdatedAt = time.Now()
	return nil
}

func (m *mockWorkerRepo) GetStrikes(ctx context.Context, workerID string) (map[domain.ViolationCategory]int, error) {
	out := map[domain.ViolationCategory]int{}
	for category, n := range m.strikes[workerID] {
		out[category] = n
	}
	return out, nil
}

func (m *mockWorkerRepo) IncrementStrike(ctx context.Context, workerID string, category domain.ViolationCategory) (int, error) {
	if m.strikes[workerID] == nil {
		m.strikes[workerID] = map[domain.ViolationCategory]int{}
	}
	m.strikes[workerID][category]++
	return m.strikes[workerID][category], nil
}

func (m *mockWorkerRepo) DecrementStrike(ctx context.Context, workerID string, category domain.ViolationCategory) error {
	if m.strikes[workerID] != nil && m.strikes[workerID][category] > 0 {
		m.strikes[workerID][category]--
	}
	return nil
}

func (m *mockWorkerRepo) ResetStrikes(ctx context.Context, workerID string) (int, error) {
	previous := 0
	for _, n := range m.strikes[workerID] {
		previous += n
	}
	m.strikes[workerID] = map[domain.ViolationCategory]int{}
	return previous, nil
}

// ── shift repo mock ──

type mockShiftRepo struct {
	shifts map[string]*domain.Shift
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: map[string]*domain.Shift{}}
}

func (m *mockShiftRepo) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	s, ok := m.shifts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

// ── history repo mock ──

type mockHistoryRepo struct {
	entries []domain.SuspensionHistory
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{}
}

func (m *mockHistoryRepo) Create(ctx context.Context, entry *domain.SuspensionHistory) error {
	entry.ID = fmt.Sprintf("hist-%d", len(m.entries)+1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryRepo) ListBySuspension(ctx context.Context, suspensionID string, limit, offset int) ([]domain.SuspensionHistory, error) {
	var out []domain.SuspensionHistory
	for _, entry := range m.entries {
		if entry.SuspensionID != nil && *entry.SuspensionID == suspensionID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *mockHistoryRepo) ListByWorker(ctx context.Context, workerID string, limit, offset int) ([]domain.SuspensionHistory, error) {
	var out []domain.SuspensionHistory
	for _, entry := range m.entries {
		if entry.WorkerID == workerID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *mockHistoryRepo) byChangeType(changeType domain.SuspensionChangeType) []domain.SuspensionHistory {
	var out []domain.SuspensionHistory
	for _, entry := range m.entries {
		if entry.ChangeType == changeType {
			out = append(out, entry)
		}
	}
	return out
}

// ── evidence store mock ──

type mockEvidenceStore struct {
	stored map[string][]byte
	failed bool
}

func newMockEvidenceStore() *mockEvidenceStore {
	return &mockEvidenceStore{stored: map[string][]byte{}}
}

func (m *mockEvidenceStore) Store(ctx context.Context, fileName string, data []byte) (string, error) {
	if m.failed {
		return "", fmt.Errorf("evidence store unavailable")
	}
	key := fmt.Sprintf("key-%d-%s", len(m.stored)+1, fileName)
	m.stored[key] = data
	return key, nil
}

func (m *mockEvidenceStore) ResolveURL(key string) string {
	return "/evidence/" + key
}

// ── event dispatcher spy ──

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) eventTypes() []string {
	out := make([]string, 0, len(d.published))
	for _, event := range d.published {
		out = append(out, string(event.Type))
	}
	sort.Strings(out)
	return out
}

func (d *recordingDispatcher) hasType(eventType events.EventType) bool {
	for _, event := range d.published {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// ── lifter spy ──

type recordingLifter struct {
	calls []string
	notes []string
	err   error
}

func (l *recordingLifter) LiftForAppeal(ctx context.Context, suspensionID, notes string) error {
	if l.err != nil {
		return l.err
	}
	l.calls = append(l.calls, suspensionID)
	l.notes = append(l.notes, notes)
	return nil
}
