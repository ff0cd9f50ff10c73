package services

import (
	"context"
	"sort"
	"time"

	"github.com/acadhub/committees/internal/models"
	"github.com/acadhub/committees/internal/repositories/postgres"
	"github.com/acadhub/committees/internal/utils"
)

// In-memory stand-ins for the postgres repositories. Copy-on-read /
// copy-on-write so nothing leaks through shared pointers, mirroring what a
// real round-trip through the database gives the services.

type fakeStore struct {
	sessions map[string]models.ExaminationSession
	members  map[string]models.CommitteeMember
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]models.ExaminationSession),
		members:  make(map[string]models.CommitteeMember),
	}
}

type fakeSessionRepo struct{ st *fakeStore }

func (r *fakeSessionRepo) Create(_ context.Context, s *models.ExaminationSession) error {
	r.st.sessions[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*models.ExaminationSession, error) {
	s, ok := r.st.sessions[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	out := s
	return &out, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *models.ExaminationSession) error {
	if _, ok := r.st.sessions[s.ID]; !ok {
		return utils.ErrNotFound
	}
	r.st.sessions[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.sessions[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.st.sessions, id)
	for mid, m := range r.st.members {
		if m.SessionID == id {
			delete(r.st.members, mid)
		}
	}
	return nil
}

func (r *fakeSessionRepo) ListByCandidate(_ context.Context, candidateID string) ([]models.ExaminationSession, error) {
	var rows []models.ExaminationSession
	for _, s := range r.st.sessions {
		if s.CandidateID == candidateID {
			rows = append(rows, s)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ScheduledAt.Before(rows[j].ScheduledAt) })
	return rows, nil
}

func (r *fakeSessionRepo) ListByProgram(_ context.Context, programID string, _, _ int) ([]models.ExaminationSession, error) {
	var rows []models.ExaminationSession
	for _, s := range r.st.sessions {
		if s.ProgramID == programID {
			rows = append(rows, s)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ScheduledAt.Before(rows[j].ScheduledAt) })
	return rows, nil
}

func (r *fakeSessionRepo) ListUpcoming(_ context.Context, from time.Time, _ int) ([]models.ExaminationSession, error) {
	var rows []models.ExaminationSession
	for _, s := range r.st.sessions {
		if !s.ScheduledAt.Before(from) && s.Status != models.SessionCancelled && s.Status != models.SessionHeld {
			rows = append(rows, s)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ScheduledAt.Before(rows[j].ScheduledAt) })
	return rows, nil
}

func (r *fakeSessionRepo) ListMissingMinutes(_ context.Context, _ int) ([]models.ExaminationSession, error) {
	var rows []models.ExaminationSession
	for _, s := range r.st.sessions {
		if s.Status == models.SessionHeld && len(s.Minutes) == 0 && s.MinutesDocumentRef == "" {
			rows = append(rows, s)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].HeldAt.Before(*rows[j].HeldAt) })
	return rows, nil
}

func (r *fakeSessionRepo) FindConflicting(_ context.Context, candidateID string, from, to time.Time, excludeID string) ([]models.ExaminationSession, error) {
	var rows []models.ExaminationSession
	for _, s := range r.st.sessions {
		if s.CandidateID != candidateID || s.Status == models.SessionCancelled || s.ID == excludeID {
			continue
		}
		if s.ScheduledAt.After(from) && s.ScheduledAt.Before(to) {
			rows = append(rows, s)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ScheduledAt.Before(rows[j].ScheduledAt) })
	return rows, nil
}

type fakeMemberRepo struct{ st *fakeStore }

func (r *fakeMemberRepo) Create(_ context.Context, m *models.CommitteeMember) error {
	r.st.members[m.ID] = *m
	return nil
}

func (r *fakeMemberRepo) GetByID(_ context.Context, id string) (*models.CommitteeMember, error) {
	m, ok := r.st.members[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	out := m
	return &out, nil
}

func (r *fakeMemberRepo) Update(_ context.Context, m *models.CommitteeMember) error {
	if _, ok := r.st.members[m.ID]; !ok {
		return utils.ErrNotFound
	}
	r.st.members[m.ID] = *m
	return nil
}

func (r *fakeMemberRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.members[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.st.members, id)
	return nil
}

func (r *fakeMemberRepo) ListBySession(_ context.Context, sessionID string) ([]models.CommitteeMember, error) {
	var rows []models.CommitteeMember
	for _, m := range r.st.members {
		if m.SessionID == sessionID {
			rows = append(rows, m)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (r *fakeMemberRepo) ListBySessionAndType(_ context.Context, sessionID string, memberType models.MemberType) ([]models.CommitteeMember, error) {
	var rows []models.CommitteeMember
	for _, m := range r.st.members {
		if m.SessionID == sessionID && m.MemberType == memberType {
			rows = append(rows, m)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (r *fakeMemberRepo) ListByExaminer(_ context.Context, ref models.ExaminerRef) ([]models.CommitteeMember, error) {
	var rows []models.CommitteeMember
	for _, m := range r.st.members {
		if m.Examiner() == ref {
			rows = append(rows, m)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (r *fakeMemberRepo) ExistsByExaminer(_ context.Context, sessionID string, ref models.ExaminerRef) (bool, error) {
	for _, m := range r.st.members {
		if m.SessionID == sessionID && m.Examiner() == ref {
			return true, nil
		}
	}
	return false, nil
}

// fakeUnitOfWork records which lock keys each operation asked for and lets a
// test interleave a "concurrent" commit at the moment the locks would be
// granted.
type fakeUnitOfWork struct {
	st             *fakeStore
	candidateLocks []string
	sessionLocks   []string
	onLock         func()
}

func (u *fakeUnitOfWork) repos() postgres.Repos {
	return postgres.Repos{
		Sessions: &fakeSessionRepo{st: u.st},
		Members:  &fakeMemberRepo{st: u.st},
	}
}

func (u *fakeUnitOfWork) lock(candidateID, sessionID string) {
	if candidateID != "" {
		u.candidateLocks = append(u.candidateLocks, candidateID)
	}
	if sessionID != "" {
		u.sessionLocks = append(u.sessionLocks, sessionID)
	}
	if u.onLock != nil {
		u.onLock()
	}
}

func (u *fakeUnitOfWork) WithCandidateLock(_ context.Context, candidateID string, fn func(postgres.Repos) error) error {
	u.lock(candidateID, "")
	return fn(u.repos())
}

func (u *fakeUnitOfWork) WithSessionLock(_ context.Context, sessionID string, fn func(postgres.Repos) error) error {
	u.lock("", sessionID)
	return fn(u.repos())
}

func (u *fakeUnitOfWork) WithCandidateSessionLock(_ context.Context, candidateID, sessionID string, fn func(postgres.Repos) error) error {
	u.lock(candidateID, sessionID)
	return fn(u.repos())
}

type fakeCandidateDirectory struct{ candidates map[string]models.Candidate }

func (d *fakeCandidateDirectory) GetCandidate(_ context.Context, id string) (*models.Candidate, error) {
	c, ok := d.candidates[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	out := c
	return &out, nil
}

type fakeExaminerDirectory struct {
	internal map[string]bool
	external map[string]bool
}

func (d *fakeExaminerDirectory) ResolveExaminer(_ context.Context, ref models.ExaminerRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	known := d.external
	if ref.Kind == models.ExaminerInternal {
		known = d.internal
	}
	if !known[ref.ID] {
		return utils.ErrNotFound
	}
	return nil
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, any) (bool, error)        { return false, nil }
func (noopCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (noopCache) Del(context.Context, ...string) error                      { return nil }
