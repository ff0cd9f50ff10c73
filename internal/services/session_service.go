package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/acadhub/committees/internal/cache"
	"github.com/acadhub/committees/internal/models"
	"github.com/acadhub/committees/internal/repositories/postgres"
	"github.com/acadhub/committees/internal/utils"
)

// conflictWindow is the half-width of the double-booking band around a
// session's time. Two sessions exactly conflictWindow apart do not conflict;
// anything strictly inside the band does.
const conflictWindow = 2 * time.Hour

// ConflictError identifies the session that already occupies the candidate's
// conflict window.
type ConflictError struct {
	ConflictingSessionID string
	ConflictingTime      time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicts with session %s scheduled at %s",
		e.ConflictingSessionID, e.ConflictingTime.Format(time.RFC3339))
}

type CreateSessionInput struct {
	CandidateID string
	ProgramID   string
	Type        models.SessionType
	ScheduledAt time.Time
	Details     models.SessionDetails
}

// UpdateSessionInput is a sparse patch; nil fields are left untouched.
type UpdateSessionInput struct {
	ScheduledAt         *time.Time
	Location            *string
	Remote              *bool
	VideoconferenceLink *string
	WorkTitle           *string
	AdvisorParticipates *bool
	Notes               *string
	AgendaItems         *[]string
	Minutes             datatypes.JSON
	MinutesDocumentRef  *string
	ThesisDocumentRef   *string
}

type SessionService interface {
	Create(ctx context.Context, in CreateSessionInput) (*models.ExaminationSession, error)
	Get(ctx context.Context, id string) (*models.ExaminationSession, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]models.ExaminationSession, error)
	ListByProgram(ctx context.Context, programID string, limit, offset int) ([]models.ExaminationSession, error)
	ListUpcoming(ctx context.Context, limit int) ([]models.ExaminationSession, error)
	ListMissingMinutes(ctx context.Context, limit int) ([]models.ExaminationSession, error)
	Update(ctx context.Context, id string, patch UpdateSessionInput) (*models.ExaminationSession, error)
	Confirm(ctx context.Context, id string) (*models.ExaminationSession, error)
	Cancel(ctx context.Context, id, reason string) (*models.ExaminationSession, error)
	Reschedule(ctx context.Context, id string, newTime time.Time) (*models.ExaminationSession, error)
	MarkHeld(ctx context.Context, id string, result models.SessionResult) (*models.ExaminationSession, error)
	RecordMinutes(ctx context.Context, id string, minutes datatypes.JSON, documentRef string) (*models.ExaminationSession, error)
	Delete(ctx context.Context, id string) error
	ValidateComposition(ctx context.Context, id string) (CompositionReport, error)
}

type sessionService struct {
	uow        postgres.UnitOfWork
	sessions   postgres.SessionRepository
	members    postgres.MemberRepository
	candidates postgres.CandidateDirectory
	cache      cache.Cache
	log        *logrus.Logger
}

func NewSessionService(
	uow postgres.UnitOfWork,
	sessions postgres.SessionRepository,
	members postgres.MemberRepository,
	candidates postgres.CandidateDirectory,
	c cache.Cache,
	log *logrus.Logger,
) SessionService {
	return &sessionService{
		uow:        uow,
		sessions:   sessions,
		members:    members,
		candidates: candidates,
		cache:      c,
		log:        log,
	}
}

func (s *sessionService) Create(ctx context.Context, in CreateSessionInput) (*models.ExaminationSession, error) {
	const op = "SessionService.Create"

	if _, err := s.candidates.GetCandidate(ctx, in.CandidateID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "candidate not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve candidate", err)
	}

	session, err := models.NewExaminationSession(in.CandidateID, in.ProgramID, in.Type, in.ScheduledAt, in.Details)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithCandidateSessionLock(ctx, in.CandidateID, session.ID, func(r postgres.Repos) error {
		if err := s.checkConflict(ctx, r.Sessions, op, in.CandidateID, session.ScheduledAt, ""); err != nil {
			return err
		}
		if err := r.Sessions.Create(ctx, session); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to create session", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id":   session.ID,
		"candidate_id": session.CandidateID,
		"session_type": session.Type,
		"scheduled_at": session.ScheduledAt,
	}).Info("session scheduled")
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*models.ExaminationSession, error) {
	const op = "SessionService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session id is required", nil)
	}

	var cached models.ExaminationSession
	if hit, err := s.cache.GetJSON(ctx, cache.SessionKey(id), &cached); err != nil {
		s.log.WithError(err).WithField("session_id", id).Warn("session cache read failed")
	} else if hit {
		s.log.WithField("session_id", id).Debug("session cache hit")
		return &cached, nil
	}

	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	if err := s.cache.SetJSON(ctx, cache.SessionKey(id), session, cache.SessionTTL); err != nil {
		s.log.WithError(err).WithField("session_id", id).Warn("session cache write failed")
	}
	return session, nil
}

func (s *sessionService) ListByCandidate(ctx context.Context, candidateID string) ([]models.ExaminationSession, error) {
	const op = "SessionService.ListByCandidate"

	if candidateID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "candidate id is required", nil)
	}
	rows, err := s.sessions.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return rows, nil
}

func (s *sessionService) ListByProgram(ctx context.Context, programID string, limit, offset int) ([]models.ExaminationSession, error) {
	const op = "SessionService.ListByProgram"

	if programID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "program id is required", nil)
	}
	rows, err := s.sessions.ListByProgram(ctx, programID, limit, offset)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return rows, nil
}

func (s *sessionService) ListUpcoming(ctx context.Context, limit int) ([]models.ExaminationSession, error) {
	const op = "SessionService.ListUpcoming"

	rows, err := s.sessions.ListUpcoming(ctx, time.Now().UTC(), limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list upcoming sessions", err)
	}
	return rows, nil
}

// ListMissingMinutes returns held sessions that still have no minutes record.
func (s *sessionService) ListMissingMinutes(ctx context.Context, limit int) ([]models.ExaminationSession, error) {
	const op = "SessionService.ListMissingMinutes"

	rows, err := s.sessions.ListMissingMinutes(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions missing minutes", err)
	}
	return rows, nil
}

func (s *sessionService) Update(ctx context.Context, id string, patch UpdateSessionInput) (*models.ExaminationSession, error) {
	const op = "SessionService.Update"

	// The pre-lock read only supplies the candidate id for lock ordering;
	// the id never changes, so a stale read is safe here. Everything else is
	// decided on the re-read under the locks.
	current, err := s.loadSession(ctx, s.sessions, op, id)
	if err != nil {
		return nil, err
	}

	var updated *models.ExaminationSession
	err = s.uow.WithCandidateSessionLock(ctx, current.CandidateID, id, func(r postgres.Repos) error {
		session, err := s.loadSession(ctx, r.Sessions, op, id)
		if err != nil {
			return err
		}
		if session.Status != current.Status {
			return utils.E(utils.CodeConcurrentModification, op,
				"session was modified concurrently, retry the update", nil)
		}
		if session.IsHeld() {
			return utils.E(utils.CodeInvalidTransition, op, "session was already held and cannot be updated", nil)
		}
		if patch.ScheduledAt != nil && !patch.ScheduledAt.UTC().Equal(session.ScheduledAt) {
			if err := s.checkConflict(ctx, r.Sessions, op, session.CandidateID, patch.ScheduledAt.UTC(), session.ID); err != nil {
				return err
			}
		}
		applyPatch(session, patch)
		if err := r.Sessions.Update(ctx, session); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to update session", err)
		}
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, id)
	s.log.WithField("session_id", id).Info("session updated")
	return updated, nil
}

func (s *sessionService) Confirm(ctx context.Context, id string) (*models.ExaminationSession, error) {
	const op = "SessionService.Confirm"

	session, err := s.transition(ctx, op, id, func(session *models.ExaminationSession, _ postgres.Repos) error {
		return session.Confirm()
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("session_id", id).Info("session confirmed")
	return session, nil
}

func (s *sessionService) Cancel(ctx context.Context, id, reason string) (*models.ExaminationSession, error) {
	const op = "SessionService.Cancel"

	session, err := s.transition(ctx, op, id, func(session *models.ExaminationSession, _ postgres.Repos) error {
		return session.Cancel(reason)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("session_id", id).Info("session cancelled")
	return session, nil
}

func (s *sessionService) Reschedule(ctx context.Context, id string, newTime time.Time) (*models.ExaminationSession, error) {
	const op = "SessionService.Reschedule"

	if newTime.IsZero() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "new time is required", nil)
	}

	current, err := s.loadSession(ctx, s.sessions, op, id)
	if err != nil {
		return nil, err
	}

	var updated *models.ExaminationSession
	err = s.uow.WithCandidateSessionLock(ctx, current.CandidateID, id, func(r postgres.Repos) error {
		session, err := s.loadSession(ctx, r.Sessions, op, id)
		if err != nil {
			return err
		}
		if session.Status != current.Status {
			return utils.E(utils.CodeConcurrentModification, op,
				"session was modified concurrently, retry the reschedule", nil)
		}
		if !session.CanReschedule() {
			return utils.E(utils.CodeInvalidTransition, op,
				fmt.Sprintf("session cannot be rescheduled in status %s", session.Status), nil)
		}
		if err := s.checkConflict(ctx, r.Sessions, op, session.CandidateID, newTime.UTC(), session.ID); err != nil {
			return err
		}
		if err := session.Reschedule(newTime); err != nil {
			return err
		}
		if err := r.Sessions.Update(ctx, session); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to update session", err)
		}
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, id)
	s.log.WithFields(logrus.Fields{
		"session_id":   id,
		"scheduled_at": updated.ScheduledAt,
	}).Info("session rescheduled")
	return updated, nil
}

func (s *sessionService) MarkHeld(ctx context.Context, id string, result models.SessionResult) (*models.ExaminationSession, error) {
	const op = "SessionService.MarkHeld"

	session, err := s.transition(ctx, op, id, func(session *models.ExaminationSession, r postgres.Repos) error {
		members, err := r.Members.ListBySession(ctx, id)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to load members", err)
		}
		if report := EvaluateComposition(members); !report.Valid() {
			return utils.E(utils.CodeInvalidComposition, op,
				"panel composition violates the rules", &CompositionError{Report: report})
		}
		return session.MarkHeld(result, time.Now())
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": id,
		"result":     result,
	}).Info("session held")
	return session, nil
}

func (s *sessionService) RecordMinutes(ctx context.Context, id string, minutes datatypes.JSON, documentRef string) (*models.ExaminationSession, error) {
	const op = "SessionService.RecordMinutes"

	session, err := s.transition(ctx, op, id, func(session *models.ExaminationSession, _ postgres.Repos) error {
		return session.RecordMinutes(minutes, documentRef)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("session_id", id).Info("minutes recorded")
	return session, nil
}

func (s *sessionService) Delete(ctx context.Context, id string) error {
	const op = "SessionService.Delete"

	err := s.uow.WithSessionLock(ctx, id, func(r postgres.Repos) error {
		session, err := s.loadSession(ctx, r.Sessions, op, id)
		if err != nil {
			return err
		}
		if session.IsHeld() {
			return utils.E(utils.CodeInvalidTransition, op, "a held session cannot be deleted", nil)
		}
		if err := r.Sessions.Delete(ctx, id); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to delete session", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.evict(ctx, id)
	s.log.WithField("session_id", id).Info("session deleted")
	return nil
}

func (s *sessionService) ValidateComposition(ctx context.Context, id string) (CompositionReport, error) {
	const op = "SessionService.ValidateComposition"

	if _, err := s.loadSession(ctx, s.sessions, op, id); err != nil {
		return CompositionReport{}, err
	}
	members, err := s.members.ListBySession(ctx, id)
	if err != nil {
		return CompositionReport{}, utils.E(utils.CodeInternal, op, "failed to load members", err)
	}
	return EvaluateComposition(members), nil
}

// transition loads the session under its lock, applies fn and persists.
func (s *sessionService) transition(ctx context.Context, op, id string, fn func(*models.ExaminationSession, postgres.Repos) error) (*models.ExaminationSession, error) {
	var updated *models.ExaminationSession
	err := s.uow.WithSessionLock(ctx, id, func(r postgres.Repos) error {
		session, err := s.loadSession(ctx, r.Sessions, op, id)
		if err != nil {
			return err
		}
		if err := fn(session, r); err != nil {
			return err
		}
		if err := r.Sessions.Update(ctx, session); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to update session", err)
		}
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.evict(ctx, id)
	return updated, nil
}

func (s *sessionService) loadSession(ctx context.Context, repo postgres.SessionRepository, op, id string) (*models.ExaminationSession, error) {
	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session id is required", nil)
	}
	session, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return session, nil
}

// checkConflict fails when another active session of the candidate sits
// strictly inside the conflict window around t.
func (s *sessionService) checkConflict(ctx context.Context, repo postgres.SessionRepository, op, candidateID string, t time.Time, excludeID string) error {
	conflicts, err := repo.FindConflicting(ctx, candidateID, t.Add(-conflictWindow), t.Add(conflictWindow), excludeID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to check scheduling conflicts", err)
	}
	if len(conflicts) > 0 {
		return utils.E(utils.CodeSchedulingConflict, op,
			"candidate already has a session within the conflict window",
			&ConflictError{
				ConflictingSessionID: conflicts[0].ID,
				ConflictingTime:      conflicts[0].ScheduledAt,
			})
	}
	return nil
}

func (s *sessionService) evict(ctx context.Context, id string) {
	if err := s.cache.Del(ctx, cache.SessionKey(id)); err != nil {
		s.log.WithError(err).WithField("session_id", id).Warn("session cache eviction failed")
	}
}

func applyPatch(session *models.ExaminationSession, patch UpdateSessionInput) {
	if patch.ScheduledAt != nil {
		session.ScheduledAt = patch.ScheduledAt.UTC()
	}
	if patch.Location != nil {
		session.Location = *patch.Location
	}
	if patch.Remote != nil {
		session.Remote = *patch.Remote
	}
	if patch.VideoconferenceLink != nil {
		session.VideoconferenceLink = *patch.VideoconferenceLink
	}
	if patch.WorkTitle != nil {
		session.WorkTitle = *patch.WorkTitle
	}
	if patch.AdvisorParticipates != nil {
		session.AdvisorParticipates = *patch.AdvisorParticipates
	}
	if patch.Notes != nil {
		session.Notes = *patch.Notes
	}
	if patch.AgendaItems != nil {
		session.AgendaItems = *patch.AgendaItems
	}
	if patch.Minutes != nil {
		session.Minutes = patch.Minutes
	}
	if patch.MinutesDocumentRef != nil {
		session.MinutesDocumentRef = *patch.MinutesDocumentRef
	}
	if patch.ThesisDocumentRef != nil {
		session.ThesisDocumentRef = *patch.ThesisDocumentRef
	}
}
