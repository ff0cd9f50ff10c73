package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/acadhub/committees/internal/cache"
	"github.com/acadhub/committees/internal/models"
	"github.com/acadhub/committees/internal/repositories/postgres"
	"github.com/acadhub/committees/internal/utils"
)

type AddMemberInput struct {
	Examiner          models.ExaminerRef
	MemberType        models.MemberType
	Role              models.MemberRole
	PresentationOrder *int
}

type MemberService interface {
	AddMember(ctx context.Context, sessionID string, in AddMemberInput) (*models.CommitteeMember, error)
	RemoveMember(ctx context.Context, sessionID, memberID string) error
	SendInvite(ctx context.Context, memberID string) (*models.CommitteeMember, error)
	ConfirmInvitation(ctx context.Context, memberID string) (*models.CommitteeMember, error)
	DeclineInvitation(ctx context.Context, memberID, reason string) (*models.CommitteeMember, error)
	Get(ctx context.Context, memberID string) (*models.CommitteeMember, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.CommitteeMember, error)
	ListTitulars(ctx context.Context, sessionID string) ([]models.CommitteeMember, error)
	ListAlternates(ctx context.Context, sessionID string) ([]models.CommitteeMember, error)
	ListByExaminer(ctx context.Context, ref models.ExaminerRef) ([]models.CommitteeMember, error)
}

type memberService struct {
	uow       postgres.UnitOfWork
	members   postgres.MemberRepository
	examiners postgres.ExaminerDirectory
	cache     cache.Cache
	log       *logrus.Logger
}

func NewMemberService(
	uow postgres.UnitOfWork,
	members postgres.MemberRepository,
	examiners postgres.ExaminerDirectory,
	c cache.Cache,
	log *logrus.Logger,
) MemberService {
	return &memberService{
		uow:       uow,
		members:   members,
		examiners: examiners,
		cache:     c,
		log:       log,
	}
}

func (s *memberService) AddMember(ctx context.Context, sessionID string, in AddMemberInput) (*models.CommitteeMember, error) {
	const op = "MemberService.AddMember"

	if err := in.Examiner.Validate(); err != nil {
		return nil, err
	}
	if err := s.examiners.ResolveExaminer(ctx, in.Examiner); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeInvalidExaminerRef, op, "referenced examiner does not exist", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve examiner", err)
	}

	member, err := models.NewCommitteeMember(sessionID, in.Examiner, in.MemberType, in.Role, in.PresentationOrder)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithSessionLock(ctx, sessionID, func(r postgres.Repos) error {
		session, err := r.Sessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return utils.E(utils.CodeNotFound, op, "session not found", err)
			}
			return utils.E(utils.CodeInternal, op, "failed to get session", err)
		}
		if session.IsHeld() {
			return utils.E(utils.CodeInvalidTransition, op, "members cannot be added to a held session", nil)
		}

		exists, err := r.Members.ExistsByExaminer(ctx, sessionID, in.Examiner)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to check for duplicate member", err)
		}
		if exists {
			return utils.E(utils.CodeDuplicateMember, op, "examiner is already a member of this session", nil)
		}

		if err := r.Members.Create(ctx, member); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to add member", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, sessionID)
	s.log.WithFields(logrus.Fields{
		"session_id":    sessionID,
		"member_id":     member.ID,
		"examiner_kind": in.Examiner.Kind,
		"member_type":   in.MemberType,
		"role":          in.Role,
	}).Info("member added to session")
	return member, nil
}

func (s *memberService) RemoveMember(ctx context.Context, sessionID, memberID string) error {
	const op = "MemberService.RemoveMember"

	err := s.uow.WithSessionLock(ctx, sessionID, func(r postgres.Repos) error {
		member, err := s.loadMember(ctx, r.Members, op, memberID)
		if err != nil {
			return err
		}
		if member.SessionID != sessionID {
			return utils.E(utils.CodeNotFound, op, "member does not belong to this session", nil)
		}
		session, err := r.Sessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return utils.E(utils.CodeNotFound, op, "session not found", err)
			}
			return utils.E(utils.CodeInternal, op, "failed to get session", err)
		}
		if session.IsHeld() {
			return utils.E(utils.CodeInvalidTransition, op, "members cannot be removed from a held session", nil)
		}
		if err := r.Members.Delete(ctx, memberID); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to remove member", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.evict(ctx, sessionID)
	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"member_id":  memberID,
	}).Info("member removed from session")
	return nil
}

func (s *memberService) SendInvite(ctx context.Context, memberID string) (*models.CommitteeMember, error) {
	const op = "MemberService.SendInvite"

	member, err := s.respond(ctx, op, memberID, func(m *models.CommitteeMember) error {
		return m.SendInvite(time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("member_id", memberID).Info("invitation sent")
	return member, nil
}

func (s *memberService) ConfirmInvitation(ctx context.Context, memberID string) (*models.CommitteeMember, error) {
	const op = "MemberService.ConfirmInvitation"

	member, err := s.respond(ctx, op, memberID, func(m *models.CommitteeMember) error {
		return m.ConfirmInvitation(time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("member_id", memberID).Info("invitation confirmed")
	return member, nil
}

func (s *memberService) DeclineInvitation(ctx context.Context, memberID, reason string) (*models.CommitteeMember, error) {
	const op = "MemberService.DeclineInvitation"

	member, err := s.respond(ctx, op, memberID, func(m *models.CommitteeMember) error {
		return m.DeclineInvitation(reason, time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("member_id", memberID).Info("invitation declined")
	return member, nil
}

func (s *memberService) Get(ctx context.Context, memberID string) (*models.CommitteeMember, error) {
	const op = "MemberService.Get"
	return s.loadMember(ctx, s.members, op, memberID)
}

func (s *memberService) ListBySession(ctx context.Context, sessionID string) ([]models.CommitteeMember, error) {
	const op = "MemberService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session id is required", nil)
	}
	rows, err := s.members.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list members", err)
	}
	return rows, nil
}

func (s *memberService) ListTitulars(ctx context.Context, sessionID string) ([]models.CommitteeMember, error) {
	const op = "MemberService.ListTitulars"

	rows, err := s.members.ListBySessionAndType(ctx, sessionID, models.MemberTitular)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list titular members", err)
	}
	return rows, nil
}

func (s *memberService) ListAlternates(ctx context.Context, sessionID string) ([]models.CommitteeMember, error) {
	const op = "MemberService.ListAlternates"

	rows, err := s.members.ListBySessionAndType(ctx, sessionID, models.MemberAlternate)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list alternate members", err)
	}
	return rows, nil
}

// ListByExaminer returns every committee seat the examiner holds.
func (s *memberService) ListByExaminer(ctx context.Context, ref models.ExaminerRef) ([]models.CommitteeMember, error) {
	const op = "MemberService.ListByExaminer"

	if err := ref.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.members.ListByExaminer(ctx, ref)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list memberships", err)
	}
	return rows, nil
}

// respond applies an invitation transition under the owning session's lock
// so markHeld observes a consistent member snapshot.
func (s *memberService) respond(ctx context.Context, op, memberID string, fn func(*models.CommitteeMember) error) (*models.CommitteeMember, error) {
	current, err := s.loadMember(ctx, s.members, op, memberID)
	if err != nil {
		return nil, err
	}

	var updated *models.CommitteeMember
	err = s.uow.WithSessionLock(ctx, current.SessionID, func(r postgres.Repos) error {
		member, err := s.loadMember(ctx, r.Members, op, memberID)
		if err != nil {
			return err
		}
		if err := fn(member); err != nil {
			return err
		}
		if err := r.Members.Update(ctx, member); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to update member", err)
		}
		updated = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, current.SessionID)
	return updated, nil
}

func (s *memberService) loadMember(ctx context.Context, repo postgres.MemberRepository, op, memberID string) (*models.CommitteeMember, error) {
	if memberID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "member id is required", nil)
	}
	member, err := repo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "member not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get member", err)
	}
	return member, nil
}

func (s *memberService) evict(ctx context.Context, sessionID string) {
	if err := s.cache.Del(ctx, cache.SessionKey(sessionID)); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("session cache eviction failed")
	}
}
