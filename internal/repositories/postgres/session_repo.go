package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/acadhub/committees/internal/models"
	"github.com/acadhub/committees/internal/utils"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.ExaminationSession) error
	GetByID(ctx context.Context, id string) (*models.ExaminationSession, error)
	Update(ctx context.Context, s *models.ExaminationSession) error
	Delete(ctx context.Context, id string) error
	ListByCandidate(ctx context.Context, candidateID string) ([]models.ExaminationSession, error)
	ListByProgram(ctx context.Context, programID string, limit, offset int) ([]models.ExaminationSession, error)
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]models.ExaminationSession, error)
	// ListMissingMinutes returns held sessions with no minutes recorded yet.
	ListMissingMinutes(ctx context.Context, limit int) ([]models.ExaminationSession, error)
	// FindConflicting returns the candidate's non-cancelled sessions whose
	// scheduled time lies strictly inside (from, to), optionally excluding
	// one session id (the one being rescheduled).
	FindConflicting(ctx context.Context, candidateID string, from, to time.Time, excludeID string) ([]models.ExaminationSession, error)
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.ExaminationSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.ExaminationSession, error) {
	var row models.ExaminationSession
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("presentation_order ASC NULLS LAST, created_at ASC")
		}).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *sessionRepo) Update(ctx context.Context, s *models.ExaminationSession) error {
	res := r.db.WithContext(ctx).
		Model(&models.ExaminationSession{}).
		Where("id = ?", s.ID).
		Select("*").
		Omit("id", "created_at", "Members").
		Updates(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ExaminationSession{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) ListByCandidate(ctx context.Context, candidateID string) ([]models.ExaminationSession, error) {
	var rows []models.ExaminationSession
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("scheduled_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *sessionRepo) ListByProgram(ctx context.Context, programID string, limit, offset int) ([]models.ExaminationSession, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var rows []models.ExaminationSession
	err := r.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("scheduled_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

func (r *sessionRepo) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]models.ExaminationSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ExaminationSession
	err := r.db.WithContext(ctx).
		Where("scheduled_at >= ? AND status NOT IN ?", from.UTC(),
			[]models.SessionStatus{models.SessionCancelled, models.SessionHeld}).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *sessionRepo) ListMissingMinutes(ctx context.Context, limit int) ([]models.ExaminationSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ExaminationSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND minutes IS NULL AND minutes_document_ref = ''", models.SessionHeld).
		Order("held_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *sessionRepo) FindConflicting(ctx context.Context, candidateID string, from, to time.Time, excludeID string) ([]models.ExaminationSession, error) {
	q := r.db.WithContext(ctx).
		Where("candidate_id = ? AND status <> ?", candidateID, models.SessionCancelled).
		Where("scheduled_at > ? AND scheduled_at < ?", from.UTC(), to.UTC())
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var rows []models.ExaminationSession
	err := q.Order("scheduled_at ASC").Find(&rows).Error
	return rows, err
}
