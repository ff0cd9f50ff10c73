package postgres

import (
	"context"
	"errors"

	"github.com/acadhub/committees/internal/models"
	"github.com/acadhub/committees/internal/utils"
	"gorm.io/gorm"
)

type MemberRepository interface {
	Create(ctx context.Context, m *models.CommitteeMember) error
	GetByID(ctx context.Context, id string) (*models.CommitteeMember, error)
	Update(ctx context.Context, m *models.CommitteeMember) error
	Delete(ctx context.Context, id string) error
	ListBySession(ctx context.Context, sessionID string) ([]models.CommitteeMember, error)
	ListBySessionAndType(ctx context.Context, sessionID string, memberType models.MemberType) ([]models.CommitteeMember, error)
	// ListByExaminer returns every seat held by the given examiner across
	// sessions.
	ListByExaminer(ctx context.Context, ref models.ExaminerRef) ([]models.CommitteeMember, error)
	// ExistsByExaminer reports whether the given examiner already holds a
	// seat on the session.
	ExistsByExaminer(ctx context.Context, sessionID string, ref models.ExaminerRef) (bool, error)
}

type memberRepo struct {
	db *gorm.DB
}

func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) Create(ctx context.Context, m *models.CommitteeMember) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *memberRepo) GetByID(ctx context.Context, id string) (*models.CommitteeMember, error) {
	var row models.CommitteeMember
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *memberRepo) Update(ctx context.Context, m *models.CommitteeMember) error {
	res := r.db.WithContext(ctx).
		Model(&models.CommitteeMember{}).
		Where("id = ?", m.ID).
		Select("*").
		Omit("id", "session_id", "created_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *memberRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CommitteeMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *memberRepo) ListBySession(ctx context.Context, sessionID string) ([]models.CommitteeMember, error) {
	var rows []models.CommitteeMember
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("presentation_order ASC NULLS LAST, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *memberRepo) ListBySessionAndType(ctx context.Context, sessionID string, memberType models.MemberType) ([]models.CommitteeMember, error) {
	var rows []models.CommitteeMember
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND member_type = ?", sessionID, memberType).
		Order("presentation_order ASC NULLS LAST, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *memberRepo) ListByExaminer(ctx context.Context, ref models.ExaminerRef) ([]models.CommitteeMember, error) {
	column := "internal_faculty_id"
	if ref.Kind == models.ExaminerExternal {
		column = "external_examiner_id"
	}
	var rows []models.CommitteeMember
	err := r.db.WithContext(ctx).
		Where(column+" = ?", ref.ID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *memberRepo) ExistsByExaminer(ctx context.Context, sessionID string, ref models.ExaminerRef) (bool, error) {
	column := "internal_faculty_id"
	if ref.Kind == models.ExaminerExternal {
		column = "external_examiner_id"
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommitteeMember{}).
		Where("session_id = ? AND "+column+" = ?", sessionID, ref.ID).
		Count(&count).Error
	return count > 0, err
}
