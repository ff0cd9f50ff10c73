package postgres

import (
	"context"
	"errors"

	"github.com/acadhub/committees/internal/models"
	"github.com/acadhub/committees/internal/utils"
	"gorm.io/gorm"
)

// CandidateDirectory resolves candidate records owned by the surrounding
// academic system.
type CandidateDirectory interface {
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
}

// ExaminerDirectory resolves examiner references (internal faculty or
// external examiners).
type ExaminerDirectory interface {
	ResolveExaminer(ctx context.Context, ref models.ExaminerRef) error
}

// DirectoryRepo implements both directory interfaces over the shared
// relational store.
type DirectoryRepo struct {
	db *gorm.DB
}

func NewDirectoryRepo(db *gorm.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

func (r *DirectoryRepo) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	var row models.Candidate
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *DirectoryRepo) ResolveExaminer(ctx context.Context, ref models.ExaminerRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	var (
		count int64
		err   error
	)
	if ref.Kind == models.ExaminerInternal {
		err = r.db.WithContext(ctx).Model(&models.FacultyMember{}).Where("id = ?", ref.ID).Count(&count).Error
	} else {
		err = r.db.WithContext(ctx).Model(&models.ExternalExaminer{}).Where("id = ?", ref.ID).Count(&count).Error
	}
	if err != nil {
		return err
	}
	if count == 0 {
		return utils.ErrNotFound
	}
	return nil
}
