package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/acmeaptix/aptix-api/internal/domain/entity"
)

// CandidateRepo реализует repository.CandidateRepository поверх таблицы users
type CandidateRepo struct {
	db *gorm.DB
}

// NewCandidateRepo создает новый репозиторий кандидатов
func NewCandidateRepo(db *gorm.DB) *CandidateRepo {
	return &CandidateRepo{db: db}
}

// GetByID возвращает кандидата по ID
func (r *CandidateRepo) GetByID(ctx context.Context, id uint) (*entity.Candidate, error) {
	var candidate entity.Candidate
	if err := r.db.WithContext(ctx).First(&candidate, id).Error; err != nil {
		return nil, notFoundOr(fmt.Sprintf("candidate %d", id), err)
	}
	return &candidate, nil
}

// GetByIDs возвращает кандидатов по списку ID
func (r *CandidateRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Candidate, error) {
	if len(ids) == 0 {
		return []entity.Candidate{}, nil
	}
	var candidates []entity.Candidate
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&candidates).Error; err != nil {
		return nil, persistenceErr("get candidates by ids", err)
	}
	return candidates, nil
}

// IsActive проверяет, что кандидат есть в users
func (r *CandidateRepo) IsActive(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Candidate{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, persistenceErr(fmt.Sprintf("check candidate %d", id), err)
	}
	return count > 0, nil
}

// SetExamInProgress выставляет флаг "экзамен начат"
func (r *CandidateRepo) SetExamInProgress(ctx context.Context, id uint, inProgress bool) error {
	err := r.db.WithContext(ctx).
		Model(&entity.Candidate{}).
		Where("id = ?", id).
		Update("examstarted", entity.IntBool(inProgress)).Error
	if err != nil {
		return persistenceErr(fmt.Sprintf("set exam flag of candidate %d", id), err)
	}
	return nil
}

// SetAggregateScore записывает итоговый балл кандидата
func (r *CandidateRepo) SetAggregateScore(ctx context.Context, id uint, score int) error {
	err := r.db.WithContext(ctx).
		Model(&entity.Candidate{}).
		Where("id = ?", id).
		Update("aptiscore", score).Error
	if err != nil {
		return persistenceErr(fmt.Sprintf("set score of candidate %d", id), err)
	}
	return nil
}
