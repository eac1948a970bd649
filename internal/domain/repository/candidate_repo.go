package repository

import (
	"context"

	"github.com/acmeaptix/aptix-api/internal/domain/entity"
)

// CandidateRepository: справочник кандидатов.
// Сами пользователи ведутся админ-панелью, здесь только то, что нужно экзамену.
type CandidateRepository interface {
	GetByID(ctx context.Context, id uint) (*entity.Candidate, error)
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Candidate, error)
	IsActive(ctx context.Context, id uint) (bool, error)
	SetExamInProgress(ctx context.Context, id uint, inProgress bool) error
	SetAggregateScore(ctx context.Context, id uint, score int) error
}
