package repository

import (
	"context"

	"github.com/acmeaptix/aptix-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с банком вопросов
type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	// GetByIDs возвращает вопросы по списку ID; отсутствующие просто не попадают в результат
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error)
	List(ctx context.Context, categoryCode *int) ([]entity.Question, error)
	Update(ctx context.Context, question *entity.Question) error
	Delete(ctx context.Context, id uint) error
	// SampleRandom выбирает до count случайных вопросов (при нехватке возвращает все подходящие)
	SampleRandom(ctx context.Context, count int, categoryCode *int) ([]entity.Question, error)
}
