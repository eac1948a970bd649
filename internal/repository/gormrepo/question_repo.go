package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/acmeaptix/aptix-api/internal/domain/entity"
	apperrors "github.com/acmeaptix/aptix-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return persistenceErr("create question", err)
	}
	return nil
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, notFoundOr(fmt.Sprintf("question %d", id), err)
	}
	return &question, nil
}

// GetByIDs возвращает вопросы по списку ID одним запросом
func (r *QuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error) {
	if len(ids) == 0 {
		return []entity.Question{}, nil
	}
	var questions []entity.Question
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, persistenceErr("get questions by ids", err)
	}
	return questions, nil
}

// List возвращает все вопросы, опционально по категории
func (r *QuestionRepo) List(ctx context.Context, categoryCode *int) ([]entity.Question, error) {
	var questions []entity.Question
	query := r.db.WithContext(ctx).Order("id")
	if categoryCode != nil {
		query = query.Where("category_code = ?", *categoryCode)
	}
	if err := query.Find(&questions).Error; err != nil {
		return nil, persistenceErr("list questions", err)
	}
	return questions, nil
}

// Update сохраняет изменения вопроса.
// Уже начатые экзамены не затрагиваются: правильный ответ скопирован в строки ответов.
func (r *QuestionRepo) Update(ctx context.Context, question *entity.Question) error {
	if err := r.db.WithContext(ctx).Save(question).Error; err != nil {
		return persistenceErr(fmt.Sprintf("update question %d", question.ID), err)
	}
	return nil
}

// Delete удаляет вопрос. Вопрос, на который ссылаются строки ответов, удалить нельзя.
func (r *QuestionRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&entity.Question{}, id)
	if res.Error != nil {
		if isForeignKeyViolation(res.Error) {
			return fmt.Errorf("question %d is used by exam answers: %w", id, apperrors.ErrConflict)
		}
		return persistenceErr(fmt.Sprintf("delete question %d", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("question %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// SampleRandom выбирает count случайных вопросов.
// Если подходящих меньше, возвращаются все, ошибкой это не считается.
func (r *QuestionRepo) SampleRandom(ctx context.Context, count int, categoryCode *int) ([]entity.Question, error) {
	var questions []entity.Question
	query := r.db.WithContext(ctx)
	if categoryCode != nil {
		query = query.Where("category_code = ?", *categoryCode)
	}
	if err := query.Order(randomOrder(r.db)).Limit(count).Find(&questions).Error; err != nil {
		return nil, persistenceErr("sample random questions", err)
	}
	return questions, nil
}

// randomOrder возвращает функцию случайной сортировки для текущего диалекта
func randomOrder(db *gorm.DB) string {
	if db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}
