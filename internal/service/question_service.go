package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/acmeaptix/aptix-api/internal/config"
	"github.com/acmeaptix/aptix-api/internal/domain/entity"
	"github.com/acmeaptix/aptix-api/internal/domain/repository"
	apperrors "github.com/acmeaptix/aptix-api/internal/pkg/errors"
)

// maxTextLength: предел длины текста вопроса и вариантов (VARCHAR(255))
const maxTextLength = 255

// QuestionService предоставляет методы для работы с банком вопросов
type QuestionService struct {
	questionRepo repository.QuestionRepository
	cfg          config.ExamConfig
	logger       *zap.Logger
}

// NewQuestionService создает новый сервис вопросов
func NewQuestionService(questionRepo repository.QuestionRepository, cfg config.ExamConfig, logger *zap.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		cfg:          cfg,
		logger:       logger.Named("question_service"),
	}
}

// QuestionInput: данные для создания вопроса
type QuestionInput struct {
	CategoryCode  *int
	Text          string
	Options       [entity.OptionsPerQuestion]string
	CorrectAnswer int
}

// QuestionPatch: частичное обновление вопроса; nil означает "не менять"
type QuestionPatch struct {
	CategoryCode  *int
	Text          *string
	Options       [entity.OptionsPerQuestion]*string
	CorrectAnswer *int
}

// List возвращает вопросы банка, опционально по категории
func (s *QuestionService) List(ctx context.Context, categoryCode *int) ([]entity.Question, error) {
	return s.questionRepo.List(ctx, categoryCode)
}

// Get возвращает вопрос по ID
func (s *QuestionService) Get(ctx context.Context, id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// Create проверяет и сохраняет новый вопрос
func (s *QuestionService) Create(ctx context.Context, in QuestionInput) (*entity.Question, error) {
	correct, err := entity.ParseChoice(in.CorrectAnswer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	question := &entity.Question{
		CategoryCode:  in.CategoryCode,
		Text:          strings.TrimSpace(in.Text),
		Option1:       strings.TrimSpace(in.Options[0]),
		Option2:       strings.TrimSpace(in.Options[1]),
		Option3:       strings.TrimSpace(in.Options[2]),
		Option4:       strings.TrimSpace(in.Options[3]),
		CorrectAnswer: correct,
	}
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, err
	}
	s.logger.Info("Question created", zap.Uint("question_id", question.ID))
	return question, nil
}

// Update применяет частичное изменение. Уже начатые экзамены сохраняют свой снимок правильного ответа.
func (s *QuestionService) Update(ctx context.Context, id uint, patch QuestionPatch) (*entity.Question, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.CategoryCode != nil {
		question.CategoryCode = patch.CategoryCode
	}
	if patch.Text != nil {
		question.Text = strings.TrimSpace(*patch.Text)
	}
	targets := [entity.OptionsPerQuestion]*string{&question.Option1, &question.Option2, &question.Option3, &question.Option4}
	for i, opt := range patch.Options {
		if opt != nil {
			*targets[i] = strings.TrimSpace(*opt)
		}
	}
	if patch.CorrectAnswer != nil {
		correct, err := entity.ParseChoice(*patch.CorrectAnswer)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
		question.CorrectAnswer = correct
	}

	if err := validateQuestion(question); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Update(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// Delete удаляет вопрос; вопрос, использованный в экзаменах, удалить нельзя (ErrConflict)
func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Question deleted", zap.Uint("question_id", id))
	return nil
}

// Random возвращает случайные вопросы без правильных ответов
func (s *QuestionService) Random(ctx context.Context, count *int, categoryCode *int) ([]entity.QuestionView, error) {
	n := s.cfg.DefaultQuestionCount
	if count != nil {
		n = *count
	}
	if n < 1 || n > s.cfg.MaxQuestionCount {
		return nil, fmt.Errorf("count must be between 1 and %d, got %d: %w", s.cfg.MaxQuestionCount, n, apperrors.ErrValidation)
	}

	questions, err := s.questionRepo.SampleRandom(ctx, n, categoryCode)
	if err != nil {
		return nil, err
	}
	views := make([]entity.QuestionView, len(questions))
	for i := range questions {
		views[i] = questions[i].View()
	}
	return views, nil
}

func validateQuestion(q *entity.Question) error {
	fields := map[string]string{
		"question": q.Text,
		"option1":  q.Option1,
		"option2":  q.Option2,
		"option3":  q.Option3,
		"option4":  q.Option4,
	}
	for _, name := range []string{"question", "option1", "option2", "option3", "option4"} {
		value := fields[name]
		if value == "" {
			return fmt.Errorf("%s is required: %w", name, apperrors.ErrValidation)
		}
		if utf8.RuneCountInString(value) > maxTextLength {
			return fmt.Errorf("%s must be at most %d characters: %w", name, maxTextLength, apperrors.ErrValidation)
		}
	}
	if !q.CorrectAnswer.Valid() {
		return fmt.Errorf("correct_answer must be 1..4: %w", apperrors.ErrValidation)
	}
	return nil
}
