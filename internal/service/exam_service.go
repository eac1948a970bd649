package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/acmeaptix/aptix-api/internal/config"
	"github.com/acmeaptix/aptix-api/internal/domain/entity"
	"github.com/acmeaptix/aptix-api/internal/domain/repository"
	apperrors "github.com/acmeaptix/aptix-api/internal/pkg/errors"
	"github.com/acmeaptix/aptix-api/pkg/monitoring"
)

// ExamService управляет жизненным циклом экзамена: старт, ответы, сдача, результат
type ExamService struct {
	uow        repository.UnitOfWork
	questions  repository.QuestionRepository
	exams      repository.ExamRepository
	candidates repository.CandidateRepository
	cache      repository.CacheRepository // может быть nil
	cfg        config.ExamConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewExamService создает новый сервис экзаменов
func NewExamService(
	uow repository.UnitOfWork,
	questions repository.QuestionRepository,
	exams repository.ExamRepository,
	candidates repository.CandidateRepository,
	cache repository.CacheRepository,
	cfg config.ExamConfig,
	logger *zap.Logger,
) *ExamService {
	return &ExamService{
		uow:        uow,
		questions:  questions,
		exams:      exams,
		candidates: candidates,
		cache:      cache,
		cfg:        cfg,
		logger:     logger.Named("exam_service"),
		now:        time.Now,
	}
}

// StartSessionInput: параметры начала экзамена
type StartSessionInput struct {
	CandidateID   uint
	QuestionCount *int
	CategoryCode  *int
	IPAddress     string
}

// ExamQuestion: вопрос в том виде, в каком его видит кандидат, плюс ID строки ответа
type ExamQuestion struct {
	AnswerID uint `json:"answer_id"`
	entity.QuestionView
}

// StartedSession: созданная сессия и вопросы для показа
type StartedSession struct {
	Session   *entity.ExamSession `json:"exam"`
	Questions []ExamQuestion      `json:"questions"`
}

// StartSession создаёт сессию, строки ответов со снимком правильных ответов
// и отмечает, что кандидат начал экзамен. Всё или ничего.
func (s *ExamService) StartSession(ctx context.Context, in StartSessionInput) (*StartedSession, error) {
	if in.CandidateID == 0 {
		return nil, fmt.Errorf("candidate_id is required: %w", apperrors.ErrValidation)
	}

	count := s.cfg.DefaultQuestionCount
	if in.QuestionCount != nil {
		count = *in.QuestionCount
	}
	if count < 1 || count > s.cfg.MaxQuestionCount {
		return nil, fmt.Errorf("question count must be between 1 and %d, got %d: %w",
			s.cfg.MaxQuestionCount, count, apperrors.ErrValidation)
	}

	var (
		session   *entity.ExamSession
		questions []entity.Question
		answers   []entity.ExamAnswer
	)
	err := s.uow.Do(ctx, func(stores repository.TxStores) error {
		active, err := stores.Candidates().IsActive(ctx, in.CandidateID)
		if err != nil {
			return err
		}
		if !active {
			return fmt.Errorf("candidate %d does not exist or is inactive: %w", in.CandidateID, apperrors.ErrValidation)
		}

		questions, err = stores.Questions().SampleRandom(ctx, count, in.CategoryCode)
		if err != nil {
			return err
		}

		session = entity.NewExamSession(in.CandidateID, in.IPAddress, s.now())
		if err := stores.Exams().CreateSession(ctx, session); err != nil {
			return err
		}

		answers = make([]entity.ExamAnswer, len(questions))
		for i, q := range questions {
			answers[i] = entity.ExamAnswer{
				SessionID:     session.ID,
				QuestionID:    q.ID,
				CandidateID:   in.CandidateID,
				CorrectAnswer: q.CorrectAnswer,
			}
		}
		if err := stores.Exams().CreateAnswers(ctx, answers); err != nil {
			return err
		}

		return stores.Candidates().SetExamInProgress(ctx, in.CandidateID, true)
	})
	if err != nil {
		s.logFailure("start exam", err, zap.Uint("candidate_id", in.CandidateID))
		return nil, err
	}

	if len(questions) < count {
		s.logger.Info("Question bank under-filled the exam",
			zap.Uint("exam_id", session.ID), zap.Int("requested", count), zap.Int("sampled", len(questions)))
	}
	monitoring.ExamsStarted.Inc()
	s.logger.Info("Exam started",
		zap.Uint("exam_id", session.ID), zap.Uint("candidate_id", in.CandidateID), zap.Int("questions", len(questions)))

	display := make([]ExamQuestion, len(questions))
	for i := range questions {
		display[i] = ExamQuestion{AnswerID: answers[i].ID, QuestionView: questions[i].View()}
	}
	return &StartedSession{Session: session, Questions: display}, nil
}

// AnswerRecord: строка ответа после записи и признак правильности
type AnswerRecord struct {
	Answer    *entity.ExamAnswer `json:"answer"`
	IsCorrect bool               `json:"is_correct"`
}

// RecordAnswer записывает один ответ, пока экзамен не сдан. Повторная запись перезаписывает предыдущую.
func (s *ExamService) RecordAnswer(ctx context.Context, answerID uint, value int) (*AnswerRecord, error) {
	choice, err := entity.ParseChoice(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	var answer *entity.ExamAnswer
	err = s.uow.Do(ctx, func(stores repository.TxStores) error {
		var err error
		answer, err = stores.Exams().GetAnswer(ctx, answerID)
		if err != nil {
			return err
		}

		session, err := stores.Exams().GetSessionForUpdate(ctx, answer.SessionID)
		if err != nil {
			return err
		}
		if session.Completed {
			return fmt.Errorf("exam session %d is already submitted: %w", session.ID, apperrors.ErrConflict)
		}

		if err := stores.Exams().UpdateAnswer(ctx, answerID, choice); err != nil {
			return err
		}
		answer.UserAnswer = entity.ChoicePtr(choice)
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			monitoring.ExamConflicts.WithLabelValues("record_answer").Inc()
		}
		s.logFailure("record answer", err, zap.Uint("answer_id", answerID))
		return nil, err
	}

	return &AnswerRecord{Answer: answer, IsCorrect: answer.IsCorrect()}, nil
}

// SubmissionResult: итог сдачи экзамена
type SubmissionResult struct {
	SessionID uint `json:"exam_id"`
	Score     int  `json:"score"`
	Total     int  `json:"total"`
}

// SubmitSession записывает переданные ответы, пересчитывает балл по всем строкам,
// завершает сессию и обновляет итоговый балл кандидата. Повторная сдача: ErrConflict.
// Ответы на строки из чужих сессий игнорируются.
func (s *ExamService) SubmitSession(ctx context.Context, sessionID uint, answers map[uint]int, elapsed *int) (*SubmissionResult, error) {
	choices := make(map[uint]entity.Choice, len(answers))
	for answerID, value := range answers {
		choice, err := entity.ParseChoice(value)
		if err != nil {
			return nil, fmt.Errorf("answer %d: %w: %w", answerID, apperrors.ErrValidation, err)
		}
		choices[answerID] = choice
	}

	timeElapsed := 0
	if elapsed != nil {
		if *elapsed < 0 {
			return nil, fmt.Errorf("time_elapsed must not be negative: %w", apperrors.ErrValidation)
		}
		timeElapsed = *elapsed
	}

	var score, total int
	err := s.uow.Do(ctx, func(stores repository.TxStores) error {
		session, err := stores.Exams().GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Completed {
			return fmt.Errorf("exam session %d is already submitted: %w", sessionID, apperrors.ErrConflict)
		}

		rows, err := stores.Exams().FindAnswersBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		for i := range rows {
			choice, ok := choices[rows[i].ID]
			if !ok {
				continue
			}
			if err := stores.Exams().UpdateAnswer(ctx, rows[i].ID, choice); err != nil {
				return err
			}
			rows[i].UserAnswer = entity.ChoicePtr(choice)
		}

		score = entity.CountCorrect(rows)
		total = len(rows)

		if err := stores.Exams().CompleteSession(ctx, sessionID, score, timeElapsed); err != nil {
			return err
		}
		if err := stores.Candidates().SetAggregateScore(ctx, session.CandidateID, score); err != nil {
			return err
		}
		return stores.Candidates().SetExamInProgress(ctx, session.CandidateID, false)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			monitoring.ExamConflicts.WithLabelValues("submit").Inc()
		}
		s.logFailure("submit exam", err, zap.Uint("exam_id", sessionID))
		return nil, err
	}

	monitoring.ExamsSubmitted.Inc()
	monitoring.ObserveScore(score, total)
	s.logger.Info("Exam submitted",
		zap.Uint("exam_id", sessionID), zap.Int("score", score), zap.Int("total", total), zap.Int("time_elapsed", timeElapsed))

	return &SubmissionResult{SessionID: sessionID, Score: score, Total: total}, nil
}

// ResultDetail: одна строка разбора результата
type ResultDetail struct {
	AnswerID      uint           `json:"answer_id"`
	QuestionID    uint           `json:"question_id"`
	Question      string         `json:"question"`
	UserAnswer    *entity.Choice `json:"user_answer"`
	CorrectAnswer entity.Choice  `json:"correct_answer"`
	IsCorrect     bool           `json:"is_correct"`
}

// ExamResult: разбор экзамена. Score: сохранённый балл (0, пока экзамен не сдан).
type ExamResult struct {
	SessionID   uint           `json:"exam_id"`
	CandidateID uint           `json:"candidate_id"`
	Completed   bool           `json:"completed"`
	Score       int            `json:"score"`
	Total       int            `json:"total"`
	TimeElapsed int            `json:"time_elapsed"`
	Details     []ResultDetail `json:"details"`
}

func resultCacheKey(sessionID uint) string {
	return fmt.Sprintf("exam:%d:result", sessionID)
}

// GetResult возвращает разбор экзамена в любом состоянии.
// Результат сданного экзамена неизменен, поэтому кешируется.
func (s *ExamService) GetResult(ctx context.Context, sessionID uint) (*ExamResult, error) {
	key := resultCacheKey(sessionID)
	if s.cache != nil {
		var cached ExamResult
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Result cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	session, err := s.exams.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.exams.FindAnswersBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionsByID(ctx, rows)
	if err != nil {
		return nil, err
	}

	result := &ExamResult{
		SessionID:   session.ID,
		CandidateID: session.CandidateID,
		Completed:   session.Completed,
		Score:       session.Score,
		Total:       len(rows),
		TimeElapsed: session.TimeElapsed,
		Details:     make([]ResultDetail, len(rows)),
	}
	for i, row := range rows {
		detail := ResultDetail{
			AnswerID:      row.ID,
			QuestionID:    row.QuestionID,
			UserAnswer:    row.UserAnswer,
			CorrectAnswer: row.CorrectAnswer,
			IsCorrect:     row.IsCorrect(),
		}
		if q, ok := questions[row.QuestionID]; ok {
			detail.Question = q.Text
		}
		result.Details[i] = detail
	}

	if s.cache != nil && session.Completed {
		if err := s.cache.SetJSON(ctx, key, result, s.cfg.ResultCacheTTL); err != nil {
			s.logger.Warn("Result cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// questionsByID подгружает вопросы строк одним запросом
func (s *ExamService) questionsByID(ctx context.Context, rows []entity.ExamAnswer) (map[uint]entity.Question, error) {
	ids := make([]uint, 0, len(rows))
	seen := make(map[uint]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.QuestionID]; ok {
			continue
		}
		seen[row.QuestionID] = struct{}{}
		ids = append(ids, row.QuestionID)
	}

	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]entity.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return byID, nil
}

// logFailure пишет в лог только неожиданные ошибки; ошибки клиента идут в Debug
func (s *ExamService) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", apperrors.Kind(err)), zap.Error(err))
	switch apperrors.Kind(err) {
	case apperrors.KindPersistence, apperrors.KindInternal:
		s.logger.Error("Failed to "+op, fields...)
	default:
		s.logger.Debug("Rejected "+op, fields...)
	}
}
