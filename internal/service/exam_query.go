package service

import (
	"context"
	"fmt"

	"github.com/acmeaptix/aptix-api/internal/domain/entity"
	"github.com/acmeaptix/aptix-api/internal/domain/repository"
	apperrors "github.com/acmeaptix/aptix-api/internal/pkg/errors"
)

// AnswerWithQuestion: строка ответа вместе с вопросом банка (если он ещё существует)
type AnswerWithQuestion struct {
	entity.ExamAnswer
	Correct  bool             `json:"is_correct"`
	Question *entity.Question `json:"question,omitempty"`
}

// SessionDetail: сессия с кандидатом и всеми строками ответов
type SessionDetail struct {
	Session   *entity.ExamSession      `json:"exam"`
	Status    string                   `json:"status"`
	Candidate *entity.CandidateSummary `json:"candidate,omitempty"`
	Answers   []AnswerWithQuestion     `json:"answers"`
}

// AnswerDetail: строка ответа с её сессией и кандидатом
type AnswerDetail struct {
	AnswerWithQuestion
	Session   *entity.ExamSession      `json:"exam"`
	Candidate *entity.CandidateSummary `json:"candidate,omitempty"`
}

// ListSessions возвращает сессии с фильтрами, новые первыми
func (s *ExamService) ListSessions(ctx context.Context, filters repository.SessionFilters) ([]entity.ExamSession, error) {
	return s.exams.ListSessions(ctx, filters)
}

// GetSessionDetail возвращает сессию, краткие данные кандидата и строки ответов с вопросами
func (s *ExamService) GetSessionDetail(ctx context.Context, sessionID uint) (*SessionDetail, error) {
	session, err := s.exams.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.exams.FindAnswersBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.attachQuestions(ctx, rows)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidateSummaries(ctx, []uint{session.CandidateID})
	if err != nil {
		return nil, err
	}

	return &SessionDetail{
		Session:   session,
		Status:    session.Status(),
		Candidate: candidates[session.CandidateID],
		Answers:   answers,
	}, nil
}

// ListAnswers возвращает строки ответов сессии
func (s *ExamService) ListAnswers(ctx context.Context, sessionID uint) ([]AnswerWithQuestion, error) {
	if sessionID == 0 {
		return nil, fmt.Errorf("exam_id is required: %w", apperrors.ErrValidation)
	}
	if _, err := s.exams.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.exams.FindAnswersBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.attachQuestions(ctx, rows)
}

// GetAnswerDetail возвращает одну строку ответа с вопросом, сессией и кандидатом
func (s *ExamService) GetAnswerDetail(ctx context.Context, answerID uint) (*AnswerDetail, error) {
	row, err := s.exams.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	session, err := s.exams.GetSession(ctx, row.SessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.attachQuestions(ctx, []entity.ExamAnswer{*row})
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidateSummaries(ctx, []uint{row.CandidateID})
	if err != nil {
		return nil, err
	}

	return &AnswerDetail{
		AnswerWithQuestion: answers[0],
		Session:            session,
		Candidate:          candidates[row.CandidateID],
	}, nil
}

// ListCandidateAnswers возвращает строки ответов кандидата по всем его экзаменам
func (s *ExamService) ListCandidateAnswers(ctx context.Context, candidateID uint) ([]AnswerWithQuestion, error) {
	if _, err := s.candidates.GetByID(ctx, candidateID); err != nil {
		return nil, err
	}
	rows, err := s.exams.FindAnswersByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return s.attachQuestions(ctx, rows)
}

func (s *ExamService) attachQuestions(ctx context.Context, rows []entity.ExamAnswer) ([]AnswerWithQuestion, error) {
	questions, err := s.questionsByID(ctx, rows)
	if err != nil {
		return nil, err
	}

	result := make([]AnswerWithQuestion, len(rows))
	for i, row := range rows {
		item := AnswerWithQuestion{ExamAnswer: row, Correct: row.IsCorrect()}
		if q, ok := questions[row.QuestionID]; ok {
			item.Question = &q
		}
		result[i] = item
	}
	return result, nil
}

func (s *ExamService) candidateSummaries(ctx context.Context, ids []uint) (map[uint]*entity.CandidateSummary, error) {
	candidates, err := s.candidates.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*entity.CandidateSummary, len(candidates))
	for i := range candidates {
		summary := candidates[i].Summary()
		byID[summary.ID] = &summary
	}
	return byID, nil
}
