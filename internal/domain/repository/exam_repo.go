package repository

import (
	"context"

	"github.com/acmeaptix/aptix-api/internal/domain/entity"
)

// SessionFilters содержит фильтры для списка экзаменационных сессий
type SessionFilters struct {
	CandidateID *uint
	Completed   *bool
}

// ExamRepository: хранилище сессий экзамена и строк ответов
type ExamRepository interface {
	CreateSession(ctx context.Context, session *entity.ExamSession) error
	GetSession(ctx context.Context, id uint) (*entity.ExamSession, error)
	// GetSessionForUpdate читает сессию с блокировкой строки до конца транзакции
	GetSessionForUpdate(ctx context.Context, id uint) (*entity.ExamSession, error)
	ListSessions(ctx context.Context, filters SessionFilters) ([]entity.ExamSession, error)
	// CompleteSession переводит сессию в completed; ErrConflict, если она уже завершена
	CompleteSession(ctx context.Context, id uint, score, timeElapsed int) error

	CreateAnswers(ctx context.Context, answers []entity.ExamAnswer) error
	GetAnswer(ctx context.Context, id uint) (*entity.ExamAnswer, error)
	FindAnswersBySession(ctx context.Context, sessionID uint) ([]entity.ExamAnswer, error)
	FindAnswersByCandidate(ctx context.Context, candidateID uint) ([]entity.ExamAnswer, error)
	// CountAnswers возвращает число строк ответов для каждой из сессий
	CountAnswers(ctx context.Context, sessionIDs []uint) (map[uint]int, error)
	UpdateAnswer(ctx context.Context, id uint, answer entity.Choice) error
}
