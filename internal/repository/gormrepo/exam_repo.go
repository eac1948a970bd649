package gormrepo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/acmeaptix/aptix-api/internal/domain/entity"
	"github.com/acmeaptix/aptix-api/internal/domain/repository"
	apperrors "github.com/acmeaptix/aptix-api/internal/pkg/errors"
)

// ExamRepo реализует repository.ExamRepository
type ExamRepo struct {
	db *gorm.DB
}

// NewExamRepo создает новый репозиторий экзаменационных сессий
func NewExamRepo(db *gorm.DB) *ExamRepo {
	return &ExamRepo{db: db}
}

// CreateSession сохраняет новую сессию
func (r *ExamRepo) CreateSession(ctx context.Context, session *entity.ExamSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return persistenceErr("create exam session", err)
	}
	return nil
}

// GetSession возвращает сессию по ID
func (r *ExamRepo) GetSession(ctx context.Context, id uint) (*entity.ExamSession, error) {
	var session entity.ExamSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, notFoundOr(fmt.Sprintf("exam session %d", id), err)
	}
	return &session, nil
}

// GetSessionForUpdate читает сессию с SELECT ... FOR UPDATE.
// Имеет смысл только внутри транзакции: блокировка держится до commit/rollback.
func (r *ExamRepo) GetSessionForUpdate(ctx context.Context, id uint) (*entity.ExamSession, error) {
	var session entity.ExamSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&session, id).Error
	if err != nil {
		return nil, notFoundOr(fmt.Sprintf("exam session %d", id), err)
	}
	return &session, nil
}

// ListSessions возвращает сессии с фильтрами, новые первыми
func (r *ExamRepo) ListSessions(ctx context.Context, filters repository.SessionFilters) ([]entity.ExamSession, error) {
	var sessions []entity.ExamSession
	query := r.db.WithContext(ctx)
	if filters.CandidateID != nil {
		query = query.Where("candidate_id = ?", *filters.CandidateID)
	}
	if filters.Completed != nil {
		query = query.Where("completed = ?", *filters.Completed)
	}
	if err := query.Order("id DESC").Find(&sessions).Error; err != nil {
		return nil, persistenceErr("list exam sessions", err)
	}
	return sessions, nil
}

// CompleteSession завершает сессию. Условие completed = false проверяется в самом UPDATE,
// поэтому повторное завершение не пройдёт даже без блокировки.
func (r *ExamRepo) CompleteSession(ctx context.Context, id uint, score, timeElapsed int) error {
	res := r.db.WithContext(ctx).
		Model(&entity.ExamSession{}).
		Where("id = ? AND completed = ?", id, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"score":        score,
			"time_elapsed": timeElapsed,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return persistenceErr(fmt.Sprintf("complete exam session %d", id), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("exam session %d already completed: %w", id, apperrors.ErrConflict)
	}
	return nil
}

// CreateAnswers вставляет строки ответов одним батчем
func (r *ExamRepo) CreateAnswers(ctx context.Context, answers []entity.ExamAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&answers).Error; err != nil {
		return persistenceErr("create exam answers", err)
	}
	return nil
}

// GetAnswer возвращает строку ответа по ID
func (r *ExamRepo) GetAnswer(ctx context.Context, id uint) (*entity.ExamAnswer, error) {
	var answer entity.ExamAnswer
	if err := r.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return nil, notFoundOr(fmt.Sprintf("exam answer %d", id), err)
	}
	return &answer, nil
}

// FindAnswersBySession возвращает все строки сессии в порядке создания
func (r *ExamRepo) FindAnswersBySession(ctx context.Context, sessionID uint) ([]entity.ExamAnswer, error) {
	var answers []entity.ExamAnswer
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id").
		Find(&answers).Error
	if err != nil {
		return nil, persistenceErr(fmt.Sprintf("find answers of session %d", sessionID), err)
	}
	return answers, nil
}

// FindAnswersByCandidate возвращает строки ответов кандидата по всем его сессиям
func (r *ExamRepo) FindAnswersByCandidate(ctx context.Context, candidateID uint) ([]entity.ExamAnswer, error) {
	var answers []entity.ExamAnswer
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("session_id, id").
		Find(&answers).Error
	if err != nil {
		return nil, persistenceErr(fmt.Sprintf("find answers of candidate %d", candidateID), err)
	}
	return answers, nil
}

// CountAnswers считает строки ответов по сессиям одним GROUP BY
func (r *ExamRepo) CountAnswers(ctx context.Context, sessionIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SessionID uint
		Total     int
	}
	err := r.db.WithContext(ctx).
		Model(&entity.ExamAnswer{}).
		Select("session_id, COUNT(*) AS total").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, persistenceErr("count exam answers", err)
	}
	for _, row := range rows {
		counts[row.SessionID] = row.Total
	}
	return counts, nil
}

// UpdateAnswer перезаписывает выбранный вариант (последняя запись побеждает)
func (r *ExamRepo) UpdateAnswer(ctx context.Context, id uint, answer entity.Choice) error {
	res := r.db.WithContext(ctx).
		Model(&entity.ExamAnswer{}).
		Where("id = ?", id).
		Update("user_answer", answer)
	if res.Error != nil {
		return persistenceErr(fmt.Sprintf("update exam answer %d", id), res.Error)
	}
	return nil
}
