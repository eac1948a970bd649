package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/acmeaptix/aptix-api/internal/domain/repository"
)

// UnitOfWork реализует repository.UnitOfWork на транзакциях gorm
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork создает UnitOfWork
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do выполняет fn в одной транзакции gorm и коммитит, если fn вернула nil.
// Ошибка или паника внутри fn откатывают транзакцию; паника пробрасывается дальше.
func (u *UnitOfWork) Do(ctx context.Context, fn func(stores repository.TxStores) error) error {
	var started, fnOK bool
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		started = true
		if err := fn(&txStores{tx: tx}); err != nil {
			return err
		}
		fnOK = true
		return nil
	})
	switch {
	case err == nil:
		return nil
	case !started:
		return persistenceErr("begin transaction", err)
	case fnOK:
		return persistenceErr("commit transaction", err)
	}
	return err
}

// txStores раздаёт репозитории, работающие в одной транзакции
type txStores struct {
	tx *gorm.DB
}

func (s *txStores) Questions() repository.QuestionRepository {
	return NewQuestionRepo(s.tx)
}

func (s *txStores) Exams() repository.ExamRepository {
	return NewExamRepo(s.tx)
}

func (s *txStores) Candidates() repository.CandidateRepository {
	return NewCandidateRepo(s.tx)
}
