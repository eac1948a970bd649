package repository

import "context"

// TxStores: репозитории, привязанные к одной транзакции
type TxStores interface {
	Questions() QuestionRepository
	Exams() ExamRepository
	Candidates() CandidateRepository
}

// UnitOfWork выполняет fn в одной транзакции.
// Если fn вернула ошибку или запаниковала, все записи откатываются.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(stores TxStores) error) error
}
