package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, ответ на уже сданный экзамен).
	ErrConflict = errors.New("resource state conflict")

	// ErrPersistence используется, когда хранилище не смогло выполнить операцию.
	// Транзакция при этом уже откатана, клиенту уходит общее сообщение.
	ErrPersistence = errors.New("storage operation failed")
)

// Стабильные названия видов ошибок для ответов API и логов
const (
	KindValidation  = "validation"
	KindNotFound    = "not_found"
	KindConflict    = "conflict"
	KindPersistence = "persistence"
	KindInternal    = "internal"
)

// Kind возвращает вид ошибки независимо от текста сообщения
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	default:
		return KindInternal
	}
}
