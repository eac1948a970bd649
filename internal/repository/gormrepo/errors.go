package gormrepo

import (
	"errors"
	"fmt"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	apperrors "github.com/acmeaptix/aptix-api/internal/pkg/errors"
)

// Коды нарушения внешнего ключа
const (
	pgForeignKeyViolation  = "23503"
	mysqlRowIsReferenced   = 1451 // удаление родительской строки
	mysqlNoReferencedRow   = 1452 // вставка дочерней строки
	sqliteForeignKeyFailed = "FOREIGN KEY constraint failed"
)

// isForeignKeyViolation распознаёт нарушение внешнего ключа для всех поддерживаемых драйверов
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}

	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgForeignKeyViolation
	}

	var myErr *mysqlDriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlRowIsReferenced || myErr.Number == mysqlNoReferencedRow
	}

	return err.Error() == sqliteForeignKeyFailed
}

// notFoundOr превращает gorm.ErrRecordNotFound в ErrNotFound, остальное: в ErrPersistence
func notFoundOr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	return persistenceErr(op, err)
}

// persistenceErr оборачивает ошибку хранилища, сохраняя исходную цепочку
func persistenceErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrPersistence, err)
}
