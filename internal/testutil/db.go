// Package testutil содержит общие хелперы для тестов, работающих с настоящей БД (SQLite в памяти).
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/acmeaptix/aptix-api/internal/domain/entity"
)

// sqliteSchema повторяет миграции для SQLite. users имеет форму таблицы админ-панели:
// без deleted_at, aptiscore и examstarted целые и допускают NULL.
var sqliteSchema = []string{
	`CREATE TABLE users (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		role_id        INTEGER NULL,
		name           VARCHAR(255) NOT NULL,
		email          VARCHAR(255) NOT NULL UNIQUE,
		avatar         VARCHAR(255) NULL DEFAULT 'users/default.png',
		password       VARCHAR(255) NOT NULL,
		remember_token VARCHAR(100) NULL,
		settings       TEXT NULL,
		aptiscore      INTEGER NULL,
		examstarted    INTEGER NULL,
		created_at     TIMESTAMP NULL,
		updated_at     TIMESTAMP NULL
	)`,
	`CREATE TABLE questions (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		category_code  INTEGER NULL,
		text           VARCHAR(255) NOT NULL,
		option1        VARCHAR(255) NOT NULL,
		option2        VARCHAR(255) NOT NULL,
		option3        VARCHAR(255) NOT NULL,
		option4        VARCHAR(255) NOT NULL,
		correct_answer INTEGER NOT NULL CHECK (correct_answer BETWEEN 1 AND 4),
		created_at     DATETIME,
		updated_at     DATETIME
	)`,
	`CREATE TABLE exam_sessions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		candidate_id INTEGER NOT NULL REFERENCES users (id),
		ip_address   VARCHAR(45) NOT NULL DEFAULT '',
		exam_date    VARCHAR(8) NOT NULL,
		exam_time    VARCHAR(6) NOT NULL,
		completed    NUMERIC NOT NULL DEFAULT 0,
		score        INTEGER NOT NULL DEFAULT 0,
		time_elapsed INTEGER NOT NULL DEFAULT 0,
		created_at   DATETIME,
		updated_at   DATETIME
	)`,
	`CREATE TABLE exam_answers (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id     INTEGER NOT NULL REFERENCES exam_sessions (id) ON DELETE CASCADE,
		question_id    INTEGER NOT NULL REFERENCES questions (id) ON DELETE RESTRICT,
		candidate_id   INTEGER NOT NULL REFERENCES users (id),
		user_answer    INTEGER NULL CHECK (user_answer BETWEEN 1 AND 4),
		correct_answer INTEGER NOT NULL CHECK (correct_answer BETWEEN 1 AND 4)
	)`,
}

// NewSQLiteDB открывает отдельную in-memory базу для теста и создаёт схему с внешними ключами.
// Соединение одно: внутри транзакции нужно пользоваться только tx, иначе будет взаимоблокировка.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range sqliteSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// SetForeignKeys включает или выключает проверку внешних ключей SQLite.
// Нужна, чтобы воспроизвести базу без ограничений (например, унаследованную MySQL).
func SetForeignKeys(t testing.TB, db *gorm.DB, on bool) {
	t.Helper()
	mode := "OFF"
	if on {
		mode = "ON"
	}
	require.NoError(t, db.Exec("PRAGMA foreign_keys = "+mode).Error)
}

// SeedCandidate вставляет строку users так, как её создаёт админ-панель
// (aptiscore и examstarted остаются NULL), и возвращает кандидата
func SeedCandidate(t testing.TB, db *gorm.DB, id uint) *entity.Candidate {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Exec(
		"INSERT INTO users (id, role_id, name, email, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, 2, fmt.Sprintf("Candidate %d", id), fmt.Sprintf("candidate%d@example.com", id), "$2y$10$hash", now, now,
	).Error)

	var candidate entity.Candidate
	require.NoError(t, db.First(&candidate, id).Error)
	return &candidate
}

// SeedQuestion создаёт вопрос с заданным правильным вариантом
func SeedQuestion(t testing.TB, db *gorm.DB, text string, correct entity.Choice, categoryCode *int) *entity.Question {
	t.Helper()
	question := &entity.Question{
		CategoryCode:  categoryCode,
		Text:          text,
		Option1:       text + " A",
		Option2:       text + " B",
		Option3:       text + " C",
		Option4:       text + " D",
		CorrectAnswer: correct,
	}
	require.NoError(t, db.Create(question).Error)
	return question
}

// FailInsertsInto заставляет все INSERT в таблицу table падать с ошибкой err
func FailInsertsInto(t testing.TB, db *gorm.DB, table string, err error) {
	t.Helper()
	name := "testutil:fail_" + table
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == table {
			_ = tx.AddError(err)
		}
	}))
	t.Cleanup(func() { _ = db.Callback().Create().Remove(name) })
}
