package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	gormMySQL "gorm.io/driver/mysql"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/acmeaptix/aptix-api/internal/config"
	"github.com/acmeaptix/aptix-api/internal/domain/entity"
)

// MigrationsSource: путь к SQL-миграциям относительно рабочего каталога
const MigrationsSource = "file://migrations"

// NewDB создает подключение к PostgreSQL или MySQL в зависимости от cfg.Driver
func NewDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = gormMySQL.Open(cfg.MySQLConnectionString())
	case config.DriverPostgres, "":
		dialector = gormPostgres.Open(cfg.PostgresConnectionString())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настройка пула соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	return db, nil
}

// MigrateDB приводит схему к актуальной версии.
// PostgreSQL мигрируется SQL-файлами через golang-migrate, MySQL (унаследованная установка): AutoMigrate.
func MigrateDB(db *gorm.DB, log *zap.Logger) error {
	if db.Dialector.Name() == config.DriverMySQL {
		// users принадлежит админ-панели: её схему не трогаем
		log.Info("Применяем AutoMigrate для MySQL")
		if err := db.AutoMigrate(&entity.Question{}, &entity.ExamSession{}, &entity.ExamAnswer{}); err != nil {
			return fmt.Errorf("mysql auto-migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := GetSQLDB(db)
	if err != nil {
		return err
	}
	m, err := newMigrate(sqlDB)
	if err != nil {
		return err
	}

	log.Info("Применяем миграции 'up'", zap.String("source", MigrationsSource))
	err = m.Up()
	switch {
	case errors.Is(err, migrateV4.ErrNoChange):
		log.Info("Изменений в миграциях не найдено, база данных уже актуальна")
	case err != nil:
		return fmt.Errorf("ошибка применения миграций 'up': %w", err)
	default:
		log.Info("Миграции успешно применены")
	}
	return nil
}

// ForceVersion помечает версию миграций как применённую и снимает флаг dirty.
// Нужна после упавшей миграции, когда схема исправлена вручную.
// Открывает отдельное соединение через lib/pq, чтобы не зависеть от состояния пула приложения.
func ForceVersion(cfg config.DatabaseConfig, version int, log *zap.Logger) error {
	if cfg.Driver == config.DriverMySQL {
		return fmt.Errorf("force is only supported for postgres migrations")
	}

	sqlDB, err := sql.Open("postgres", cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer sqlDB.Close()

	m, err := newMigrate(sqlDB)
	if err != nil {
		return err
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrateV4.ErrNilVersion) {
		return fmt.Errorf("не удалось получить текущую версию миграций: %w", err)
	}
	log.Info("Текущее состояние миграций", zap.Uint("version", currentVersion), zap.Bool("dirty", dirty))

	if err := m.Force(version); err != nil {
		return fmt.Errorf("не удалось принудительно установить версию %d: %w", version, err)
	}
	log.Info("Версия миграций установлена", zap.Int("version", version))
	return nil
}

func newMigrate(sqlDB *sql.DB) (*migrateV4.Migrate, error) {
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("не удалось проверить подключение к БД перед миграцией: %w", err)
	}

	driver, err := migratePostgres.WithInstance(sqlDB, &migratePostgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать драйвер postgres для migrate: %w", err)
	}

	m, err := migrateV4.NewWithDatabaseInstance(MigrationsSource, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать экземпляр migrate: %w", err)
	}
	return m, nil
}

// GetSQLDB возвращает базовый *sql.DB из *gorm.DB
func GetSQLDB(gormDB *gorm.DB) (*sql.DB, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB, nil
}
