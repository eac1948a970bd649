package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Exam      ExamConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int      `mapstructure:"read_timeout"`  // секунды
	WriteTimeout   int      `mapstructure:"write_timeout"` // секунды
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
}

// Поддерживаемые СУБД
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DatabaseConfig содержит настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int `mapstructure:"max_open_conns"`
	MaxIdleConns    int `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"` // минуты
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// Enabled возвращает false, если адрес Redis не задан: тогда кеш и лимитер работают без него
func (r *RedisConfig) Enabled() bool {
	return len(r.Addrs) > 0 || r.Addr != ""
}

// Границы числа вопросов в экзамене
const (
	DefaultQuestionCount = 30
	MaxQuestionCount     = 100
)

// ExamConfig содержит настройки экзаменов
type ExamConfig struct {
	DefaultQuestionCount int `mapstructure:"default_question_count"`
	MaxQuestionCount     int `mapstructure:"max_question_count"`
	// ResultCacheTTL: сколько хранить результат завершённого экзамена в Redis
	ResultCacheTTL time.Duration `mapstructure:"result_cache_ttl"`
}

// RateLimitConfig содержит настройки ограничения частоты запросов к экзаменационным эндпоинтам
type RateLimitConfig struct {
	Enabled     bool
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения для golang-migrate
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// MySQLConnectionString формирует DSN для go-sql-driver/mysql
func (d *DatabaseConfig) MySQLConnectionString() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 10)
	vip.SetDefault("server.write_timeout", 30)

	vip.SetDefault("database.driver", DriverPostgres)
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("database.conn_max_lifetime", 60)

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("exam.default_question_count", DefaultQuestionCount)
	vip.SetDefault("exam.max_question_count", MaxQuestionCount)
	vip.SetDefault("exam.result_cache_ttl", time.Hour)

	vip.SetDefault("rate_limit.enabled", true)
	vip.SetDefault("rate_limit.max_requests", 60)
	vip.SetDefault("rate_limit.window", time.Minute)

	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.file", "logs/aptix-api.log")
	vip.SetDefault("log.max_size_mb", 100)
	vip.SetDefault("log.max_backups", 5)
	vip.SetDefault("log.max_age_days", 30)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)

	// Привязка для секции Database
	vip.BindEnv("database.driver", "DATABASE_DRIVER")
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.cors_origins", "SERVER_CORS_ORIGINS")

	// Привязка для Exam
	vip.BindEnv("exam.default_question_count", "EXAM_DEFAULT_QUESTION_COUNT")
	vip.BindEnv("exam.max_question_count", "EXAM_MAX_QUESTION_COUNT")
	vip.BindEnv("exam.result_cache_ttl", "EXAM_RESULT_CACHE_TTL")

	vip.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	vip.BindEnv("rate_limit.max_requests", "RATE_LIMIT_MAX_REQUESTS")

	vip.BindEnv("log.level", "LOG_LEVEL")
	vip.BindEnv("log.file", "LOG_FILE")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Отсутствие файла не страшно: есть BindEnv и значения по умолчанию
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры и согласованность настроек
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q (expected %q or %q)", c.Database.Driver, DriverPostgres, DriverMySQL)
	}

	exam := c.Exam
	if exam.DefaultQuestionCount < 1 || exam.DefaultQuestionCount > exam.MaxQuestionCount || exam.MaxQuestionCount > MaxQuestionCount {
		return fmt.Errorf("exam question counts out of range: default=%d max=%d (need 1 <= default <= max <= %d)",
			exam.DefaultQuestionCount, exam.MaxQuestionCount, MaxQuestionCount)
	}

	if c.RateLimit.Enabled && (c.RateLimit.MaxRequests < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit enabled but max_requests=%d window=%s", c.RateLimit.MaxRequests, c.RateLimit.Window)
	}
	return nil
}
