package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_USER", "aptix")
	t.Setenv("DATABASE_DBNAME", "aptix")
}

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Exam.DefaultQuestionCount)
	assert.Equal(t, 100, cfg.Exam.MaxQuestionCount)
	assert.Equal(t, time.Hour, cfg.Exam.ResultCacheTTL)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_DRIVER", "mysql")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9090"
redis:
  addr: "localhost:6379"
exam:
  default_question_count: 20
  max_question_count: 50
  result_cache_ttl: 10m
rate_limit:
  max_requests: 5
  window: 30s
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 20, cfg.Exam.DefaultQuestionCount)
	assert.Equal(t, 10*time.Minute, cfg.Exam.ResultCacheTTL)
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoad_MissingDatabase(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database:  DatabaseConfig{Driver: DriverPostgres, Host: "h", User: "u", DBName: "d"},
			Exam:      ExamConfig{DefaultQuestionCount: 30, MaxQuestionCount: 100},
			RateLimit: RateLimitConfig{Enabled: true, MaxRequests: 10, Window: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
		{"default above max", func(c *Config) { c.Exam.DefaultQuestionCount = 101 }, true},
		{"max above hard limit", func(c *Config) { c.Exam.MaxQuestionCount = 500 }, true},
		{"zero default", func(c *Config) { c.Exam.DefaultQuestionCount = 0 }, true},
		{"rate limit without window", func(c *Config) { c.RateLimit.Window = 0 }, true},
		{"rate limit disabled", func(c *Config) { c.RateLimit = RateLimitConfig{} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConnectionStrings(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "aptix", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=aptix sslmode=disable", d.PostgresConnectionString())
	assert.Equal(t, "postgres://u:p@db:5432/aptix?sslmode=disable", d.PostgresURL())

	d.Port = "3306"
	assert.Equal(t, "u:p@tcp(db:3306)/aptix?charset=utf8mb4&parseTime=True&loc=Local", d.MySQLConnectionString())
}
