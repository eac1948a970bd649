package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acmeaptix/aptix-api/internal/config"
	"github.com/acmeaptix/aptix-api/internal/domain/repository"
	"github.com/acmeaptix/aptix-api/internal/handler"
	"github.com/acmeaptix/aptix-api/internal/middleware"
	"github.com/acmeaptix/aptix-api/internal/repository/gormrepo"
	redisRepo "github.com/acmeaptix/aptix-api/internal/repository/redis"
	"github.com/acmeaptix/aptix-api/internal/service"
	"github.com/acmeaptix/aptix-api/pkg/database"
	"github.com/acmeaptix/aptix-api/pkg/logger"
	"github.com/acmeaptix/aptix-api/pkg/monitoring"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aptix-api",
		Short:         "Candidate exam backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config/config.yaml"
	}
	root.PersistentFlags().String("config", defaultConfig, "Path to YAML config (env CONFIG_PATH)")

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), exportCmd())

	// serve по умолчанию, если подкоманда не указана
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// app: общие зависимости команд
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func bootstrap(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Connected to database", zap.String("driver", cfg.Database.Driver), zap.String("host", cfg.Database.Host))

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	cmd.Flags().Bool("skip-migrate", false, "Do not apply migrations on startup")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, log := a.cfg, a.log

	if skip, _ := cmd.Flags().GetBool("skip-migrate"); !skip {
		if err := database.MigrateDB(a.db, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis необязателен: без него нет кеша результатов, а лимитер работает в памяти
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var cacheRepo repository.CacheRepository
	if redisClient != nil {
		defer redisClient.Close()
		repo, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			return err
		}
		cacheRepo = repo
		log.Info("Successfully connected to Redis", zap.String("mode", cfg.Redis.Mode))
	} else {
		log.Info("Redis is not configured, result cache disabled")
	}

	monitoring.Init()

	questionRepo := gormrepo.NewQuestionRepo(a.db)
	examService := service.NewExamService(
		gormrepo.NewUnitOfWork(a.db),
		questionRepo,
		gormrepo.NewExamRepo(a.db),
		gormrepo.NewCandidateRepo(a.db),
		cacheRepo,
		cfg.Exam,
		log,
	)
	questionService := service.NewQuestionService(questionRepo, cfg.Exam, log)

	if os.Getenv("GIN_MODE") == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterDeps{
		DB:              a.db,
		ExamService:     examService,
		QuestionService: questionService,
		RateLimiter:     middleware.NewRateLimiter(redisClient, log),
		Server:          cfg.Server,
		RateLimit:       cfg.RateLimit,
		Logger:          log,
	})

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited properly")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return database.MigrateDB(a.db, a.log)
		},
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Set migration version and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("version must be a number: %w", err)
			}
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()
			return database.ForceVersion(cfg.Database, version, log)
		},
	}

	cmd.AddCommand(up, force)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export completed exam results as CSV or XLSX",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("format", "csv", "Output format (csv, xlsx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) (err error) {
	format, _ := cmd.Flags().GetString("format")
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unsupported format %q", format)
	}

	a, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	examService := service.NewExamService(
		gormrepo.NewUnitOfWork(a.db),
		gormrepo.NewQuestionRepo(a.db),
		gormrepo.NewExamRepo(a.db),
		gormrepo.NewCandidateRepo(a.db),
		nil,
		a.cfg.Exam,
		a.log,
	)
	rows, err := examService.ExportRows(cmd.Context())
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("output")
	if path == "-" {
		return writeExport(os.Stdout, format, rows)
	}
	return writeExportFile(path, format, rows)
}

// writeExportFile пишет выгрузку в файл; ошибка закрытия означает, что файл мог не дописаться
func writeExportFile(path, format string, rows []service.ExportRow) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return writeExport(file, format, rows)
}

func writeExport(out io.Writer, format string, rows []service.ExportRow) error {
	if format == "xlsx" {
		return service.WriteXLSX(out, rows)
	}
	return service.WriteCSV(out, rows)
}
