package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acmeaptix/aptix-api/internal/config"
	"github.com/acmeaptix/aptix-api/internal/middleware"
	"github.com/acmeaptix/aptix-api/internal/service"
	"github.com/acmeaptix/aptix-api/pkg/monitoring"
)

// RouterDeps: всё, что нужно для сборки HTTP-роутера
type RouterDeps struct {
	DB              *gorm.DB
	ExamService     *service.ExamService
	QuestionService *service.QuestionService
	RateLimiter     *middleware.RateLimiter
	Server          config.ServerConfig
	RateLimit       config.RateLimitConfig
	Logger          *zap.Logger
}

// NewRouter собирает gin.Engine со всеми маршрутами API
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(d.Logger), monitoring.MetricsMiddleware())

	// Не доверяем прокси-заголовкам, если список прокси не задан явно
	if err := router.SetTrustedProxies(d.Server.TrustedProxies); err != nil {
		d.Logger.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	if len(d.Server.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	examHandler := NewExamHandler(d.ExamService, d.Logger)
	answerHandler := NewAnswerHandler(d.ExamService, d.Logger)
	questionHandler := NewQuestionHandler(d.QuestionService, d.Logger)
	healthHandler := NewHealthHandler(d.DB)

	// Лимит только на записи в экзамен
	limitWrites := func(c *gin.Context) { c.Next() }
	if d.RateLimit.Enabled && d.RateLimiter != nil {
		limitWrites = d.RateLimiter.Limit(middleware.ExamRateLimitConfig(d.RateLimit.MaxRequests, d.RateLimit.Window))
	}

	router.GET("/healthz", healthHandler.Health)
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		questions := api.Group("/questions")
		{
			questions.GET("", questionHandler.ListQuestions)
			questions.POST("", questionHandler.CreateQuestion)
			questions.GET("/random", questionHandler.RandomQuestions)

			questionWithID := questions.Group("/:id", middleware.ExtractUintParam("id", "questionID"))
			questionWithID.GET("", questionHandler.GetQuestion)
			questionWithID.PUT("", questionHandler.UpdateQuestion)
			questionWithID.DELETE("", questionHandler.DeleteQuestion)
		}

		exams := api.Group("/exams")
		{
			exams.GET("", examHandler.ListExams)
			exams.GET("/export", examHandler.ExportResults)
			exams.POST("/start", limitWrites, examHandler.StartExam)

			examWithID := exams.Group("/:id", middleware.ExtractUintParam("id", "examID"))
			examWithID.GET("", examHandler.GetExam)
			examWithID.POST("/submit", limitWrites, examHandler.SubmitExam)
			examWithID.GET("/result", examHandler.GetResult)
		}

		details := api.Group("/exam-details")
		{
			details.GET("", answerHandler.ListAnswers)

			detailWithID := details.Group("/:id", middleware.ExtractUintParam("id", "answerID"))
			detailWithID.GET("", answerHandler.GetAnswer)
			detailWithID.PUT("", limitWrites, answerHandler.RecordAnswer)
		}

		api.GET("/candidates/:candidateId/exam-details",
			middleware.ExtractUintParam("candidateId", "candidateID"),
			answerHandler.ListCandidateAnswers,
		)
	}

	return router
}
