package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ExamsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aptix_exams_started_total",
		Help: "Exam sessions started",
	})

	ExamsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aptix_exams_submitted_total",
		Help: "Exam sessions submitted and scored",
	})

	// ExamConflicts считает попытки изменить уже сданный экзамен
	ExamConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aptix_exam_conflicts_total",
			Help: "Writes rejected because the exam session was already completed",
		},
		[]string{"operation"},
	)

	ExamScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aptix_exam_score_ratio",
		Help:    "Share of correct answers in submitted exams",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})
)

var initOnce sync.Once

// Init регистрирует метрики в реестре по умолчанию. Повторный вызов ничего не делает.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, ExamsStarted, ExamsSubmitted, ExamConflicts, ExamScore)
	})
}

// ObserveScore записывает долю правильных ответов сданного экзамена
func ObserveScore(score, total int) {
	if total <= 0 {
		return
	}
	ExamScore.Observe(float64(score) / float64(total))
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
