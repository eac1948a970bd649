package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	rl := NewRateLimiter(nil, zap.NewNop())

	router := gin.New()
	router.POST("/api/exams/start", rl.Limit(ExamRateLimitConfig(2, time.Hour)), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/exams/start", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
			assert.Contains(t, w.Body.String(), "rate_limited")
		}
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_LocalEntriesExpire(t *testing.T) {
	rl := NewRateLimiter(nil, zap.NewNop())
	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	cfg := ExamRateLimitConfig(5, time.Minute)

	rl.localLimiter("rl:exam:10.0.0.1:/api/exams/start", cfg)
	rl.localLimiter("rl:exam:10.0.0.2:/api/exams/start", cfg)
	require.Len(t, rl.local, 2)

	// 10.0.0.2 остаётся активным, 10.0.0.1 простаивает дольше окна
	clock = clock.Add(50 * time.Second)
	rl.localLimiter("rl:exam:10.0.0.2:/api/exams/start", cfg)
	clock = clock.Add(localSweepInterval)
	rl.localLimiter("rl:exam:10.0.0.3:/api/exams/start", cfg)

	assert.Len(t, rl.local, 2)
	assert.NotContains(t, rl.local, "rl:exam:10.0.0.1:/api/exams/start")
	assert.Contains(t, rl.local, "rl:exam:10.0.0.2:/api/exams/start")
	assert.Contains(t, rl.local, "rl:exam:10.0.0.3:/api/exams/start")
}

func TestExtractUintParam(t *testing.T) {
	router := gin.New()
	router.GET("/exams/:id", ExtractUintParam("id", "examID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetUint("examID")})
	})

	tests := []struct {
		path string
		code int
	}{
		{"/exams/42", http.StatusOK},
		{"/exams/abc", http.StatusBadRequest},
		{"/exams/0", http.StatusBadRequest},
		{"/exams/-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.code, w.Code, tt.path)
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(RequestID(), RequestLogger(zap.New(core)))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, generated)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "abc-123", entries[1].ContextMap()["request_id"])
	assert.Equal(t, "/ping", entries[1].ContextMap()["route"])
}
