package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acmeaptix/aptix-api/internal/config"
	"github.com/acmeaptix/aptix-api/internal/domain/entity"
	"github.com/acmeaptix/aptix-api/internal/middleware"
	"github.com/acmeaptix/aptix-api/internal/repository/gormrepo"
	"github.com/acmeaptix/aptix-api/internal/service"
	"github.com/acmeaptix/aptix-api/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var examCfg = config.ExamConfig{DefaultQuestionCount: 30, MaxQuestionCount: 100, ResultCacheTTL: time.Hour}

func newTestRouter(t *testing.T, rateLimit config.RateLimitConfig) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	log := zap.NewNop()

	examService := service.NewExamService(
		gormrepo.NewUnitOfWork(db),
		gormrepo.NewQuestionRepo(db),
		gormrepo.NewExamRepo(db),
		gormrepo.NewCandidateRepo(db),
		nil,
		examCfg,
		log,
	)
	router := NewRouter(RouterDeps{
		DB:              db,
		ExamService:     examService,
		QuestionService: service.NewQuestionService(gormrepo.NewQuestionRepo(db), examCfg, log),
		RateLimiter:     middleware.NewRateLimiter(nil, log),
		RateLimit:       rateLimit,
		Logger:          log,
	})
	return router, db
}

// doJSON выполняет запрос с JSON-телом и возвращает ответ
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

func TestExamFlowOverHTTP(t *testing.T) {
	router, db := newTestRouter(t, config.RateLimitConfig{})
	testutil.SeedCandidate(t, db, 262)
	q1 := testutil.SeedQuestion(t, db, "Q1", entity.ChoiceSecond, nil)
	q2 := testutil.SeedQuestion(t, db, "Q2", entity.ChoiceFourth, nil)

	w := doJSON(t, router, http.MethodPost, "/api/exams/start", map[string]interface{}{"candidate_id": 262})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "correct_answer")

	var started service.StartedSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	require.Len(t, started.Questions, 2)
	examID := started.Session.ID

	rowFor := map[uint]uint{}
	for _, q := range started.Questions {
		rowFor[q.ID] = q.AnswerID
	}

	// Ответ на первый вопрос по одному
	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/exam-details/%d", rowFor[q1.ID]), map[string]int{"user_answer": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, parseJSONResponse(t, w)["is_correct"])

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/exam-details/%d", rowFor[q1.ID]), map[string]int{"user_answer": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation", parseJSONResponse(t, w)["error_type"])

	submit := map[string]interface{}{
		"answers":      map[string]int{fmt.Sprint(rowFor[q2.ID]): 3},
		"time_elapsed": 120,
	}
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/exams/%d/submit", examID), submit)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := parseJSONResponse(t, w)
	assert.EqualValues(t, 1, resp["score"])
	assert.EqualValues(t, 2, resp["total"])

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/exams/%d/submit", examID), submit)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", parseJSONResponse(t, w)["error_type"])

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/exam-details/%d", rowFor[q1.ID]), map[string]int{"user_answer": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/exams/%d/result", examID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result service.ExamResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 2, result.Total)
	assert.True(t, result.Completed)
	assert.Equal(t, 120, result.TimeElapsed)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/exams/%d", examID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", parseJSONResponse(t, w)["status"])

	w = doJSON(t, router, http.MethodGet, "/api/exams?candidate_id=262&completed=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []entity.ExamSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	assert.Len(t, sessions, 1)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/exam-details?exam_id=%d", examID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)

	w = doJSON(t, router, http.MethodGet, "/api/candidates/262/exam-details", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/exams/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}), "single BOM before the header")
	assert.False(t, bytes.HasPrefix(w.Body.Bytes()[3:], []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, w.Body.String(), "candidate262@example.com")
}

func TestExamEndpoints_ErrorMapping(t *testing.T) {
	router, db := newTestRouter(t, config.RateLimitConfig{})
	testutil.SeedCandidate(t, db, 1)

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
		wantType string
	}{
		{"malformed json", http.MethodPost, "/api/exams/start", "{", http.StatusBadRequest, "bad_request"},
		{"missing candidate", http.MethodPost, "/api/exams/start", map[string]int{}, http.StatusUnprocessableEntity, "validation"},
		{"unknown candidate", http.MethodPost, "/api/exams/start", map[string]int{"candidate_id": 404}, http.StatusUnprocessableEntity, "validation"},
		{"count too large", http.MethodPost, "/api/exams/start", map[string]int{"candidate_id": 1, "question_count": 101}, http.StatusUnprocessableEntity, "validation"},
		{"bad exam id", http.MethodGet, "/api/exams/abc/result", nil, http.StatusBadRequest, "bad_request"},
		{"unknown exam", http.MethodGet, "/api/exams/999/result", nil, http.StatusNotFound, "not_found"},
		{"submit unknown exam", http.MethodPost, "/api/exams/999/submit", map[string]interface{}{}, http.StatusNotFound, "not_found"},
		{"non-numeric answer key", http.MethodPost, "/api/exams/1/submit", `{"answers":{"x":1}}`, http.StatusBadRequest, "bad_request"},
		{"unknown answer row", http.MethodPut, "/api/exam-details/999", map[string]int{"user_answer": 1}, http.StatusNotFound, "not_found"},
		{"exam-details without exam_id", http.MethodGet, "/api/exam-details", nil, http.StatusUnprocessableEntity, "validation"},
		{"bad completed filter", http.MethodGet, "/api/exams?completed=maybe", nil, http.StatusBadRequest, "bad_request"},
		{"bad export format", http.MethodGet, "/api/exams/export?format=pdf", nil, http.StatusBadRequest, "bad_request"},
		{"answer out of range", http.MethodPut, "/api/exam-details/999", map[string]int{"user_answer": 7}, http.StatusUnprocessableEntity, "validation"},
		{"answer missing", http.MethodPut, "/api/exam-details/999", map[string]int{}, http.StatusUnprocessableEntity, "validation"},
		{"negative elapsed", http.MethodPost, "/api/exams/999/submit", map[string]int{"time_elapsed": -1}, http.StatusUnprocessableEntity, "validation"},
		{"submitted choice out of range", http.MethodPost, "/api/exams/999/submit", `{"answers":{"1":5}}`, http.StatusUnprocessableEntity, "validation"},
		{"question without options", http.MethodPost, "/api/questions", map[string]interface{}{"question": "Q", "correct_answer": 1}, http.StatusUnprocessableEntity, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantType, parseJSONResponse(t, w)["error_type"])
		})
	}
}

func TestStartExam_PersistenceFailureIsGeneric(t *testing.T) {
	router, db := newTestRouter(t, config.RateLimitConfig{})
	testutil.SeedCandidate(t, db, 1)
	testutil.SeedQuestion(t, db, "Q", entity.ChoiceFirst, nil)
	testutil.FailInsertsInto(t, db, "exam_answers", errors.New("disk full"))

	w := doJSON(t, router, http.MethodPost, "/api/exams/start", map[string]int{"candidate_id": 1})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Internal server error", resp["error"])
	assert.NotContains(t, w.Body.String(), "disk full")
}

func TestStartExam_RateLimited(t *testing.T) {
	router, db := newTestRouter(t, config.RateLimitConfig{Enabled: true, MaxRequests: 1, Window: time.Hour})
	testutil.SeedCandidate(t, db, 1)

	w := doJSON(t, router, http.MethodPost, "/api/exams/start", map[string]int{"candidate_id": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/exams/start", map[string]int{"candidate_id": 1})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Чтение не ограничено
	w = doJSON(t, router, http.MethodGet, "/api/exams", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQuestionEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, config.RateLimitConfig{})

	create := map[string]interface{}{
		"category_code":  2,
		"question":       "2 + 2 = ?",
		"option1":        "3",
		"option2":        "4",
		"option3":        "5",
		"option4":        "22",
		"correct_answer": 2,
	}
	w := doJSON(t, router, http.MethodPost, "/api/questions", create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created entity.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, entity.ChoiceSecond, created.CorrectAnswer)

	create["correct_answer"] = 7
	w = doJSON(t, router, http.MethodPost, "/api/questions", create)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/questions/%d", created.ID), map[string]string{"question": "2 + 2 equals?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2 + 2 equals?", parseJSONResponse(t, w)["question"])

	w = doJSON(t, router, http.MethodGet, "/api/questions?category=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []entity.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = doJSON(t, router, http.MethodGet, "/api/questions/random?count=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, strings.Contains(w.Body.String(), "correct_answer"))

	w = doJSON(t, router, http.MethodGet, "/api/questions/random?count=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/questions/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/questions/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, config.RateLimitConfig{})

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "up", parseJSONResponse(t, w)["database"])

	w = doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
