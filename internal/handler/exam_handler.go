package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acmeaptix/aptix-api/internal/domain/repository"
	"github.com/acmeaptix/aptix-api/internal/handler/dto"
	"github.com/acmeaptix/aptix-api/internal/service"
)

// ExamHandler обрабатывает запросы жизненного цикла экзамена
type ExamHandler struct {
	examService *service.ExamService
	logger      *zap.Logger
}

// NewExamHandler создает новый обработчик экзаменов
func NewExamHandler(examService *service.ExamService, logger *zap.Logger) *ExamHandler {
	return &ExamHandler{examService: examService, logger: logger.Named("exam_handler")}
}

// StartExam начинает экзамен для кандидата
func (h *ExamHandler) StartExam(c *gin.Context) {
	var req dto.StartExamRequest
	if !bindJSON(c, &req) {
		return
	}

	started, err := h.examService.StartSession(c.Request.Context(), service.StartSessionInput{
		CandidateID:   req.CandidateID,
		QuestionCount: req.QuestionCount,
		CategoryCode:  req.CategoryCode,
		IPAddress:     c.ClientIP(),
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, started)
}

// SubmitExam сдаёт экзамен и возвращает балл
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	examID := c.MustGet("examID").(uint)

	var req dto.SubmitExamRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.examService.SubmitSession(c.Request.Context(), examID, req.Answers, req.TimeElapsed)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetResult возвращает разбор экзамена
func (h *ExamHandler) GetResult(c *gin.Context) {
	examID := c.MustGet("examID").(uint)

	result, err := h.examService.GetResult(c.Request.Context(), examID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListExams возвращает список экзаменов с фильтрами candidate_id и completed
func (h *ExamHandler) ListExams(c *gin.Context) {
	candidateID, err := optionalUintQuery(c, "candidate_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	completed, err := optionalBoolQuery(c, "completed")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	sessions, err := h.examService.ListSessions(c.Request.Context(), repository.SessionFilters{
		CandidateID: candidateID,
		Completed:   completed,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetExam возвращает экзамен с кандидатом и строками ответов
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID := c.MustGet("examID").(uint)

	detail, err := h.examService.GetSessionDetail(c.Request.Context(), examID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ExportResults выгружает сданные экзамены в CSV (по умолчанию) или XLSX
func (h *ExamHandler) ExportResults(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		badRequest(c, "format must be csv or xlsx")
		return
	}

	rows, err := h.examService.ExportRows(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("exam_results_%s", time.Now().Format("2006-01-02"))
	switch format {
	case "xlsx":
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
		if err := service.WriteXLSX(c.Writer, rows); err != nil {
			h.logger.Error("Failed to write XLSX export", zap.Error(err))
		}
	default:
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
		if err := service.WriteCSV(c.Writer, rows); err != nil {
			h.logger.Error("Failed to write CSV export", zap.Error(err))
		}
	}
}
