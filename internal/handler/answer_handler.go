package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acmeaptix/aptix-api/internal/handler/dto"
	"github.com/acmeaptix/aptix-api/internal/service"
)

// AnswerHandler обрабатывает запросы к строкам ответов (exam-details)
type AnswerHandler struct {
	examService *service.ExamService
	logger      *zap.Logger
}

// NewAnswerHandler создает новый обработчик строк ответов
func NewAnswerHandler(examService *service.ExamService, logger *zap.Logger) *AnswerHandler {
	return &AnswerHandler{examService: examService, logger: logger.Named("answer_handler")}
}

// ListAnswers возвращает строки ответов экзамена (?exam_id обязателен)
func (h *AnswerHandler) ListAnswers(c *gin.Context) {
	examID, err := optionalUintQuery(c, "exam_id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var id uint
	if examID != nil {
		id = *examID
	}

	answers, err := h.examService.ListAnswers(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

// GetAnswer возвращает строку ответа с вопросом, экзаменом и кандидатом
func (h *AnswerHandler) GetAnswer(c *gin.Context) {
	answerID := c.MustGet("answerID").(uint)

	detail, err := h.examService.GetAnswerDetail(c.Request.Context(), answerID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// RecordAnswer записывает выбранный вариант, пока экзамен не сдан
func (h *AnswerHandler) RecordAnswer(c *gin.Context) {
	answerID := c.MustGet("answerID").(uint)

	var req dto.RecordAnswerRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.examService.RecordAnswer(c.Request.Context(), answerID, *req.UserAnswer)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListCandidateAnswers возвращает строки ответов кандидата по всем экзаменам
func (h *AnswerHandler) ListCandidateAnswers(c *gin.Context) {
	candidateID := c.MustGet("candidateID").(uint)

	answers, err := h.examService.ListCandidateAnswers(c.Request.Context(), candidateID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}
