package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acmeaptix/aptix-api/internal/domain/entity"
	"github.com/acmeaptix/aptix-api/internal/handler/dto"
	"github.com/acmeaptix/aptix-api/internal/service"
)

// QuestionHandler обрабатывает запросы к банку вопросов
type QuestionHandler struct {
	questionService *service.QuestionService
	logger          *zap.Logger
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(questionService *service.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{questionService: questionService, logger: logger.Named("question_handler")}
}

// ListQuestions возвращает вопросы, опционально по ?category
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	category, err := optionalIntQuery(c, "category")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	questions, err := h.questionService.List(c.Request.Context(), category)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// RandomQuestions возвращает случайные вопросы без правильных ответов
func (h *QuestionHandler) RandomQuestions(c *gin.Context) {
	count, err := optionalIntQuery(c, "count")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	category, err := optionalIntQuery(c, "category")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	views, err := h.questionService.Random(c.Request.Context(), count, category)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetQuestion возвращает вопрос со всеми полями
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	question, err := h.questionService.Get(c.Request.Context(), questionID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// CreateQuestion добавляет вопрос в банк
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), service.QuestionInput{
		CategoryCode:  req.CategoryCode,
		Text:          req.Question,
		Options:       [entity.OptionsPerQuestion]string{req.Option1, req.Option2, req.Option3, req.Option4},
		CorrectAnswer: req.CorrectAnswer,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion частично обновляет вопрос
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	var req dto.UpdateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), questionID, service.QuestionPatch{
		CategoryCode:  req.CategoryCode,
		Text:          req.Question,
		Options:       [entity.OptionsPerQuestion]*string{req.Option1, req.Option2, req.Option3, req.Option4},
		CorrectAnswer: req.CorrectAnswer,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion удаляет вопрос
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	if err := h.questionService.Delete(c.Request.Context(), questionID); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
