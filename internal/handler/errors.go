package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acmeaptix/aptix-api/internal/handler/dto"
	apperrors "github.com/acmeaptix/aptix-api/internal/pkg/errors"
)

// handleError переводит ошибку сервиса в HTTP-ответ.
// Ошибки хранилища и неизвестные ошибки логируются, клиент получает общее сообщение.
func handleError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperrors.Kind(err)
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error(), ErrorType: kind})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), ErrorType: kind})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), ErrorType: kind})
	default:
		_ = c.Error(err)
		logger.Error("Internal server error",
			zap.String("route", c.FullPath()),
			zap.String("kind", kind),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error", ErrorType: kind})
	}
}

// bindJSON разбирает тело запроса. Нарушение правил binding-тегов отдаётся как 422 validation,
// синтаксически неверный JSON как 400.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: verrs.Error(), ErrorType: apperrors.KindValidation})
		return false
	}
	badRequest(c, err.Error())
	return false
}

// badRequest отвечает 400 на синтаксически неверный запрос
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg, ErrorType: "bad_request"})
}

// optionalIntQuery читает необязательный целочисленный query-параметр
func optionalIntQuery(c *gin.Context, name string) (*int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &v, nil
}

// optionalUintQuery читает необязательный положительный ID из query
func optionalUintQuery(c *gin.Context, name string) (*uint, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	id := uint(v)
	return &id, nil
}

// optionalBoolQuery читает необязательный флаг (true/false/1/0)
func optionalBoolQuery(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &v, nil
}
