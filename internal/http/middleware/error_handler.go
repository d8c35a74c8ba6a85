package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fixly-app/fixly-backend/internal/fsm"
	"github.com/fixly-app/fixly-backend/internal/logger"
	"github.com/fixly-app/fixly-backend/internal/repository"
	"github.com/fixly-app/fixly-backend/internal/service"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() {
			return
		}

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			// Логируем ошибку
			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Request error")
			}

			statusCode, message := mapError(err.Err)
			c.JSON(statusCode, gin.H{"error": message})
		}
	}
}

// mapError переводит ошибку слоя сервисов в статус и сообщение клиенту.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "пользователь не найден"
	case errors.Is(err, repository.ErrOrderNotFound):
		return http.StatusNotFound, "заказ не найден"
	case errors.Is(err, repository.ErrRequestNotFound):
		return http.StatusNotFound, "заявка не найдена"
	case errors.Is(err, repository.ErrQuoteNotFound):
		return http.StatusNotFound, "смета не найдена"
	case errors.Is(err, repository.ErrGigNotFound), errors.Is(err, repository.ErrPackageNotFound):
		return http.StatusNotFound, "услуга не найдена"
	case errors.Is(err, repository.ErrDisputeNotFound):
		return http.StatusNotFound, "спор не найден"
	case errors.Is(err, repository.ErrAgentNotFound):
		return http.StatusNotFound, "агент не найден"
	case errors.Is(err, repository.ErrEscrowNotFound):
		return http.StatusNotFound, "escrow не найден"
	case errors.Is(err, repository.ErrReviewNotFound):
		return http.StatusNotFound, "отзыв не найден"
	case errors.Is(err, repository.ErrMediaNotFound):
		return http.StatusNotFound, "файл не найден"
	case errors.Is(err, repository.ErrNotificationNotFound):
		return http.StatusNotFound, "уведомление не найдено"

	case errors.Is(err, service.ErrNotOrderParty):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrOrderDisputed),
		errors.Is(err, service.ErrDisputeAlreadyOpen),
		errors.Is(err, service.ErrQuoteTaken),
		errors.Is(err, repository.ErrQuoteAlreadyAccepted),
		errors.Is(err, repository.ErrReviewAlreadyExists),
		errors.Is(err, repository.ErrAgentAlreadyExists),
		errors.Is(err, repository.ErrEscrowNotHeld),
		errors.Is(err, fsm.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrReviewRequired),
		errors.Is(err, service.ErrRevisionsUsedUp),
		errors.Is(err, service.ErrAgentNotActive):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrPaymentDeclined):
		return http.StatusPaymentRequired, err.Error()
	}

	// Понятные сообщения валидации отдаём клиенту как есть.
	if msg := err.Error(); msg != "" && !containsInternalKeywords(msg) {
		return http.StatusBadRequest, msg
	}

	return http.StatusInternalServerError, "внутренняя ошибка сервера"
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
