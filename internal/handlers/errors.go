package handlers

import (
	"errors"
	"net/http"

	"taskapi/internal/logger"
	"taskapi/internal/repository"
	"taskapi/internal/service"

	"go.uber.org/zap"
)

// respondServiceError — единственное место, где ошибка сервиса превращается
// в HTTP-статус. Обработчики сами статусы не выбирают.
func respondServiceError(w http.ResponseWriter, err error) {
	var busErr *service.BusinessError
	if errors.As(err, &busErr) {
		statusCode := mapBusinessErrorToHTTP(busErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", busErr.Code),
			zap.Int("http_status", statusCode))

		payloads := []Payload{
			toPayload("error", busErr.Code),
			toPayload("message", busErr.Message),
		}
		if len(busErr.Fields) > 0 {
			payloads = append(payloads, toPayload("errors", busErr.Fields))
		}

		responseWithJSON(w, statusCode, payloads...)
		return
	}

	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		respondServiceError(w, service.NewDuplicate(dup.Field))
		return
	}

	if errors.Is(err, repository.ErrNotFound) {
		responseWithError(w, http.StatusNotFound, service.CodeNotFound, "ресурс не найден")
		return
	}

	// внутренности наружу не отдаём никогда
	logger.Error("HTTP: Необработанная ошибка", err)
	responseWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "внутренняя ошибка сервера")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation, service.CodeDuplicate, service.CodeSelfDeactivation:
		return http.StatusBadRequest
	case service.CodeInvalidCredentials, service.CodeAccountInactive, service.CodeUnauthorized:
		return http.StatusUnauthorized
	case service.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
