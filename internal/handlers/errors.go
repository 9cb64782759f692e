package handlers

import (
	"net/http"

	"timeTracker/internal/logger"
	"timeTracker/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error, defaultMessage string) bool {
	if businessErr, ok := err.(*service.BusinessError); ok {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))

		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return true
	}
	return false
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeActiveEntryExists, service.CodeAlreadyStopped, service.CodeEntryActive:
		return http.StatusConflict
	case service.CodeAlreadyArchived, service.CodeNotArchived:
		return http.StatusConflict
	case service.CodeEditWindowExpired:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
