package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"timeTracker/internal/handlers/dto"
	"timeTracker/internal/logger"
	"timeTracker/internal/middleware"

	"go.uber.org/zap"
)

type ActivityHandler struct {
	ActivityService ActivityService
}

func NewActivityHandler(activityService ActivityService) ActivityHandler {
	return ActivityHandler{
		ActivityService: activityService,
	}
}

func (h *ActivityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if field, ok := validateRequest(&request); !ok {
		responseWithError(w, http.StatusBadRequest, "неверное значение поля "+field)
		return
	}

	logger.Info("HTTP: Вызов сервиса создания активности")

	a, err := h.ActivityService.Create(r.Context(), middleware.GetUserID(r.Context()), request.Name)
	if err != nil {
		if handleBusinessError(w, err, "не удалось создать активность") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_activity"),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Активность создана",
		zap.String("activity_id", a.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("activity", dto.FromActivity(a)))
}

func (h *ActivityHandler) GetActivityByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	a, err := h.ActivityService.GetByID(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить активность") {
			return
		}
		logger.Error("HTTP: Ошибка в Service", err,
			zap.String("operation", "get_activity"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Активность получена",
		zap.String("activity_id", a.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivity(a)))
}

func (h *ActivityHandler) RenameActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.RenameActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if field, ok := validateRequest(&request); !ok {
		responseWithError(w, http.StatusBadRequest, "неверное значение поля "+field)
		return
	}

	a, err := h.ActivityService.Rename(r.Context(), middleware.GetUserID(r.Context()), id, request.Name)
	if err != nil {
		if handleBusinessError(w, err, "не удалось переименовать активность") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "rename_activity"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Активность переименована",
		zap.String("activity_id", a.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivity(a)))
}

func (h *ActivityHandler) ArchiveActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	a, err := h.ActivityService.Archive(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось архивировать активность") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "archive_activity"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Активность архивирована",
		zap.String("activity_id", a.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivity(a)))
}

func (h *ActivityHandler) UnarchiveActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	a, err := h.ActivityService.Unarchive(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось разархивировать активность") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "unarchive_activity"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Активность разархивирована",
		zap.String("activity_id", a.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivity(a)))
}

func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	includeArchived := r.URL.Query().Get("include_archived") == "true"

	activities, err := h.ActivityService.List(r.Context(), middleware.GetUserID(r.Context()), includeArchived)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить активности") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_activities"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Активности получены",
		zap.Int("count", len(activities)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("activities", dto.FromActivityList(activities)))
}

func (h *ActivityHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.ActivityService.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		if handleBusinessError(w, err, "не удалось удалить активность") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_activity"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Активность удалена",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
