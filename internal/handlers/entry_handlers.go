package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"timeTracker/internal/handlers/dto"
	"timeTracker/internal/logger"
	"timeTracker/internal/middleware"
	"timeTracker/internal/models/entry"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EntryHandler struct {
	EntryService EntryService
}

func NewEntryHandler(entryService EntryService) EntryHandler {
	return EntryHandler{
		EntryService: entryService,
	}
}

func (h *EntryHandler) StartEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.StartEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if field, ok := validateRequest(&request); !ok {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", field),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное значение поля "+field)
		return
	}

	logger.Info("HTTP: Вызов сервиса запуска таймера")

	e, err := h.EntryService.Start(r.Context(), middleware.GetUserID(r.Context()), request.ActivityID, request.TaskID, request.Description)
	if err != nil {
		if handleBusinessError(w, err, "не удалось запустить таймер") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "start_entry"),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Таймер запущен",
		zap.String("entry_id", e.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("entry", dto.FromEntry(e)))
}

func (h *EntryHandler) StopEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.StopEntryRequest
	// тело опционально: остановка без отвлечений валидна
	if r.Body != nil && r.ContentLength != 0 {
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
	}

	logger.Info("HTTP: Вызов сервиса остановки таймера")

	e, err := h.EntryService.Stop(r.Context(), middleware.GetUserID(r.Context()), id, request.Distractions)
	if err != nil {
		if handleBusinessError(w, err, "не удалось остановить таймер") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "stop_entry"),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Таймер остановлен",
		zap.String("entry_id", e.UUID.String()),
		zap.Int64("duration_seconds", e.DurationSeconds),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("entry", dto.FromEntry(e)))
}

func (h *EntryHandler) CreateManualEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateManualEntryRequest
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

	logger.Info("HTTP: Вызов сервиса создания ручной записи")

	e, err := h.EntryService.CreateManual(r.Context(), middleware.GetUserID(r.Context()),
		request.ActivityID, request.TaskID, request.Description, request.StartedAt, request.StoppedAt)
	if err != nil {
		if handleBusinessError(w, err, "не удалось создать запись") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_manual_entry"),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Ручная запись создана",
		zap.String("entry_id", e.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("entry", dto.FromEntry(e)))
}

func (h *EntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.UpdateEntryRequest

	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}

	if field, reason, ok := request.Validate(); !ok {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", field),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, reason)
		return
	}

	logger.Info("HTTP: запрос к сервису обновления записи")

	e, err := h.EntryService.Update(r.Context(), middleware.GetUserID(r.Context()), id, request.Patch())
	if err != nil {
		if handleBusinessError(w, err, "не удалось обновить запись") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "update_entry"),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Запись обновлена",
		zap.String("entry_id", e.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("entry", dto.FromEntry(e)))
}

func (h *EntryHandler) GetActiveEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	e, err := h.EntryService.FindActive(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить активный таймер") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_active_entry"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Активный таймер получен",
		zap.Bool("running", e != nil),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	if e == nil {
		responseWithJSON(w, http.StatusOK, toPayload("entry", nil))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("entry", dto.FromEntry(e)))
}

func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	filter, err := parseEntryFilter(r)
	if err != nil {
		logger.Warn("HTTP: Неверные параметры фильтра",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.EntryService.FindAll(r.Context(), middleware.GetUserID(r.Context()), filter)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить записи") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_entries"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Записи получены",
		zap.Int("count", len(entries)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("entries", dto.FromEntryList(entries)))
}

func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления записи")

	if err := h.EntryService.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		if handleBusinessError(w, err, "не удалось удалить запись") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_entry"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Запись удалена",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (h *EntryHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	healthCheck(w)
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, name)
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return uuid.Nil, false
	}

	if id == uuid.Nil {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("error", "nil id"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "id не может быть пустым")
		return uuid.Nil, false
	}

	return id, true
}

func parseEntryFilter(r *http.Request) (entry.Filter, error) {
	var f entry.Filter

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, err
		}
		f.To = &t
	}
	if raw := r.URL.Query().Get("activity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, err
		}
		f.ActivityUUID = &id
	}

	return f, nil
}
