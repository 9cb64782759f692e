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

type TagHandler struct {
	TagService TagService
}

func NewTagHandler(tagService TagService) TagHandler {
	return TagHandler{
		TagService: tagService,
	}
}

// CreateTag идемпотентен: повторная отправка того же имени
// возвращает уже существующий тег
func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTagRequest
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

	logger.Info("HTTP: Вызов сервиса создания тега")

	t, err := h.TagService.GetOrCreate(r.Context(), middleware.GetUserID(r.Context()), request.Name)
	if err != nil {
		if handleBusinessError(w, err, "не удалось создать тег") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_tag"),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Тег создан",
		zap.String("tag_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("tag", dto.FromTag(t)))
}

func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tags, err := h.TagService.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить теги") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_tags"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Теги получены",
		zap.Int("count", len(tags)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("tags", dto.FromTagList(tags)))
}

func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.TagService.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		if handleBusinessError(w, err, "не удалось удалить тег") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_tag"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Тег удалён",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
