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

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
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

	logger.Info("HTTP: Вызов сервиса создания задачи")

	t, err := h.TaskService.Create(r.Context(), middleware.GetUserID(r.Context()), request.ActivityID, request.Name)
	if err != nil {
		if handleBusinessError(w, err, "не удалось создать задачу") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_task"),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(t)))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := h.TaskService.GetByID(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить задачу") {
			return
		}
		logger.Error("HTTP: Ошибка в Service", err,
			zap.String("operation", "get_task"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t)))
}

func (h *TaskHandler) RenameTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.RenameTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if field, ok := validateRequest(&request); !ok {
		responseWithError(w, http.StatusBadRequest, "неверное значение поля "+field)
		return
	}

	t, err := h.TaskService.Rename(r.Context(), middleware.GetUserID(r.Context()), id, request.Name)
	if err != nil {
		if handleBusinessError(w, err, "не удалось переименовать задачу") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "rename_task"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задача переименована",
		zap.String("task_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t)))
}

func (h *TaskHandler) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := h.TaskService.Archive(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		if handleBusinessError(w, err, "не удалось архивировать задачу") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "archive_task"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задача архивирована",
		zap.String("task_id", t.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t)))
}

func (h *TaskHandler) ListTasksByActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	activityID, ok := parseIDParam(w, r, "activityID")
	if !ok {
		return
	}

	includeArchived := r.URL.Query().Get("include_archived") == "true"

	tasks, err := h.TaskService.ListByActivity(r.Context(), middleware.GetUserID(r.Context()), activityID, includeArchived)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить задачи") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_tasks"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.TaskService.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		if handleBusinessError(w, err, "не удалось удалить задачу") {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_task"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
