package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskapi/internal/handlers/dto"
	"taskapi/internal/logger"
	"taskapi/internal/middleware"
	"taskapi/internal/models/task"

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

func taskFilters(r *http.Request) (*task.Status, *task.Priority) {
	var status *task.Status
	var priority *task.Priority

	if raw := r.URL.Query().Get("status"); raw != "" {
		s := task.Status(raw)
		status = &s
	}
	if raw := r.URL.Query().Get("priority"); raw != "" {
		p := task.Priority(raw)
		priority = &p
	}

	return status, priority
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u := middleware.UserFromContext(r.Context())
	if u == nil {
		responseWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется аутентификация")
		return
	}

	page, limit, err := parsePagination(r)
	if err != nil {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	status, priority := taskFilters(r)

	result, err := h.TaskService.List(r.Context(), &u.ID, status, priority, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(result.Tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTaskPage(result))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u := middleware.UserFromContext(r.Context())
	if u == nil {
		responseWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется аутентификация")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_REQUEST", "неверное тело запроса")
		return
	}
	defer r.Body.Close()

	t, err := h.TaskService.Create(r.Context(), u.ID,
		request.Title,
		request.Description,
		request.Status,
		request.Priority,
		request.DueDate,
		request.Tags,
	)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", t.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromTask(t))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u := middleware.UserFromContext(r.Context())
	if u == nil {
		responseWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется аутентификация")
		return
	}

	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}

	t, err := h.TaskService.GetByID(r.Context(), &u.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", t.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u := middleware.UserFromContext(r.Context())
	if u == nil {
		responseWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется аутентификация")
		return
	}

	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}

	var request dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_REQUEST", "неверно переданы параметры обновления")
		return
	}
	defer r.Body.Close()

	t, err := h.TaskService.Update(r.Context(), &u.ID, id, request.Options()...)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", t.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u := middleware.UserFromContext(r.Context())
	if u == nil {
		responseWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется аутентификация")
		return
	}

	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}

	if err := h.TaskService.Delete(r.Context(), &u.ID, id); err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u := middleware.UserFromContext(r.Context())
	if u == nil {
		responseWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется аутентификация")
		return
	}

	summary, err := h.TaskService.Summary(r.Context(), u.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Сводка получена",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromSummary(summary))
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		responseWithJSON(w, http.StatusServiceUnavailable, toPayload("status", "degraded"))
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}
