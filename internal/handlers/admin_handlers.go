package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskapi/internal/handlers/dto"
	"taskapi/internal/logger"
	"taskapi/internal/middleware"
	"taskapi/internal/models/user"

	"go.uber.org/zap"
)

// AdminHandler обслуживает глобальные (неограниченные владельцем) маршруты.
// Роль проверяет RequireAdmin в цепочке миддлвар.
type AdminHandler struct {
	TaskService  TaskService
	AdminService AdminService
}

func NewAdminHandler(taskService TaskService, adminService AdminService) AdminHandler {
	return AdminHandler{
		TaskService:  taskService,
		AdminService: adminService,
	}
}

func (h *AdminHandler) ListAllTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	page, limit, err := parsePagination(r)
	if err != nil {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	status, priority := taskFilters(r)

	result, err := h.TaskService.List(r.Context(), nil, status, priority, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задачи получены (admin)",
		zap.Int("count", len(result.Tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTaskPage(result))
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	page, limit, err := parsePagination(r)
	if err != nil {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var role *user.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed := user.Role(raw)
		role = &parsed
	}

	result, err := h.AdminService.ListUsers(r.Context(), role, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Пользователи получены",
		zap.Int("count", len(result.Users)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromUserPage(result))
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	stats, err := h.AdminService.GetStats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Статистика получена",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromStats(stats))
}

func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	admin := middleware.UserFromContext(r.Context())
	if admin == nil {
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

	var request dto.UpdateUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_REQUEST", "поле active должно быть булевым")
		return
	}
	defer r.Body.Close()

	if request.Active == nil {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "active"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_REQUEST", "поле active обязательно и должно быть булевым")
		return
	}

	u, err := h.AdminService.SetUserActive(r.Context(), admin.ID, id, *request.Active)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Статус пользователя изменён",
		zap.String("user_id", u.ID.String()),
		zap.Bool("active", u.Active),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromUser(u))
}

// DeleteAnyTask — админское удаление без скоупа владельца.
func (h *AdminHandler) DeleteAnyTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}

	if err := h.TaskService.Delete(r.Context(), nil, id); err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача удалена (admin)",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
