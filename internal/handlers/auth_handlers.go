package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskapi/internal/handlers/dto"
	"taskapi/internal/logger"
	"taskapi/internal/middleware"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_REQUEST", "неверное тело запроса")
		return
	}
	defer r.Body.Close()

	u, tok, err := h.AuthService.Register(r.Context(), request.Username, request.Email, request.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован",
		zap.String("user_id", u.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.AuthResponse{
		Token: tok,
		User:  dto.FromUser(u),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "BAD_REQUEST", "неверное тело запроса")
		return
	}
	defer r.Body.Close()

	u, tok, err := h.AuthService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Успешный вход",
		zap.String("user_id", u.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.AuthResponse{
		Token: tok,
		User:  dto.FromUser(u),
	})
}

// Profile отдаёт пользователя, которого Auth-миддлвара положила в контекст.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u := middleware.UserFromContext(r.Context())
	if u == nil {
		responseWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется аутентификация")
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromUser(u))
}
