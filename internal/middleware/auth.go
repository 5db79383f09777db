package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"taskapi/internal/logger"
	"taskapi/internal/models/user"
	"taskapi/internal/service"
	"taskapi/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const UserKey contextKey = "auth_user"

type TokenVerifier interface {
	Verify(string) (uuid.UUID, error)
}

type UserLoader interface {
	GetActiveUser(context.Context, uuid.UUID) (*user.User, error)
}

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

func UserFromContext(ctx context.Context) *user.User {
	if u, ok := ctx.Value(UserKey).(*user.User); ok {
		return u
	}
	return nil
}

func authError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error":   code,
		"message": message,
	})
}

// Auth проверяет bearer-токен, находит активного пользователя и кладёт его
// в контекст запроса. Ничего не пишет — чистое чтение.
func Auth(verifier TokenVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			raw = strings.TrimSpace(raw)
			if !ok || raw == "" {
				logger.Warn("AUTH: Токен не передан",
					zap.String("path", r.URL.Path),
					zap.String("client_ip", r.RemoteAddr))
				authError(w, http.StatusUnauthorized, "NO_TOKEN", "токен не передан")
				return
			}

			userID, err := verifier.Verify(raw)
			if err != nil {
				code := "INVALID_TOKEN"
				message := "недействительный токен"
				if errors.Is(err, token.ErrExpired) {
					code = "TOKEN_EXPIRED"
					message = "токен истёк"
				}

				logger.Warn("AUTH: Проверка токена провалена",
					zap.Error(err),
					zap.String("client_ip", r.RemoteAddr))
				authError(w, http.StatusUnauthorized, code, message)
				return
			}

			u, err := users.GetActiveUser(r.Context(), userID)
			if err != nil {
				var busErr *service.BusinessError
				if errors.As(err, &busErr) {
					logger.Warn("AUTH: Пользователь отклонён",
						zap.String("user_id", userID.String()),
						zap.String("code", busErr.Code))
					authError(w, http.StatusUnauthorized, busErr.Code, busErr.Message)
					return
				}

				logger.Error("AUTH: Ошибка загрузки пользователя", err)
				authError(w, http.StatusUnauthorized, "UNAUTHORIZED", "не удалось подтвердить пользователя")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireAdmin ставится строго после Auth. Если пользователя в контексте нет,
// цепочка собрана неверно — отвечаем 401, а не паникуем.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			logger.Error("AUTH: RequireAdmin без Auth в цепочке", nil,
				zap.String("path", r.URL.Path))
			authError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется аутентификация")
			return
		}

		if !u.IsAdmin() {
			logger.Warn("AUTH: Недостаточно прав",
				zap.String("user_id", u.ID.String()),
				zap.String("path", r.URL.Path))
			authError(w, http.StatusForbidden, "FORBIDDEN", "требуются права администратора")
			return
		}

		next.ServeHTTP(w, r)
	})
}
