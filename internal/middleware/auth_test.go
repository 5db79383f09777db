package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskapi/internal/middleware"
	"taskapi/internal/models/user"
	"taskapi/internal/service"
	"taskapi/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	users map[uuid.UUID]*user.User
	err   error
}

func (s *stubLoader) GetActiveUser(_ context.Context, id uuid.UUID) (*user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, service.NewUnauthorized("пользователь не найден")
	}
	return u, nil
}

func okHandler(seen **user.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = middleware.UserFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	code, _ := body["error"].(string)
	return code
}

func TestAuth_NoToken(t *testing.T) {
	mgr := token.NewManager("secret", time.Hour)
	mw := middleware.Auth(mgr, &stubLoader{})

	tests := []struct {
		name   string
		header string
	}{
		{"нет заголовка", ""},
		{"пустой bearer", "Bearer "},
		{"не bearer", "Basic abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw(okHandler(nil)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "NO_TOKEN", errorCode(t, rec))
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	expired := token.NewManager("secret", -time.Hour)
	tok, err := expired.Issue(uuid.New())
	require.NoError(t, err)

	mgr := token.NewManager("secret", time.Hour)
	mw := middleware.Auth(mgr, &stubLoader{})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	mw(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, rec))
}

func TestAuth_InvalidToken(t *testing.T) {
	other := token.NewManager("other-secret", time.Hour)
	tok, err := other.Issue(uuid.New())
	require.NoError(t, err)

	mgr := token.NewManager("secret", time.Hour)
	mw := middleware.Auth(mgr, &stubLoader{})

	tests := []struct {
		name string
		raw  string
	}{
		{"чужая подпись", tok},
		{"мусор", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			req.Header.Set("Authorization", "Bearer "+tt.raw)
			rec := httptest.NewRecorder()
			mw(okHandler(nil)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
		})
	}
}

func TestAuth_InactiveUser(t *testing.T) {
	mgr := token.NewManager("secret", time.Hour)
	tok, err := mgr.Issue(uuid.New())
	require.NoError(t, err)

	mw := middleware.Auth(mgr, &stubLoader{err: service.NewAccountInactive()})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	mw(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.CodeAccountInactive, errorCode(t, rec))
}

func TestAuth_AttachesUserToContext(t *testing.T) {
	mgr := token.NewManager("secret", time.Hour)

	u := &user.User{ID: uuid.New(), Username: "alice", Role: user.RoleUser, Active: true}
	tok, err := mgr.Issue(u.ID)
	require.NoError(t, err)

	loader := &stubLoader{users: map[uuid.UUID]*user.User{u.ID: u}}
	mw := middleware.Auth(mgr, loader)

	var seen *user.User
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	mw(okHandler(&seen)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, u.ID, seen.ID)
}

func TestRequireAdmin_WithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	rec := httptest.NewRecorder()
	middleware.RequireAdmin(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin_Forbidden(t *testing.T) {
	u := &user.User{ID: uuid.New(), Role: user.RoleUser, Active: true}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), u))
	rec := httptest.NewRecorder()
	middleware.RequireAdmin(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
}

func TestRequireAdmin_Allows(t *testing.T) {
	admin := &user.User{ID: uuid.New(), Role: user.RoleAdmin, Active: true}

	var seen *user.User
	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), admin))
	rec := httptest.NewRecorder()
	middleware.RequireAdmin(okHandler(&seen)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.True(t, seen.IsAdmin())
}
