package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// parsePagination читает page/limit из query; отсутствующие значения
// нормализует сервис, нечисловые — ошибка запроса.
func parsePagination(r *http.Request) (int, int, error) {
	page, limit := 0, 0

	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("неверное значение page: %q", raw)
		}
		page = parsed
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("неверное значение limit: %q", raw)
		}
		limit = parsed
	}

	return page, limit, nil
}

func parseID(r *http.Request) (uuid.UUID, error) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("не удалось разобрать id: %w", err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("id не может быть пустым")
	}
	return id, nil
}
