package repository

import (
	"errors"
	"fmt"

	"taskapi/internal/models/task"
	"taskapi/internal/models/user"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("запись не найдена")

// DuplicateError возвращается при нарушении уникального индекса.
// Поле нужно обработчикам, чтобы назвать конфликтующее поле в ответе.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("дубликат значения поля %q", e.Field)
}

// TaskFilter — фильтры листинга задач. Nil-поля не фильтруют.
// OwnerID == nil означает глобальную (админскую) выборку.
type TaskFilter struct {
	OwnerID  *uuid.UUID
	Status   *task.Status
	Priority *task.Priority
	Page     int
	Limit    int
}

func (f TaskFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type UserFilter struct {
	Role  *user.Role
	Page  int
	Limit int
}

func (f UserFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// UserStats — счётчики для админской статистики, одним запросом из хранилища.
type UserStats struct {
	Total  int
	Active int
	Admins int
	Recent int
}
