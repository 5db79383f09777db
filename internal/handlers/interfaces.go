package handlers

import (
	"context"
	"time"

	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	"taskapi/internal/service"

	"github.com/google/uuid"
)

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*user.User, string, error)
	Login(ctx context.Context, email, password string) (*user.User, string, error)
}

type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, title, description string, status task.Status, priority task.Priority, dueDate *time.Time, tags []string) (*task.Task, error)
	List(ctx context.Context, ownerID *uuid.UUID, status *task.Status, priority *task.Priority, page, limit int) (*service.TaskPage, error)
	GetByID(ctx context.Context, ownerID *uuid.UUID, id uuid.UUID) (*task.Task, error)
	Update(ctx context.Context, ownerID *uuid.UUID, id uuid.UUID, options ...task.TaskOption) (*task.Task, error)
	Delete(ctx context.Context, ownerID *uuid.UUID, id uuid.UUID) error
	Summary(ctx context.Context, ownerID uuid.UUID) (*service.Summary, error)
	HealthCheck(ctx context.Context) error
}

type AdminService interface {
	ListUsers(ctx context.Context, role *user.Role, page, limit int) (*service.UserPage, error)
	SetUserActive(ctx context.Context, adminID, targetID uuid.UUID, active bool) (*user.User, error)
	GetStats(ctx context.Context) (*service.Stats, error)
}
