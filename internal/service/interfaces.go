package service

import (
	"context"
	"time"

	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	"taskapi/internal/repository"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Update(context.Context, *task.Task) error
	Delete(context.Context, uuid.UUID) error
	List(context.Context, repository.TaskFilter) ([]*task.Task, int, error)
	CountByStatus(context.Context, *uuid.UUID) (map[task.Status]int, error)
	CountByPriority(context.Context, *uuid.UUID) (map[task.Priority]int, error)
	CountOverdue(context.Context, *uuid.UUID, time.Time) (int, error)
	CountCreatedSince(context.Context, time.Time) (int, error)
	HealthCheck(context.Context) error
}

type UserRepository interface {
	Create(context.Context, *user.User) error
	GetByID(context.Context, uuid.UUID) (*user.User, error)
	GetByEmail(context.Context, string) (*user.User, error)
	GetByUsername(context.Context, string) (*user.User, error)
	Update(context.Context, *user.User) error
	List(context.Context, repository.UserFilter) ([]*user.User, int, error)
	Stats(context.Context, time.Time) (repository.UserStats, error)
	HealthCheck(context.Context) error
}

type TokenIssuer interface {
	Issue(uuid.UUID) (string, error)
}
