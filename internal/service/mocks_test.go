package service_test

import (
	"context"
	"time"

	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	"taskapi/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository - мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, f repository.UserFilter) ([]*user.User, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*user.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) Stats(ctx context.Context, recentSince time.Time) (repository.UserStats, error) {
	args := m.Called(ctx, recentSince)
	return args.Get(0).(repository.UserStats), args.Error(1)
}

func (m *MockUserRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) List(ctx context.Context, f repository.TaskFilter) ([]*task.Task, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*task.Task), args.Int(1), args.Error(2)
}

func (m *MockTaskRepository) CountByStatus(ctx context.Context, ownerID *uuid.UUID) (map[task.Status]int, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[task.Status]int), args.Error(1)
}

func (m *MockTaskRepository) CountByPriority(ctx context.Context, ownerID *uuid.UUID) (map[task.Priority]int, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[task.Priority]int), args.Error(1)
}

func (m *MockTaskRepository) CountOverdue(ctx context.Context, ownerID *uuid.UUID, now time.Time) (int, error) {
	args := m.Called(ctx, ownerID, now)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// stubTokens - детерминированный выпуск токенов для тестов
type stubTokens struct {
	issued string
	err    error
}

func (s *stubTokens) Issue(userID uuid.UUID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.issued != "" {
		return s.issued, nil
	}
	return "token-" + userID.String(), nil
}
