package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskapi/internal/logger"
	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	"taskapi/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recentWindow = 30 * 24 * time.Hour

type AdminService struct {
	users UserRepository
	tasks TaskRepository
}

func NewAdminService(users UserRepository, tasks TaskRepository) AdminService {
	return AdminService{
		users: users,
		tasks: tasks,
	}
}

type UserPage struct {
	Users []*user.User
	Page  int
	Limit int
	Total int
	Pages int
}

type Stats struct {
	UsersTotal  int
	UsersActive int
	UsersAdmins int
	UsersRecent int

	TasksTotal     int
	TasksCompleted int
	TasksPending   int
	TasksOverdue   int
	TasksRecent    int

	ByStatus   map[task.Status]int
	ByPriority map[task.Priority]int
}

func (s *AdminService) ListUsers(ctx context.Context, role *user.Role, page, limit int) (*UserPage, error) {
	page, limit = normalizePagination(page, limit)

	if role != nil && !role.Valid() {
		return nil, NewValidation(FieldError{Field: "role", Message: fmt.Sprintf("недопустимая роль %q", *role)})
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{
		Role:  role,
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}

	return &UserPage{
		Users: users,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pagesFor(total, limit),
	}, nil
}

// SetUserActive переключает флаг активности. Самодеактивация запрещена,
// чтобы админ не выпилил сам себя из системы.
func (s *AdminService) SetUserActive(ctx context.Context, adminID, targetID uuid.UUID, active bool) (*user.User, error) {
	if adminID == targetID && !active {
		logger.Warn("Service: Попытка самодеактивации", zap.String("admin_id", adminID.String()))
		return nil, NewSelfDeactivation()
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("пользователь")
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	target.Active = active
	if err := s.users.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("обновление пользователя: %w", err)
	}

	logger.Info("Service: Статус пользователя изменён",
		zap.String("user_id", targetID.String()),
		zap.Bool("active", active))

	return target, nil
}

func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	now := time.Now()
	since := now.Add(-recentWindow)

	userStats, err := s.users.Stats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("статистика пользователей: %w", err)
	}

	byStatus, err := s.tasks.CountByStatus(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("разбивка по статусам: %w", err)
	}

	byPriority, err := s.tasks.CountByPriority(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("разбивка по приоритетам: %w", err)
	}

	overdue, err := s.tasks.CountOverdue(ctx, nil, now)
	if err != nil {
		return nil, fmt.Errorf("подсчёт просроченных задач: %w", err)
	}

	recent, err := s.tasks.CountCreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("подсчёт новых задач: %w", err)
	}

	tasksTotal := 0
	for _, count := range byStatus {
		tasksTotal += count
	}

	return &Stats{
		UsersTotal:  userStats.Total,
		UsersActive: userStats.Active,
		UsersAdmins: userStats.Admins,
		UsersRecent: userStats.Recent,

		TasksTotal:     tasksTotal,
		TasksCompleted: byStatus[task.StatusCompleted],
		TasksPending:   byStatus[task.StatusPending],
		TasksOverdue:   overdue,
		TasksRecent:    recent,

		ByStatus:   byStatus,
		ByPriority: byPriority,
	}, nil
}
