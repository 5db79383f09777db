package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskapi/internal/logger"
	"taskapi/internal/models/task"
	"taskapi/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultLimit = 10
const maxLimit = 100
const maxTags = 10

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) TaskService {
	return TaskService{
		repo: repo,
	}
}

// TaskPage — страница листинга вместе с контрактом пагинации.
type TaskPage struct {
	Tasks []*task.Task
	Page  int
	Limit int
	Total int
	Pages int
}

type Summary struct {
	Total    int
	Overdue  int
	ByStatus map[task.Status]int
}

func normalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func pagesFor(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func validateTask(t *task.Task) []FieldError {
	fields := []FieldError{}

	if t.Title == "" {
		fields = append(fields, FieldError{Field: "title", Message: "название обязательно"})
	} else if len(t.Title) > 100 {
		fields = append(fields, FieldError{Field: "title", Message: "название не длиннее 100 символов"})
	}
	if len(t.Description) > 500 {
		fields = append(fields, FieldError{Field: "description", Message: "описание не длиннее 500 символов"})
	}
	if !t.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Message: fmt.Sprintf("недопустимый статус %q", t.Status)})
	}
	if !t.Priority.Valid() {
		fields = append(fields, FieldError{Field: "priority", Message: fmt.Sprintf("недопустимый приоритет %q", t.Priority)})
	}
	if len(t.Tags) > maxTags {
		fields = append(fields, FieldError{Field: "tags", Message: "не больше 10 тегов"})
	}
	for _, tag := range t.Tags {
		if tag == "" || len(tag) > 30 {
			fields = append(fields, FieldError{Field: "tags", Message: "тег — от 1 до 30 символов"})
			break
		}
	}

	return fields
}

// recomputeCompleted — производное поле CompletedAt пересчитывается при каждой
// смене статуса и никогда не берётся из запроса.
func recomputeCompleted(t *task.Task, now time.Time) {
	if t.Status == task.StatusCompleted {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
		return
	}
	t.CompletedAt = nil
}

// Create: владелец всегда берётся из аутентифицированного вызова, клиентское
// поле owner игнорируется ещё на уровне DTO.
func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, title, description string, status task.Status, priority task.Priority, dueDate *time.Time, tags []string) (*task.Task, error) {
	if status == "" {
		status = task.StatusPending
	}
	if priority == "" {
		priority = task.PriorityMedium
	}
	if tags == nil {
		tags = []string{}
	}

	t := &task.Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		OwnerID:     ownerID,
		Tags:        tags,
	}

	if fields := validateTask(t); len(fields) > 0 {
		return nil, NewValidation(fields...)
	}

	recomputeCompleted(t, time.Now())

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", t.ID.String()),
		zap.String("owner_id", ownerID.String()))

	return t, nil
}

// List: ownerID == nil — глобальная (админская) выборка.
func (s *TaskService) List(ctx context.Context, ownerID *uuid.UUID, status *task.Status, priority *task.Priority, page, limit int) (*TaskPage, error) {
	page, limit = normalizePagination(page, limit)

	if status != nil && !status.Valid() {
		return nil, NewValidation(FieldError{Field: "status", Message: fmt.Sprintf("недопустимый статус %q", *status)})
	}
	if priority != nil && !priority.Valid() {
		return nil, NewValidation(FieldError{Field: "priority", Message: fmt.Sprintf("недопустимый приоритет %q", *priority)})
	}

	tasks, total, err := s.repo.List(ctx, repository.TaskFilter{
		OwnerID:  ownerID,
		Status:   status,
		Priority: priority,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	return &TaskPage{
		Tasks: tasks,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pagesFor(total, limit),
	}, nil
}

// GetByID: чужая задача для не-админа неотличима от отсутствующей — 404.
func (s *TaskService) GetByID(ctx context.Context, ownerID *uuid.UUID, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("задача")
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if ownerID != nil && t.OwnerID != *ownerID {
		logger.Info("Service: Попытка доступа к чужой задаче",
			zap.String("task_id", id.String()),
			zap.String("caller_id", ownerID.String()))
		return nil, NewNotFound("задача")
	}

	return t, nil
}

// Update — частичное обновление через опции; владелец неизменяем.
func (s *TaskService) Update(ctx context.Context, ownerID *uuid.UUID, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	t, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	owner := t.OwnerID
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
	t.ID = id
	t.OwnerID = owner

	if fields := validateTask(t); len(fields) > 0 {
		return nil, NewValidation(fields...)
	}

	recomputeCompleted(t, time.Now())

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("задача")
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID *uuid.UUID, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound("задача")
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

func (s *TaskService) Summary(ctx context.Context, ownerID uuid.UUID) (*Summary, error) {
	byStatus, err := s.repo.CountByStatus(ctx, &ownerID)
	if err != nil {
		return nil, fmt.Errorf("разбивка по статусам: %w", err)
	}

	total := 0
	for _, count := range byStatus {
		total += count
	}

	overdue, err := s.repo.CountOverdue(ctx, &ownerID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("подсчёт просроченных задач: %w", err)
	}

	return &Summary{
		Total:    total,
		Overdue:  overdue,
		ByStatus: byStatus,
	}, nil
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
