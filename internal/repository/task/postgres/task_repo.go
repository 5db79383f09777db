package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskapi/internal/logger"
	"taskapi/internal/models/task"
	repo "taskapi/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(id, title, description, status, priority, due_date, owner_id, tags, completed_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.ID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		taskToCreate.Priority,
		taskToCreate.DueDate,
		taskToCreate.OwnerID,
		taskToCreate.Tags,
		taskToCreate.CompletedAt,
	).Scan(&taskToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT
				id,
				title,
				description,
				status,
				priority,
				due_date,
				owner_id,
				tags,
				completed_at,
				created_at,
				updated_at
				FROM tasks
				WHERE id = $1`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.OwnerID,
		&t.Tags,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return t, nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				due_date = $5,
				tags = $6,
				completed_at = $7,
				updated_at = NOW()
			WHERE id = $8
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.Priority,
		taskToUpdate.DueDate,
		taskToUpdate.Tags,
		taskToUpdate.CompletedAt,
		taskToUpdate.ID,
	).Scan(&taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	query := `DELETE FROM tasks WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// List возвращает страницу и общее число задач под фильтром.
// Сортировка всегда по created_at DESC.
func (s *Storage) List(ctx context.Context, f repo.TaskFilter) ([]*task.Task, int, error) {
	start := time.Now()

	where, args := taskFilterClauses(f)

	countQuery := `SELECT COUNT(*) FROM tasks` + where
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return nil, 0, fmt.Errorf("подсчёт задач: %w", err)
	}

	query := `SELECT
				id,
				title,
				description,
				status,
				priority,
				due_date,
				owner_id,
				tags,
				completed_at,
				created_at,
				updated_at
				FROM tasks` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	args = append(args, f.Limit, f.Offset())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}
		err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.Status,
			&t.Priority,
			&t.DueDate,
			&t.OwnerID,
			&t.Tags,
			&t.CompletedAt,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, 0, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(f.Limit) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, total, nil
}

func taskFilterClauses(f repo.TaskFilter) (string, []any) {
	clauses := []string{}
	args := []any{}

	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Priority != nil {
		args = append(args, *f.Priority)
		clauses = append(clauses, fmt.Sprintf("priority = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// CountByStatus — разбивка по статусам; ownerID == nil считает по всем владельцам.
func (s *Storage) CountByStatus(ctx context.Context, ownerID *uuid.UUID) (map[task.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM tasks GROUP BY status`
	args := []any{}
	if ownerID != nil {
		query = `SELECT status, COUNT(*) FROM tasks WHERE owner_id = $1 GROUP BY status`
		args = append(args, *ownerID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить разбивку по статусам", err)
		return nil, fmt.Errorf("разбивка по статусам: %w", err)
	}
	defer rows.Close()

	result := map[task.Status]int{}
	for rows.Next() {
		var status task.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			logger.Warn("Repository: Ошибка сканирования строки", zap.Error(err))
			continue
		}
		result[status] = count
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return result, nil
}

func (s *Storage) CountByPriority(ctx context.Context, ownerID *uuid.UUID) (map[task.Priority]int, error) {
	query := `SELECT priority, COUNT(*) FROM tasks GROUP BY priority`
	args := []any{}
	if ownerID != nil {
		query = `SELECT priority, COUNT(*) FROM tasks WHERE owner_id = $1 GROUP BY priority`
		args = append(args, *ownerID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить разбивку по приоритетам", err)
		return nil, fmt.Errorf("разбивка по приоритетам: %w", err)
	}
	defer rows.Close()

	result := map[task.Priority]int{}
	for rows.Next() {
		var priority task.Priority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			logger.Warn("Repository: Ошибка сканирования строки", zap.Error(err))
			continue
		}
		result[priority] = count
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return result, nil
}

func (s *Storage) CountOverdue(ctx context.Context, ownerID *uuid.UUID, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM tasks
				WHERE due_date IS NOT NULL
				AND due_date < $1
				AND status != $2`
	args := []any{now, task.StatusCompleted}
	if ownerID != nil {
		query += ` AND owner_id = $3`
		args = append(args, *ownerID)
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		logger.Error("Repository: Не удалось посчитать просроченные задачи", err)
		return 0, fmt.Errorf("подсчёт просроченных задач: %w", err)
	}
	return count, nil
}

func (s *Storage) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE created_at >= $1`, since).Scan(&count)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать новые задачи", err)
		return 0, fmt.Errorf("подсчёт новых задач: %w", err)
	}
	return count, nil
}
