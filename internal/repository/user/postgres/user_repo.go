package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskapi/internal/logger"
	"taskapi/internal/models/user"
	repo "taskapi/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

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

// mapDuplicate переводит нарушение уникального индекса в DuplicateError.
// Приложение прочекивает дубликаты заранее, но финальный арбитр — индекс.
func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field := "email"
		if strings.Contains(pgErr.ConstraintName, "username") {
			field = "username"
		}
		return &repo.DuplicateError{Field: field}
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, userToCreate *user.User) error {
	start := time.Now()

	query := `INSERT INTO users
				(id, username, email, password_hash, role, active, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, NOW())
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		userToCreate.ID,
		userToCreate.Username,
		userToCreate.Email,
		userToCreate.PasswordHash,
		userToCreate.Role,
		userToCreate.Active,
	).Scan(&userToCreate.CreatedAt)

	if err != nil {
		if dup := mapDuplicate(err); dup != nil {
			logger.Warn("Repository: Конфликт уникальности при создании пользователя",
				zap.String("username", userToCreate.Username))
			return dup
		}
		logger.Error("Repository: Не удалось создать пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("создание пользователя: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

const userColumns = `id, username, email, password_hash, role, active, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

func (s *Storage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

func (s *Storage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(s.pool.QueryRow(ctx, query, username))
}

func (s *Storage) Update(ctx context.Context, userToUpdate *user.User) error {
	start := time.Now()

	query := `UPDATE users
			SET username = $1,
				email = $2,
				password_hash = $3,
				role = $4,
				active = $5,
				updated_at = NOW()
			WHERE id = $6
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		userToUpdate.Username,
		userToUpdate.Email,
		userToUpdate.PasswordHash,
		userToUpdate.Role,
		userToUpdate.Active,
		userToUpdate.ID,
	).Scan(&userToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		if dup := mapDuplicate(err); dup != nil {
			return dup
		}
		logger.Error("Repository: Не удалось обновить пользователя", err)
		return fmt.Errorf("обновление пользователя: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) List(ctx context.Context, f repo.UserFilter) ([]*user.User, int, error) {
	start := time.Now()

	where := ""
	args := []any{}
	if f.Role != nil {
		args = append(args, *f.Role)
		where = " WHERE role = $1"
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		logger.Error("Repository: Не удалось посчитать пользователей", err)
		return nil, 0, fmt.Errorf("подсчёт пользователей: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err, zap.Duration("ms", time.Since(start)))
		return nil, 0, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.Active,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования пользователя", zap.Error(err))
			continue
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, 0, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(f.Limit) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return users, total, nil
}

// Stats собирает счётчики одним запросом через FILTER.
func (s *Storage) Stats(ctx context.Context, recentSince time.Time) (repo.UserStats, error) {
	query := `SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE active),
				COUNT(*) FILTER (WHERE role = 'admin'),
				COUNT(*) FILTER (WHERE created_at >= $1)
			FROM users`

	var stats repo.UserStats
	err := s.pool.QueryRow(ctx, query, recentSince).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Admins,
		&stats.Recent,
	)
	if err != nil {
		logger.Error("Repository: Не удалось получить статистику пользователей", err)
		return repo.UserStats{}, fmt.Errorf("статистика пользователей: %w", err)
	}
	return stats, nil
}
