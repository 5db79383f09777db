package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"taskapi/internal/logger"
	"taskapi/internal/models/user"
	"taskapi/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type AuthService struct {
	users      UserRepository
	tokens     TokenIssuer
	bcryptCost int
}

func NewAuthService(users UserRepository, tokens TokenIssuer, bcryptCost int) AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 12
	}
	return AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func validateRegistration(username, email, password string) []FieldError {
	fields := []FieldError{}

	if len(username) < 3 || len(username) > 30 {
		fields = append(fields, FieldError{Field: "username", Message: "длина имени пользователя — от 3 до 30 символов"})
	}
	if !emailRegexp.MatchString(email) {
		fields = append(fields, FieldError{Field: "email", Message: "некорректный email"})
	}
	if len(password) < 6 {
		fields = append(fields, FieldError{Field: "password", Message: "пароль не короче 6 символов"})
	}

	return fields
}

// Register создаёт пользователя и сразу выдаёт токен.
// Предварительная проверка дубликатов best-effort: гонку двух регистраций
// разрешает уникальный индекс хранилища.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*user.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if fields := validateRegistration(username, email, password); len(fields) > 0 {
		return nil, "", NewValidation(fields...)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", NewDuplicate("email")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("проверка email: %w", err)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, "", NewDuplicate("username")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("проверка имени пользователя: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("хеширование пароля: %w", err)
	}

	newUser := &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         user.RoleUser,
		Active:       true,
	}

	if err := s.users.Create(ctx, newUser); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return nil, "", NewDuplicate(dup.Field)
		}
		return nil, "", fmt.Errorf("создание пользователя: %w", err)
	}

	tok, err := s.tokens.Issue(newUser.ID)
	if err != nil {
		return nil, "", fmt.Errorf("выдача токена: %w", err)
	}

	logger.Info("Service: Пользователь зарегистрирован",
		zap.String("user_id", newUser.ID.String()),
		zap.String("username", newUser.Username))

	return newUser, tok, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || password == "" {
		return nil, "", NewValidation(
			FieldError{Field: "email", Message: "email и пароль обязательны"},
		)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", NewInvalidCredentials()
		}
		return nil, "", fmt.Errorf("поиск пользователя: %w", err)
	}

	if !u.Active {
		logger.Warn("Service: Попытка входа в неактивный аккаунт", zap.String("user_id", u.ID.String()))
		return nil, "", NewAccountInactive()
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", NewInvalidCredentials()
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("выдача токена: %w", err)
	}

	logger.Info("Service: Успешный вход", zap.String("user_id", u.ID.String()))

	return u, tok, nil
}

// GetActiveUser используется auth-миддлварой: находит пользователя по id из
// токена и отклоняет неактивных.
func (s *AuthService) GetActiveUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewUnauthorized("пользователь не найден")
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if !u.Active {
		return nil, NewAccountInactive()
	}

	return u, nil
}
