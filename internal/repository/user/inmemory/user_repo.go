package inmemory

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskapi/internal/models/user"
	repo "taskapi/internal/repository"

	"github.com/google/uuid"
)

type UserStorage struct {
	storage map[uuid.UUID]*user.User
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		storage: make(map[uuid.UUID]*user.User),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *UserStorage) HealthCheck(ctx context.Context) error {
	return nil
}

// проверка уникальности под мьютексом — здесь хранилище и есть арбитр
func (s *UserStorage) duplicateField(userToCheck *user.User) string {
	for _, existing := range s.storage {
		if existing.ID == userToCheck.ID {
			continue
		}
		if strings.EqualFold(existing.Email, userToCheck.Email) {
			return "email"
		}
		if existing.Username == userToCheck.Username {
			return "username"
		}
	}
	return ""
}

func (s *UserStorage) Create(ctx context.Context, userToCreate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if field := s.duplicateField(userToCreate); field != "" {
		return &repo.DuplicateError{Field: field}
	}

	userToCreate.CreatedAt = time.Now()

	copied := *userToCreate
	s.storage[userToCreate.ID] = &copied
	s.ids = append(s.ids, userToCreate.ID)
	return nil
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	userToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *userToGet
	return &copied, nil
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, u := range s.storage {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *UserStorage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, u := range s.storage {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *UserStorage) Update(ctx context.Context, userToUpdate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[userToUpdate.ID]
	if !ok {
		return repo.ErrNotFound
	}

	if field := s.duplicateField(userToUpdate); field != "" {
		return &repo.DuplicateError{Field: field}
	}

	now := time.Now()
	userToUpdate.CreatedAt = existing.CreatedAt
	userToUpdate.UpdatedAt = &now

	copied := *userToUpdate
	s.storage[userToUpdate.ID] = &copied
	return nil
}

func (s *UserStorage) List(ctx context.Context, f repo.UserFilter) ([]*user.User, int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	filtered := []*user.User{}
	for i := len(s.ids) - 1; i >= 0; i-- {
		u := s.storage[s.ids[i]]
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		filtered = append(filtered, u)
	}

	total := len(filtered)

	offset := f.Offset()
	if offset > total {
		offset = total
	}
	end := offset + f.Limit
	if end > total {
		end = total
	}

	page := []*user.User{}
	for _, u := range filtered[offset:end] {
		copied := *u
		page = append(page, &copied)
	}

	return page, total, nil
}

func (s *UserStorage) Stats(ctx context.Context, recentSince time.Time) (repo.UserStats, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stats := repo.UserStats{}
	for _, u := range s.storage {
		stats.Total++
		if u.Active {
			stats.Active++
		}
		if u.Role == user.RoleAdmin {
			stats.Admins++
		}
		if !u.CreatedAt.Before(recentSince) {
			stats.Recent++
		}
	}
	return stats, nil
}
