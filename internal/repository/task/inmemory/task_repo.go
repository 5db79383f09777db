package inmemory

import (
	"context"
	"sync"
	"time"

	"taskapi/internal/models/task"
	repo "taskapi/internal/repository"

	"github.com/google/uuid"
)

// TaskStorage — потокобезопасное хранилище в памяти.
// ids хранит порядок вставки: он же порядок created_at.
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToCreate.CreatedAt = time.Now()

	copied := *taskToCreate
	s.storage[taskToCreate.ID] = &copied
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *taskToGet
	return &copied, nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[taskToUpdate.ID]
	if !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	taskToUpdate.CreatedAt = existing.CreatedAt
	taskToUpdate.UpdatedAt = &now

	copied := *taskToUpdate
	s.storage[taskToUpdate.ID] = &copied
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func matches(t *task.Task, f repo.TaskFilter) bool {
	if f.OwnerID != nil && t.OwnerID != *f.OwnerID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	return true
}

func (s *TaskStorage) List(ctx context.Context, f repo.TaskFilter) ([]*task.Task, int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	// от новых к старым — created_at DESC
	filtered := []*task.Task{}
	for i := len(s.ids) - 1; i >= 0; i-- {
		t := s.storage[s.ids[i]]
		if matches(t, f) {
			filtered = append(filtered, t)
		}
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

	page := []*task.Task{}
	for _, t := range filtered[offset:end] {
		copied := *t
		page = append(page, &copied)
	}

	return page, total, nil
}

func (s *TaskStorage) CountByStatus(ctx context.Context, ownerID *uuid.UUID) (map[task.Status]int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	result := map[task.Status]int{}
	for _, t := range s.storage {
		if ownerID != nil && t.OwnerID != *ownerID {
			continue
		}
		result[t.Status]++
	}
	return result, nil
}

func (s *TaskStorage) CountByPriority(ctx context.Context, ownerID *uuid.UUID) (map[task.Priority]int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	result := map[task.Priority]int{}
	for _, t := range s.storage {
		if ownerID != nil && t.OwnerID != *ownerID {
			continue
		}
		result[t.Priority]++
	}
	return result, nil
}

func (s *TaskStorage) CountOverdue(ctx context.Context, ownerID *uuid.UUID, now time.Time) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	count := 0
	for _, t := range s.storage {
		if ownerID != nil && t.OwnerID != *ownerID {
			continue
		}
		if t.IsOverdue(now) {
			count++
		}
	}
	return count, nil
}

func (s *TaskStorage) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	count := 0
	for _, t := range s.storage {
		if !t.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}
