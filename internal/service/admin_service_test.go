package service_test

import (
	"context"
	"testing"
	"time"

	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	"taskapi/internal/repository"
	"taskapi/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSetUserActive_SelfDeactivationRejected(t *testing.T) {
	users := new(MockUserRepository)
	tasks := new(MockTaskRepository)
	svc := service.NewAdminService(users, tasks)

	adminID := uuid.New()

	_, err := svc.SetUserActive(context.Background(), adminID, adminID, false)
	assert.Equal(t, service.CodeSelfDeactivation, businessCode(t, err))

	// до хранилища дело не дошло — аккаунт остался как был
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSetUserActive_SelfActivationAllowed(t *testing.T) {
	users := new(MockUserRepository)
	tasks := new(MockTaskRepository)
	svc := service.NewAdminService(users, tasks)

	adminID := uuid.New()
	admin := &user.User{ID: adminID, Role: user.RoleAdmin, Active: true}

	users.On("GetByID", mock.Anything, adminID).Return(admin, nil)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)

	u, err := svc.SetUserActive(context.Background(), adminID, adminID, true)
	require.NoError(t, err)
	assert.True(t, u.Active)
}

func TestSetUserActive_DeactivatesOther(t *testing.T) {
	users := new(MockUserRepository)
	tasks := new(MockTaskRepository)
	svc := service.NewAdminService(users, tasks)

	adminID := uuid.New()
	target := &user.User{ID: uuid.New(), Role: user.RoleUser, Active: true}

	users.On("GetByID", mock.Anything, target.ID).Return(target, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.ID == target.ID && !u.Active
	})).Return(nil)

	u, err := svc.SetUserActive(context.Background(), adminID, target.ID, false)
	require.NoError(t, err)
	assert.False(t, u.Active)

	users.AssertExpectations(t)
}

func TestSetUserActive_TargetMissing(t *testing.T) {
	users := new(MockUserRepository)
	tasks := new(MockTaskRepository)
	svc := service.NewAdminService(users, tasks)

	targetID := uuid.New()
	users.On("GetByID", mock.Anything, targetID).Return(nil, repository.ErrNotFound)

	_, err := svc.SetUserActive(context.Background(), uuid.New(), targetID, false)
	assert.Equal(t, service.CodeNotFound, businessCode(t, err))
}

func TestGetStats_Composition(t *testing.T) {
	users := new(MockUserRepository)
	tasks := new(MockTaskRepository)
	svc := service.NewAdminService(users, tasks)

	users.On("Stats", mock.Anything, mock.AnythingOfType("time.Time")).Return(repository.UserStats{
		Total:  10,
		Active: 8,
		Admins: 2,
		Recent: 3,
	}, nil)

	byStatus := map[task.Status]int{
		task.StatusPending:   4,
		task.StatusCompleted: 6,
	}
	byPriority := map[task.Priority]int{
		task.PriorityLow:  3,
		task.PriorityHigh: 7,
	}

	tasks.On("CountByStatus", mock.Anything, (*uuid.UUID)(nil)).Return(byStatus, nil)
	tasks.On("CountByPriority", mock.Anything, (*uuid.UUID)(nil)).Return(byPriority, nil)
	tasks.On("CountOverdue", mock.Anything, (*uuid.UUID)(nil), mock.AnythingOfType("time.Time")).Return(1, nil)
	tasks.On("CountCreatedSince", mock.Anything, mock.AnythingOfType("time.Time")).Return(5, nil)

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, stats.UsersTotal)
	assert.Equal(t, 8, stats.UsersActive)
	assert.Equal(t, 2, stats.UsersAdmins)
	assert.Equal(t, 3, stats.UsersRecent)

	assert.Equal(t, 10, stats.TasksTotal, "сумма разбивки по статусам")
	assert.Equal(t, 6, stats.TasksCompleted)
	assert.Equal(t, 4, stats.TasksPending)
	assert.Equal(t, 1, stats.TasksOverdue)
	assert.Equal(t, 5, stats.TasksRecent)

	assert.Equal(t, byStatus, stats.ByStatus)
	assert.Equal(t, byPriority, stats.ByPriority)
}

func TestGetStats_RecentWindowIs30Days(t *testing.T) {
	users := new(MockUserRepository)
	tasks := new(MockTaskRepository)
	svc := service.NewAdminService(users, tasks)

	users.On("Stats", mock.Anything, mock.MatchedBy(func(since time.Time) bool {
		expected := time.Now().Add(-30 * 24 * time.Hour)
		return since.Sub(expected).Abs() < time.Minute
	})).Return(repository.UserStats{}, nil)

	tasks.On("CountByStatus", mock.Anything, (*uuid.UUID)(nil)).Return(map[task.Status]int{}, nil)
	tasks.On("CountByPriority", mock.Anything, (*uuid.UUID)(nil)).Return(map[task.Priority]int{}, nil)
	tasks.On("CountOverdue", mock.Anything, (*uuid.UUID)(nil), mock.AnythingOfType("time.Time")).Return(0, nil)
	tasks.On("CountCreatedSince", mock.Anything, mock.AnythingOfType("time.Time")).Return(0, nil)

	_, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	users.AssertExpectations(t)
}

func TestListUsers_InvalidRole(t *testing.T) {
	users := new(MockUserRepository)
	tasks := new(MockTaskRepository)
	svc := service.NewAdminService(users, tasks)

	badRole := user.Role("superuser")
	_, err := svc.ListUsers(context.Background(), &badRole, 1, 10)
	assert.Equal(t, service.CodeValidation, businessCode(t, err))
}

func TestListUsers_RoleFilterPassedThrough(t *testing.T) {
	users := new(MockUserRepository)
	tasks := new(MockTaskRepository)
	svc := service.NewAdminService(users, tasks)

	adminRole := user.RoleAdmin
	users.On("List", mock.Anything, mock.MatchedBy(func(f repository.UserFilter) bool {
		return f.Role != nil && *f.Role == user.RoleAdmin
	})).Return([]*user.User{}, 0, nil)

	result, err := svc.ListUsers(context.Background(), &adminRole, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.Pages)
}
