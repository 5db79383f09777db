package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"taskapi/internal/models/user"
	repo "taskapi/internal/repository"
	sharedpg "taskapi/internal/repository/postgres"
	"taskapi/internal/repository/user/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type UserPostgresSuite struct {
	suite.Suite
	container testcontainers.Container
	pool      *pgxpool.Pool
	storage   *postgres.Storage
	ctx       context.Context
}

func (s *UserPostgresSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	require.NoError(s.T(), sharedpg.Migrate(connString))

	s.pool, err = pgxpool.New(s.ctx, connString)
	require.NoError(s.T(), err)

	s.storage = postgres.New(s.pool)
}

func (s *UserPostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

func (s *UserPostgresSuite) SetupTest() {
	// задачи ссылаются на пользователей, чистим каскадом
	_, err := s.pool.Exec(s.ctx, "TRUNCATE users CASCADE")
	require.NoError(s.T(), err)
}

func TestUserPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(UserPostgresSuite))
}

func newUser(username, email string) *user.User {
	return &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		Role:         user.RoleUser,
		Active:       true,
	}
}

func (s *UserPostgresSuite) TestCreateAndLookups() {
	ctx := context.Background()

	alice := newUser("alice", "al@x.com")
	require.NoError(s.T(), s.storage.Create(ctx, alice))
	assert.False(s.T(), alice.CreatedAt.IsZero())

	byID, err := s.storage.GetByID(ctx, alice.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", byID.Username)
	assert.Equal(s.T(), user.RoleUser, byID.Role)
	assert.True(s.T(), byID.Active)

	// email ищется без учёта регистра
	byEmail, err := s.storage.GetByEmail(ctx, "AL@X.COM")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), alice.ID, byEmail.ID)

	byName, err := s.storage.GetByUsername(ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), alice.ID, byName.ID)

	_, err = s.storage.GetByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(s.T(), err, repo.ErrNotFound)
}

func (s *UserPostgresSuite) TestDuplicateEmail() {
	ctx := context.Background()

	require.NoError(s.T(), s.storage.Create(ctx, newUser("alice", "al@x.com")))

	// уникальный индекс по LOWER(email) отбивает вставку независимо от регистра
	var dupErr *repo.DuplicateError
	err := s.storage.Create(ctx, newUser("bob", "AL@X.com"))
	require.ErrorAs(s.T(), err, &dupErr)
	assert.Equal(s.T(), "email", dupErr.Field)
}

func (s *UserPostgresSuite) TestDuplicateUsername() {
	ctx := context.Background()

	require.NoError(s.T(), s.storage.Create(ctx, newUser("alice", "al@x.com")))

	var dupErr *repo.DuplicateError
	err := s.storage.Create(ctx, newUser("alice", "other@x.com"))
	require.ErrorAs(s.T(), err, &dupErr)
	assert.Equal(s.T(), "username", dupErr.Field)
}

func (s *UserPostgresSuite) TestUpdate() {
	ctx := context.Background()

	alice := newUser("alice", "al@x.com")
	require.NoError(s.T(), s.storage.Create(ctx, alice))

	alice.Active = false
	alice.Role = user.RoleAdmin
	require.NoError(s.T(), s.storage.Update(ctx, alice))
	assert.NotNil(s.T(), alice.UpdatedAt)

	got, err := s.storage.GetByID(ctx, alice.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), got.Active)
	assert.Equal(s.T(), user.RoleAdmin, got.Role)
}

func (s *UserPostgresSuite) TestUpdateMissing() {
	err := s.storage.Update(context.Background(), newUser("ghost", "ghost@x.com"))
	assert.ErrorIs(s.T(), err, repo.ErrNotFound)
}

func (s *UserPostgresSuite) TestUpdateIntoDuplicate() {
	ctx := context.Background()

	alice := newUser("alice", "al@x.com")
	bob := newUser("bob", "bob@x.com")
	require.NoError(s.T(), s.storage.Create(ctx, alice))
	require.NoError(s.T(), s.storage.Create(ctx, bob))

	bob.Username = "alice"

	var dupErr *repo.DuplicateError
	err := s.storage.Update(ctx, bob)
	require.ErrorAs(s.T(), err, &dupErr)
	assert.Equal(s.T(), "username", dupErr.Field)
}

func (s *UserPostgresSuite) TestListRoleFilter() {
	ctx := context.Background()

	admin := newUser("root", "root@x.com")
	admin.Role = user.RoleAdmin
	require.NoError(s.T(), s.storage.Create(ctx, admin))
	require.NoError(s.T(), s.storage.Create(ctx, newUser("alice", "al@x.com")))
	require.NoError(s.T(), s.storage.Create(ctx, newUser("bob", "bob@x.com")))

	adminRole := user.RoleAdmin
	got, total, err := s.storage.List(ctx, repo.UserFilter{Role: &adminRole, Page: 1, Limit: 10})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, total)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), "root", got[0].Username)

	got, total, err = s.storage.List(ctx, repo.UserFilter{Page: 1, Limit: 2})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, total)
	assert.Len(s.T(), got, 2)
}

func (s *UserPostgresSuite) TestStats() {
	ctx := context.Background()

	admin := newUser("root", "root@x.com")
	admin.Role = user.RoleAdmin
	inactive := newUser("sleepy", "sleepy@x.com")
	inactive.Active = false

	require.NoError(s.T(), s.storage.Create(ctx, admin))
	require.NoError(s.T(), s.storage.Create(ctx, inactive))
	require.NoError(s.T(), s.storage.Create(ctx, newUser("alice", "al@x.com")))

	stats, err := s.storage.Stats(ctx, time.Now().Add(-time.Minute))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), 3, stats.Total)
	assert.Equal(s.T(), 2, stats.Active)
	assert.Equal(s.T(), 1, stats.Admins)
	assert.Equal(s.T(), 3, stats.Recent)
}

func (s *UserPostgresSuite) TestHealthCheck() {
	assert.NoError(s.T(), s.storage.HealthCheck(context.Background()))
}
