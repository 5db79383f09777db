package dto

import (
	"time"

	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	"taskapi/internal/service"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse — санитизированное представление: хеш пароля наружу не уходит.
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func FromUser(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func FromUserList(users []*user.User) []UserResponse {
	result := make([]UserResponse, len(users))
	for i, u := range users {
		result[i] = FromUser(u)
	}
	return result
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// CreateTaskRequest: поля owner нет намеренно — владельцем всегда становится
// вызывающий.
type CreateTaskRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      task.Status   `json:"status"`
	Priority    task.Priority `json:"priority"`
	DueDate     *time.Time    `json:"due_date"`
	Tags        []string      `json:"tags"`
}

type UpdateTaskRequest struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *task.Status   `json:"status,omitempty"`
	Priority    *task.Priority `json:"priority,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Tags        *[]string      `json:"tags,omitempty"`
}

// Options собирает опции частичного обновления только из пришедших полей.
func (r *UpdateTaskRequest) Options() []task.TaskOption {
	options := []task.TaskOption{}
	if r.Title != nil {
		options = append(options, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		options = append(options, task.WithDescription(*r.Description))
	}
	if r.Status != nil {
		options = append(options, task.WithStatus(*r.Status))
	}
	if r.Priority != nil {
		options = append(options, task.WithPriority(*r.Priority))
	}
	if r.DueDate != nil {
		options = append(options, task.WithDueDate(r.DueDate))
	}
	if r.Tags != nil {
		options = append(options, task.WithTags(*r.Tags))
	}
	return options
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Tags        []string   `json:"tags"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	IsOverdue   bool       `json:"is_overdue"`
}

func FromTask(t *task.Task) TaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		OwnerID:     t.OwnerID,
		Tags:        tags,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		IsOverdue:   t.IsOverdue(time.Now()),
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
	Pages int            `json:"pages"`
}

func FromTaskPage(p *service.TaskPage) TaskListResponse {
	return TaskListResponse{
		Tasks: FromTaskList(p.Tasks),
		Page:  p.Page,
		Limit: p.Limit,
		Total: p.Total,
		Pages: p.Pages,
	}
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
	Pages int            `json:"pages"`
}

func FromUserPage(p *service.UserPage) UserListResponse {
	return UserListResponse{
		Users: FromUserList(p.Users),
		Page:  p.Page,
		Limit: p.Limit,
		Total: p.Total,
		Pages: p.Pages,
	}
}

type SummaryResponse struct {
	Total    int            `json:"total"`
	Overdue  int            `json:"overdue"`
	ByStatus map[string]int `json:"byStatus"`
}

func FromSummary(s *service.Summary) SummaryResponse {
	byStatus := map[string]int{}
	for status, count := range s.ByStatus {
		byStatus[string(status)] = count
	}
	return SummaryResponse{
		Total:    s.Total,
		Overdue:  s.Overdue,
		ByStatus: byStatus,
	}
}

type StatsUsers struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Admins int `json:"admins"`
	Recent int `json:"recent"`
}

type StatsTasks struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	Recent    int `json:"recent"`
}

type StatsResponse struct {
	Users      StatsUsers     `json:"users"`
	Tasks      StatsTasks     `json:"tasks"`
	ByStatus   map[string]int `json:"byStatus"`
	ByPriority map[string]int `json:"byPriority"`
}

func FromStats(s *service.Stats) StatsResponse {
	byStatus := map[string]int{}
	for status, count := range s.ByStatus {
		byStatus[string(status)] = count
	}
	byPriority := map[string]int{}
	for priority, count := range s.ByPriority {
		byPriority[string(priority)] = count
	}
	return StatsResponse{
		Users: StatsUsers{
			Total:  s.UsersTotal,
			Active: s.UsersActive,
			Admins: s.UsersAdmins,
			Recent: s.UsersRecent,
		},
		Tasks: StatsTasks{
			Total:     s.TasksTotal,
			Completed: s.TasksCompleted,
			Pending:   s.TasksPending,
			Overdue:   s.TasksOverdue,
			Recent:    s.TasksRecent,
		},
		ByStatus:   byStatus,
		ByPriority: byPriority,
	}
}

// UpdateUserStatusRequest: указатель отличает пропущенное поле от false.
type UpdateUserStatusRequest struct {
	Active *bool `json:"active"`
}
