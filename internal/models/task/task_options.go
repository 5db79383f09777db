package task

import "time"

// TaskOption — функция частичного обновления: меняет ровно одно поле.
// Обработчик собирает опции только для полей, пришедших в запросе.
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(t *Task) {
		t.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(t *Task) {
		t.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	return func(t *Task) {
		t.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	return func(t *Task) {
		t.Priority = priority
	}
}

func WithDueDate(dueDate *time.Time) TaskOption {
	return func(t *Task) {
		t.DueDate = dueDate
	}
}

func WithTags(tags []string) TaskOption {
	return func(t *Task) {
		t.Tags = tags
	}
}
