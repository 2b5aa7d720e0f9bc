package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskflow/internal/domain"
	"taskflow/internal/repository"
)

var (
	ErrTaskNotFound     = domain.NotFound("task not found")
	ErrTaskTitleMissing = domain.Validation("task title is required")
)

// CreateTaskInput carries a new task. Nil optional fields take the documented defaults:
// description "", priority "medium", status "pending", completed false, no due date.
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    *domain.Priority
	Status      *string
	Completed   *bool
	DueDate     *time.Time
}

// UpdateTaskInput is a partial update: only non-nil fields are applied.
// ClearDueDate removes the due date and wins over DueDate.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Priority     *domain.Priority
	Status       *string
	Completed    *bool
	DueDate      *time.Time
	ClearDueDate bool
}

// TaskService coordinates owner-scoped task operations backed by a repository.
type TaskService interface {
	CreateTask(ctx context.Context, owner string, in CreateTaskInput) (*domain.Task, error)
	ListTasks(ctx context.Context, owner string) ([]domain.Task, error)
	GetTask(ctx context.Context, owner, id string) (*domain.Task, error)
	UpdateTask(ctx context.Context, owner, id string, in UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, owner, id string) error
}

type taskService struct {
	tasks repository.TaskRepository
}

func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{tasks: tasks}
}

func (s *taskService) CreateTask(ctx context.Context, owner string, in CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTaskTitleMissing
	}

	task := &domain.Task{
		Owner:    owner,
		Title:    title,
		Priority: domain.DefaultPriority,
		Status:   domain.DefaultTaskStatus,
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil && normalizePriority(*in.Priority) != "" {
		task.Priority = normalizePriority(*in.Priority)
	}
	if in.Status != nil && strings.TrimSpace(*in.Status) != "" {
		task.Status = strings.TrimSpace(*in.Status)
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}
	task.DueDate = in.DueDate

	if err := validateStruct(task); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, domain.Internal("failed to create task", err)
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return nil, domain.Internal("failed to list tasks", err)
	}
	return tasks, nil
}

func (s *taskService) GetTask(ctx context.Context, owner, id string) (*domain.Task, error) {
	task, err := s.tasks.GetForOwner(ctx, id, owner)
	if err != nil {
		return nil, translateTaskErr(err, "failed to load task")
	}
	return task, nil
}

func (s *taskService) UpdateTask(ctx context.Context, owner, id string, in UpdateTaskInput) (*domain.Task, error) {
	task, err := s.tasks.GetForOwner(ctx, id, owner)
	if err != nil {
		return nil, translateTaskErr(err, "failed to load task")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrTaskTitleMissing
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		task.Priority = normalizePriority(*in.Priority)
	}
	if in.Status != nil {
		task.Status = strings.TrimSpace(*in.Status)
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}
	switch {
	case in.ClearDueDate:
		task.DueDate = nil
	case in.DueDate != nil:
		task.DueDate = in.DueDate
	}

	if err := validateStruct(task); err != nil {
		return nil, err
	}

	if err := s.tasks.UpdateForOwner(ctx, task); err != nil {
		return nil, translateTaskErr(err, "failed to update task")
	}
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, owner, id string) error {
	if err := s.tasks.DeleteForOwner(ctx, id, owner); err != nil {
		return translateTaskErr(err, "failed to delete task")
	}
	return nil
}

func normalizePriority(p domain.Priority) domain.Priority {
	return domain.Priority(strings.ToLower(strings.TrimSpace(string(p))))
}

func translateTaskErr(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return domain.Internal(message, err)
}
