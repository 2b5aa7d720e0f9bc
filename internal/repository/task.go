package repository

import (
	"context"

	"taskflow/internal/domain"
)

// TaskRepository exposes persistence operations for Task documents. Every read and
// write other than Create is scoped by both task id and owner id.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) error
	// ListByOwner returns the owner's tasks, newest first.
	ListByOwner(ctx context.Context, owner string) ([]domain.Task, error)
	GetForOwner(ctx context.Context, id, owner string) (*domain.Task, error)
	// UpdateForOwner replaces the mutable fields of the matching task.
	UpdateForOwner(ctx context.Context, task *domain.Task) error
	DeleteForOwner(ctx context.Context, id, owner string) error
}
