package domain

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	DefaultPriority   = PriorityMedium
	DefaultTaskStatus = "pending"
)

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          string     `json:"_id"`
	Owner       string     `json:"owner" validate:"required"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Priority    Priority   `json:"priority" validate:"required,oneof=low medium high"`
	Status      string     `json:"status" validate:"max=50"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
