package domain

import "time"

// Task is the domain entity for a to-do item.
// Не зависит от Gin, Postgres, Redis.
type Task struct {
	ID          int64
	UserID      int64
	Description string
	DueDate     *time.Time
	Completed   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
