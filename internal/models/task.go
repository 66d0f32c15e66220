package models

import "time"

// Task belongs to exactly one user. Image is the public path of an uploaded
// attachment (e.g. "/uploads/<name>"), nil when the task has none.
type Task struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"is_completed"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
}
