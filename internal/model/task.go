package model

import "time"

// Task is a one-off to-do with a deadline. Tasks are tracked alongside the
// planner but are never auto-placed.
type Task struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"-"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Done        bool       `json:"done"`
	TagID       *int64     `json:"tag_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
