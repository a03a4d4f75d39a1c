package model

import "time"

// RepeatInterval is the period over which a habit's frequency applies.
// The planner only places DAILY and WEEKLY habits; MONTHLY and YEARLY
// habits are tracked but never scheduled automatically.
type RepeatInterval string

const (
	IntervalDaily   RepeatInterval = "DAILY"
	IntervalWeekly  RepeatInterval = "WEEKLY"
	IntervalMonthly RepeatInterval = "MONTHLY"
	IntervalYearly  RepeatInterval = "YEARLY"
)

// ValidRepeatInterval reports whether s names a known repeat interval.
func ValidRepeatInterval(s string) bool {
	switch RepeatInterval(s) {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// Habit is a recurring obligation the planner places into free time.
// Frequency is occurrences per repeat interval, Duration is minutes per
// occurrence. The four time-of-day flags are independent soft preferences.
type Habit struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"-"`
	Name           string         `json:"name"`
	Frequency      int            `json:"frequency"`
	Duration       int            `json:"duration"`
	RepeatInterval RepeatInterval `json:"repeat_interval"`
	Morning        bool           `json:"morning"`
	Afternoon      bool           `json:"afternoon"`
	Evening        bool           `json:"evening"`
	Night          bool           `json:"night"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// HabitCompletion counts completed occurrences of a habit on one date.
type HabitCompletion struct {
	ID             int64     `json:"id"`
	HabitID        int64     `json:"habit_id"`
	CompletionDate string    `json:"completion_date"`
	Count          int       `json:"count"`
	CreatedAt      time.Time `json:"created_at"`
}
