package model

import "time"

// RepeatRule describes how often an event recurs.
type RepeatRule string

const (
	RepeatNever   RepeatRule = "NEVER"
	RepeatDaily   RepeatRule = "DAILY"
	RepeatWeekly  RepeatRule = "WEEKLY"
	RepeatMonthly RepeatRule = "MONTHLY"
	RepeatYearly  RepeatRule = "YEARLY"
)

// ValidRepeatRule reports whether s names a known repeat rule.
func ValidRepeatRule(s string) bool {
	switch RepeatRule(s) {
	case RepeatNever, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	}
	return false
}

// Event is a calendar event. StartTime and EndTime define the first
// occurrence and its duration; both are stored in UTC. Invariant:
// StartTime <= EndTime.
type Event struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"-"`
	Summary     string     `json:"summary"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	RepeatRule  RepeatRule `json:"repeat_rule"`
	Until       *time.Time `json:"until,omitempty"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// InstanceOverride replaces one occurrence of a recurring event. It is
// keyed by (EventID, RecurrenceID) where RecurrenceID is the start instant
// the occurrence would have had under the generic pattern.
type InstanceOverride struct {
	ID           int64     `json:"id"`
	EventID      int64     `json:"event_id"`
	RecurrenceID time.Time `json:"recurrence_id"`
	Summary      string    `json:"summary"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
}

// ExceptionDate marks one occurrence of a recurring event as deleted.
type ExceptionDate struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	StartTime time.Time `json:"start_time"`
}
