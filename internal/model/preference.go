package model

import (
	"time"

	"github.com/mholloway/daybreak/internal/timeblock"
)

// FocusTime is one preferred focus interval within a preference,
// ordered by SortOrder. Invariant: StartTime <= EndTime.
type FocusTime struct {
	ID        int64              `json:"id"`
	StartTime timeblock.TimeOfDay `json:"start_time"`
	EndTime   timeblock.TimeOfDay `json:"end_time"`
	SortOrder int                `json:"-"`
}

// Preference holds a user's scheduling preferences, one row per user.
// Time-of-day fields are nil when unset; an unset wake/sleep pair means
// no sleep block is planned.
type Preference struct {
	ID             int64                `json:"id"`
	UserID         int64                `json:"-"`
	WakeTime       *timeblock.TimeOfDay `json:"wake_up_time,omitempty"`
	SleepTime      *timeblock.TimeOfDay `json:"sleep_time,omitempty"`
	WorkdayStart   *timeblock.TimeOfDay `json:"start_of_work_day,omitempty"`
	WorkdayEnd     *timeblock.TimeOfDay `json:"end_of_work_day,omitempty"`
	BreakMinutes   int                  `json:"break_length"`
	BestFocusTimes []FocusTime          `json:"best_focus_times"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}
