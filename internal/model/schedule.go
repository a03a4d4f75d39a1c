package model

import (
	"time"

	"github.com/mholloway/daybreak/internal/timeblock"
)

// ItemCategory classifies a schedule item by which planner stage owns it.
type ItemCategory string

const (
	CategoryEvent        ItemCategory = "EVENT"
	CategoryHabit        ItemCategory = "HABIT"
	CategorySleep        ItemCategory = "SLEEP"
	CategoryFocusSession ItemCategory = "FOCUS_SESSION"
)

// ValidItemCategory reports whether s names a known item category.
func ValidItemCategory(s string) bool {
	switch ItemCategory(s) {
	case CategoryEvent, CategoryHabit, CategorySleep, CategoryFocusSession:
		return true
	}
	return false
}

// ScheduleItem is one placed block on a day's schedule. Locked items were
// manually pinned or edited by the user and survive regeneration of their
// category verbatim. Invariant: StartTime <= EndTime within the day.
type ScheduleItem struct {
	ID         int64               `json:"id"`
	ScheduleID int64               `json:"-"`
	Name       string              `json:"name"`
	StartTime  timeblock.TimeOfDay `json:"start_time"`
	EndTime    timeblock.TimeOfDay `json:"end_time"`
	Category   ItemCategory        `json:"schedule_item_type"`
	Locked     bool                `json:"locked"`
}

// Schedule is one user's plan for one calendar date. Timezone records the
// IANA zone active when the schedule was last generated. The four refresh
// flags mark categories whose items are stale; a new schedule starts with
// all four set.
type Schedule struct {
	ID                int64          `json:"id"`
	UserID            int64          `json:"-"`
	Date              string         `json:"date"`
	Timezone          string         `json:"timezone"`
	NeedsEventRefresh bool           `json:"-"`
	NeedsHabitRefresh bool           `json:"-"`
	NeedsSleepRefresh bool           `json:"-"`
	NeedsWorkRefresh  bool           `json:"-"`
	Items             []ScheduleItem `json:"schedule_items"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ItemsOf returns the schedule's items of one category.
func (s *Schedule) ItemsOf(c ItemCategory) []ScheduleItem {
	var out []ScheduleItem
	for _, it := range s.Items {
		if it.Category == c {
			out = append(out, it)
		}
	}
	return out
}

// RemoveItems drops every item of the category for which keepLocked is
// false or the item is not locked, returning the removed items.
func (s *Schedule) RemoveItems(c ItemCategory, keepLocked bool) []ScheduleItem {
	var kept, removed []ScheduleItem
	for _, it := range s.Items {
		if it.Category == c && !(keepLocked && it.Locked) {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	s.Items = kept
	return removed
}

// DateOf formats t as a schedule date key.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
