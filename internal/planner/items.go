package planner

import (
	"context"
	"fmt"

	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/timeblock"
)

// ItemUpdate carries the mutable fields of a schedule item edit. Nil
// fields keep their current value.
type ItemUpdate struct {
	Name      *string
	StartTime *timeblock.TimeOfDay
	EndTime   *timeblock.TimeOfDay
}

// CreateFocusSession pins a user-chosen focus session onto the day's
// schedule. The session must fit inside the day and must not overlap any
// existing item. Pinned sessions are locked: later work-stage refreshes
// plan around them instead of moving them.
func (p *Planner) CreateFocusSession(ctx context.Context, userID int64, date, tz string, start, end timeblock.TimeOfDay) (*model.Schedule, error) {
	sched, err := p.GetOrRefresh(ctx, userID, date, tz)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, &ValidationError{Reason: "start time must be before end time"}
	}
	block := timeblock.Block{Start: start.Seconds(), End: end.Seconds()}
	if overlapsAny(sched.Items, block, 0) {
		return nil, &ConflictError{Reason: "requested time overlaps an existing schedule item"}
	}

	sched.Items = append(sched.Items, model.ScheduleItem{
		Name:      "Work session",
		StartTime: start,
		EndTime:   end,
		Category:  model.CategoryFocusSession,
		Locked:    true,
	})
	if err := p.schedules.PersistSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("persist schedule: %w", err)
	}
	return sched, nil
}

// UpdateItem edits a habit or focus-session item in place and locks it so
// refreshes keep it where the user put it. Sleep and event items are
// derived from preferences and events and cannot be edited here.
func (p *Planner) UpdateItem(ctx context.Context, userID int64, date, tz string, itemID int64, upd ItemUpdate) (*model.Schedule, error) {
	sched, err := p.GetOrRefresh(ctx, userID, date, tz)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range sched.Items {
		if sched.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, &NotFoundError{Entity: "schedule item"}
	}
	item := sched.Items[idx]

	switch item.Category {
	case model.CategorySleep:
		return nil, &ValidationError{Reason: "sleep items are derived from preferences and cannot be edited"}
	case model.CategoryEvent:
		return nil, &ValidationError{Reason: "event items are edited through the event itself"}
	}

	if upd.Name != nil {
		item.Name = *upd.Name
	}
	if upd.StartTime != nil {
		item.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		item.EndTime = *upd.EndTime
	}
	if !item.StartTime.Before(item.EndTime) {
		return nil, &ValidationError{Reason: "start time must be before end time"}
	}
	block := timeblock.Block{Start: item.StartTime.Seconds(), End: item.EndTime.Seconds()}
	if overlapsAny(sched.Items, block, itemID) {
		return nil, &ConflictError{Reason: "requested time overlaps an existing schedule item"}
	}
	item.Locked = true
	sched.Items[idx] = item

	if err := p.schedules.PersistSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("persist schedule: %w", err)
	}
	return sched, nil
}

// RemoveFocusSession deletes a focus session from the day's schedule.
// Only focus sessions can be removed directly; other categories are
// managed through their source records.
func (p *Planner) RemoveFocusSession(ctx context.Context, userID int64, date, tz string, itemID int64) (*model.Schedule, error) {
	sched, err := p.GetOrRefresh(ctx, userID, date, tz)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range sched.Items {
		if sched.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, &NotFoundError{Entity: "schedule item"}
	}
	if sched.Items[idx].Category != model.CategoryFocusSession {
		return nil, &ValidationError{Reason: "only focus sessions can be removed from a schedule"}
	}

	sched.Items = append(sched.Items[:idx], sched.Items[idx+1:]...)
	if err := p.schedules.PersistSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("persist schedule: %w", err)
	}
	return sched, nil
}

// overlapsAny reports whether the block overlaps any item other than the
// one with skipID. Item ranges are half-open.
func overlapsAny(items []model.ScheduleItem, b timeblock.Block, skipID int64) bool {
	for _, it := range items {
		if skipID != 0 && it.ID == skipID {
			continue
		}
		other := timeblock.Block{Start: it.StartTime.Seconds(), End: it.EndTime.Seconds()}
		if b.Overlaps(other) {
			return true
		}
	}
	return false
}
