// Package planner generates daily and weekly schedules. It drives four
// category stages in a fixed order (sleep, events, habits, work) over a
// per-day schedule row, recomputing only the categories whose dirty flags
// are set and preserving user-pinned items verbatim. Upstream data comes
// in through narrow repository interfaces; the planner itself holds no
// storage.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/recurrence"
)

// DaysPerWeek is the span of the weekly planning window.
const DaysPerWeek = 7

// PreferenceSource provides a user's scheduling preferences.
// GetPreference returns nil when the user has never set any.
type PreferenceSource interface {
	GetPreference(ctx context.Context, userID int64) (*model.Preference, error)
}

// HabitSource lists a user's habits, optionally filtered by repeat
// interval (empty means all).
type HabitSource interface {
	ListHabits(ctx context.Context, userID int64, interval model.RepeatInterval) ([]model.Habit, error)
}

// EventSource returns recurrence-expanded event occurrences intersecting
// [start, end), converted to loc.
type EventSource interface {
	EventsInRange(ctx context.Context, userID int64, start, end time.Time, loc *time.Location) ([]recurrence.Occurrence, error)
}

// ScheduleStore persists schedule rows and their items.
type ScheduleStore interface {
	GetOrCreateSchedule(ctx context.Context, userID int64, date string) (*model.Schedule, bool, error)
	PersistSchedule(ctx context.Context, s *model.Schedule) error
	MarkDirty(ctx context.Context, userID int64, categories ...model.ItemCategory) error
}

// Planner is the schedule director.
type Planner struct {
	prefs     PreferenceSource
	habits    HabitSource
	events    EventSource
	schedules ScheduleStore
	logger    *slog.Logger
}

// New creates a Planner over the given collaborators.
func New(prefs PreferenceSource, habits HabitSource, events EventSource, schedules ScheduleStore, logger *slog.Logger) *Planner {
	return &Planner{
		prefs:     prefs,
		habits:    habits,
		events:    events,
		schedules: schedules,
		logger:    logger,
	}
}

// RequiresRefresh reports whether the stored schedule can be served as-is
// for a request in the given timezone. Any set dirty flag forces a
// refresh, as does a timezone change when event items exist: events must
// be re-clipped to the new day boundaries, and habit/work windows are
// timezone-relative. Sleep is expressed in local wall-clock already and
// survives a timezone change untouched.
func RequiresRefresh(s *model.Schedule, tz string) bool {
	if s.NeedsEventRefresh || s.NeedsHabitRefresh || s.NeedsSleepRefresh || s.NeedsWorkRefresh {
		return true
	}
	return tz != s.Timezone && len(s.ItemsOf(model.CategoryEvent)) > 0
}

// GetOrRefresh returns the schedule for the date, regenerating stale
// categories first. date is "2006-01-02"; tz is an IANA zone name.
func (p *Planner) GetOrRefresh(ctx context.Context, userID int64, date, tz string) (*model.Schedule, error) {
	loc, err := loadLocation(tz)
	if err != nil {
		return nil, err
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid date %q", date)}
	}

	sched, created, err := p.schedules.GetOrCreateSchedule(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("get or create schedule: %w", err)
	}
	if !created && !RequiresRefresh(sched, tz) {
		return sched, nil
	}

	if err := p.refreshDay(ctx, userID, sched, tz, loc); err != nil {
		return nil, err
	}
	return sched, nil
}

// Week returns the seven schedules starting at date, regenerating stale
// categories. Weekly-frequency habits are placed once across the
// concatenated 7-day timeline; everything else is planned per day.
func (p *Planner) Week(ctx context.Context, userID int64, date, tz string) ([]*model.Schedule, error) {
	loc, err := loadLocation(tz)
	if err != nil {
		return nil, err
	}
	start, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid date %q", date)}
	}

	scheds := make([]*model.Schedule, DaysPerWeek)
	for i := range scheds {
		day := model.DateOf(start.AddDate(0, 0, i))
		s, _, err := p.schedules.GetOrCreateSchedule(ctx, userID, day)
		if err != nil {
			return nil, fmt.Errorf("get or create schedule %s: %w", day, err)
		}
		scheds[i] = s
	}

	if err := p.refreshWeek(ctx, userID, scheds, tz, loc); err != nil {
		return nil, err
	}
	return scheds, nil
}

// loadLocation resolves an IANA timezone name, mapping failure to a
// ValidationError.
func loadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, &ValidationError{Reason: "timezone is required"}
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown timezone %q", tz)}
	}
	return loc, nil
}
