package store

import (
	"context"
	"testing"
	"time"

	"github.com/mholloway/daybreak/internal/model"
)

func newEvent(rule model.RepeatRule) *model.Event {
	return &model.Event{
		UserID:     1,
		Summary:    "Standup",
		StartTime:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		RepeatRule: rule,
		Location:   "Office",
	}
}

func TestEventCreateAndGetByID(t *testing.T) {
	s := NewEventStore(testDB(t))
	ctx := context.Background()

	event, err := s.Create(ctx, newEvent(model.RepeatDaily))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.Summary != "Standup" {
		t.Errorf("summary = %q, want %q", event.Summary, "Standup")
	}
	if event.RepeatRule != model.RepeatDaily {
		t.Errorf("repeat rule = %q, want DAILY", event.RepeatRule)
	}
	if event.Until != nil {
		t.Errorf("until should be nil, got %v", *event.Until)
	}

	got, err := s.GetByID(ctx, 1, event.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Location != "Office" {
		t.Errorf("location = %q, want %q", got.Location, "Office")
	}
}

func TestEventGetByIDNotFound(t *testing.T) {
	s := NewEventStore(testDB(t))

	got, err := s.GetByID(context.Background(), 1, 999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent event")
	}
}

func TestEventScopedToOwner(t *testing.T) {
	s := NewEventStore(testDB(t))
	ctx := context.Background()

	event, err := s.Create(ctx, newEvent(model.RepeatNever))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	got, err := s.GetByID(ctx, 2, event.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Error("another user's lookup should return nil")
	}
}

func TestEventUpdate(t *testing.T) {
	s := NewEventStore(testDB(t))
	ctx := context.Background()

	event, err := s.Create(ctx, newEvent(model.RepeatNever))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	event.Summary = "Retro"
	until := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	event.Until = &until
	event.RepeatRule = model.RepeatWeekly

	updated, err := s.Update(ctx, event)
	if err != nil {
		t.Fatalf("update event: %v", err)
	}
	if updated.Summary != "Retro" {
		t.Errorf("summary = %q, want %q", updated.Summary, "Retro")
	}
	if updated.Until == nil || !updated.Until.Equal(until) {
		t.Errorf("until = %v, want %v", updated.Until, until)
	}
}

func TestEventDelete(t *testing.T) {
	s := NewEventStore(testDB(t))
	ctx := context.Background()

	event, err := s.Create(ctx, newEvent(model.RepeatNever))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if err := s.Delete(ctx, 1, event.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}

	got, err := s.GetByID(ctx, 1, event.ID)
	if err != nil {
		t.Fatalf("get by id after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestEventsInRangeExpandsRecurrence(t *testing.T) {
	s := NewEventStore(testDB(t))
	ctx := context.Background()

	if _, err := s.Create(ctx, newEvent(model.RepeatDaily)); err != nil {
		t.Fatalf("create event: %v", err)
	}

	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	occs, err := s.EventsInRange(ctx, 1, start, end, time.UTC)
	if err != nil {
		t.Fatalf("events in range: %v", err)
	}
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
	if occs[0].StartTime.Hour() != 9 {
		t.Errorf("occurrence starts at %v, want 09:00", occs[0].StartTime)
	}
}

func TestEventsInRangeAppliesOverrideAndException(t *testing.T) {
	s := NewEventStore(testDB(t))
	ctx := context.Background()

	event, err := s.Create(ctx, newEvent(model.RepeatDaily))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	// Move the March 11 occurrence, drop March 12 entirely.
	day11 := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	err = s.SaveOverride(ctx, &model.InstanceOverride{
		EventID:      event.ID,
		RecurrenceID: day11,
		Summary:      "Standup (moved)",
		StartTime:    day11.Add(2 * time.Hour),
		EndTime:      day11.Add(2*time.Hour + 30*time.Minute),
	})
	if err != nil {
		t.Fatalf("save override: %v", err)
	}
	day12 := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	if err := s.AddException(ctx, event.ID, day12); err != nil {
		t.Fatalf("add exception: %v", err)
	}
	// Duplicate exception is a no-op.
	if err := s.AddException(ctx, event.ID, day12); err != nil {
		t.Fatalf("re-add exception: %v", err)
	}

	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	occs, err := s.EventsInRange(ctx, 1, start, end, time.UTC)
	if err != nil {
		t.Fatalf("events in range: %v", err)
	}
	if len(occs) != 2 {
		t.Fatalf("got %d occurrences, want 2 (one overridden, one dropped)", len(occs))
	}

	var moved bool
	for _, o := range occs {
		if o.Summary == "Standup (moved)" {
			moved = true
			if !o.Overridden {
				t.Error("moved occurrence should be marked overridden")
			}
			if o.StartTime.Hour() != 11 {
				t.Errorf("moved occurrence starts at %v, want 11:00", o.StartTime)
			}
		}
	}
	if !moved {
		t.Error("override was not applied")
	}
}

func TestSaveOverrideUpserts(t *testing.T) {
	s := NewEventStore(testDB(t))
	ctx := context.Background()

	event, err := s.Create(ctx, newEvent(model.RepeatDaily))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	rid := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	o := &model.InstanceOverride{
		EventID: event.ID, RecurrenceID: rid,
		Summary: "First", StartTime: rid, EndTime: rid.Add(30 * time.Minute),
	}
	if err := s.SaveOverride(ctx, o); err != nil {
		t.Fatalf("save override: %v", err)
	}
	o.Summary = "Second"
	if err := s.SaveOverride(ctx, o); err != nil {
		t.Fatalf("save override again: %v", err)
	}

	overrides, _, err := s.Extras(ctx, event.ID)
	if err != nil {
		t.Fatalf("extras: %v", err)
	}
	if len(overrides) != 1 {
		t.Fatalf("got %d overrides, want 1", len(overrides))
	}
	if overrides[0].Summary != "Second" {
		t.Errorf("summary = %q, want %q", overrides[0].Summary, "Second")
	}
}

func TestEventDeleteCascadesExtras(t *testing.T) {
	s := NewEventStore(testDB(t))
	ctx := context.Background()

	event, err := s.Create(ctx, newEvent(model.RepeatDaily))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	rid := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	if err := s.AddException(ctx, event.ID, rid); err != nil {
		t.Fatalf("add exception: %v", err)
	}

	if err := s.Delete(ctx, 1, event.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	_, exceptions, err := s.Extras(ctx, event.ID)
	if err != nil {
		t.Fatalf("extras: %v", err)
	}
	if len(exceptions) != 0 {
		t.Errorf("got %d exceptions after delete, want 0", len(exceptions))
	}
}
