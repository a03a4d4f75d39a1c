package store

import (
	"context"
	"testing"

	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/timeblock"
)

func TestGetOrCreateSchedule(t *testing.T) {
	s := NewScheduleStore(testDB(t))
	ctx := context.Background()

	sched, created, err := s.GetOrCreateSchedule(ctx, 1, "2026-03-02")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if !created {
		t.Error("first call should create the schedule")
	}
	if !sched.NeedsEventRefresh || !sched.NeedsHabitRefresh || !sched.NeedsSleepRefresh || !sched.NeedsWorkRefresh {
		t.Error("a fresh schedule should start with all refresh flags set")
	}
	if sched.Timezone != "" {
		t.Errorf("fresh schedule timezone = %q, want empty", sched.Timezone)
	}

	again, created, err := s.GetOrCreateSchedule(ctx, 1, "2026-03-02")
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if created {
		t.Error("second call should not create")
	}
	if again.ID != sched.ID {
		t.Errorf("second call returned id %d, want %d", again.ID, sched.ID)
	}
}

func TestPersistScheduleReplacesItems(t *testing.T) {
	s := NewScheduleStore(testDB(t))
	ctx := context.Background()

	sched, _, err := s.GetOrCreateSchedule(ctx, 1, "2026-03-02")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	sched.Timezone = "UTC"
	sched.NeedsSleepRefresh = false
	sched.Items = []model.ScheduleItem{
		{Name: "Sleep", StartTime: timeblock.New(0, 0, 0), EndTime: timeblock.New(7, 0, 0), Category: model.CategorySleep},
		{Name: "Work session", StartTime: timeblock.New(9, 0, 0), EndTime: timeblock.New(10, 0, 0), Category: model.CategoryFocusSession, Locked: true},
	}
	if err := s.PersistSchedule(ctx, sched); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if sched.Items[0].ID == 0 || sched.Items[1].ID == 0 {
		t.Error("persist should assign item IDs")
	}

	got, _, err := s.GetOrCreateSchedule(ctx, 1, "2026-03-02")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", got.Timezone)
	}
	if got.NeedsSleepRefresh {
		t.Error("sleep flag should persist as cleared")
	}
	if len(got.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(got.Items))
	}
	if got.Items[0].StartTime != timeblock.New(0, 0, 0) {
		t.Errorf("first item starts at %s, want 00:00:00", got.Items[0].StartTime)
	}
	if !got.Items[1].Locked {
		t.Error("locked flag should round-trip")
	}

	// A second persist with fewer items replaces, not appends.
	got.Items = got.Items[:1]
	if err := s.PersistSchedule(ctx, got); err != nil {
		t.Fatalf("second persist: %v", err)
	}
	final, _, err := s.GetOrCreateSchedule(ctx, 1, "2026-03-02")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(final.Items) != 1 {
		t.Errorf("got %d items after replace, want 1", len(final.Items))
	}
}

func TestMarkDirty(t *testing.T) {
	s := NewScheduleStore(testDB(t))
	ctx := context.Background()

	sched, _, err := s.GetOrCreateSchedule(ctx, 1, "2026-03-02")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	sched.NeedsEventRefresh = false
	sched.NeedsHabitRefresh = false
	sched.NeedsSleepRefresh = false
	sched.NeedsWorkRefresh = false
	if err := s.PersistSchedule(ctx, sched); err != nil {
		t.Fatalf("persist: %v", err)
	}

	// Another user's schedule stays clean.
	other, _, err := s.GetOrCreateSchedule(ctx, 2, "2026-03-02")
	if err != nil {
		t.Fatalf("get or create other user: %v", err)
	}
	other.NeedsHabitRefresh = false
	if err := s.PersistSchedule(ctx, other); err != nil {
		t.Fatalf("persist other: %v", err)
	}

	if err := s.MarkDirty(ctx, 1, model.CategoryHabit, model.CategoryFocusSession); err != nil {
		t.Fatalf("mark dirty: %v", err)
	}

	got, _, err := s.GetOrCreateSchedule(ctx, 1, "2026-03-02")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.NeedsHabitRefresh || !got.NeedsWorkRefresh {
		t.Error("habit and work flags should be set")
	}
	if got.NeedsEventRefresh || got.NeedsSleepRefresh {
		t.Error("event and sleep flags should stay cleared")
	}

	otherGot, _, err := s.GetOrCreateSchedule(ctx, 2, "2026-03-02")
	if err != nil {
		t.Fatalf("reload other: %v", err)
	}
	if otherGot.NeedsHabitRefresh {
		t.Error("another user's schedule should not be marked dirty")
	}
}

func TestDeleteOlderThan(t *testing.T) {
	s := NewScheduleStore(testDB(t))
	ctx := context.Background()

	for _, date := range []string{"2026-02-01", "2026-02-15", "2026-03-02"} {
		if _, _, err := s.GetOrCreateSchedule(ctx, 1, date); err != nil {
			t.Fatalf("get or create %s: %v", date, err)
		}
	}

	n, err := s.DeleteOlderThan(ctx, "2026-03-01")
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d schedules, want 2", n)
	}

	_, created, err := s.GetOrCreateSchedule(ctx, 1, "2026-03-02")
	if err != nil {
		t.Fatalf("reload survivor: %v", err)
	}
	if created {
		t.Error("schedule on the cutoff boundary should survive")
	}
}
