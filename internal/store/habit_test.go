package store

import (
	"context"
	"testing"

	"github.com/mholloway/daybreak/internal/model"
)

func TestHabitCreateAndList(t *testing.T) {
	s := NewHabitStore(testDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, &model.Habit{
		UserID: 1, Name: "meditate", Frequency: 1, Duration: 15,
		RepeatInterval: model.IntervalDaily, Morning: true,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	_, err = s.Create(ctx, &model.Habit{
		UserID: 1, Name: "gym", Frequency: 3, Duration: 60,
		RepeatInterval: model.IntervalWeekly, Evening: true,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	all, err := s.ListHabits(ctx, 1, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d habits, want 2", len(all))
	}
	if all[0].Name != "gym" {
		t.Errorf("first habit = %q, want name order", all[0].Name)
	}

	daily, err := s.ListHabits(ctx, 1, model.IntervalDaily)
	if err != nil {
		t.Fatalf("list daily: %v", err)
	}
	if len(daily) != 1 || daily[0].Name != "meditate" {
		t.Errorf("daily filter returned %v", daily)
	}
	if !daily[0].Morning || daily[0].Evening {
		t.Error("time-of-day flags did not round-trip")
	}
}

func TestHabitUpdateAndDelete(t *testing.T) {
	s := NewHabitStore(testDB(t))
	ctx := context.Background()

	h, err := s.Create(ctx, &model.Habit{
		UserID: 1, Name: "read", Frequency: 1, Duration: 30, RepeatInterval: model.IntervalDaily,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	h.Duration = 45
	h.Night = true
	updated, err := s.Update(ctx, h)
	if err != nil {
		t.Fatalf("update habit: %v", err)
	}
	if updated.Duration != 45 || !updated.Night {
		t.Errorf("update did not stick: %+v", updated)
	}

	if err := s.Delete(ctx, 1, h.ID); err != nil {
		t.Fatalf("delete habit: %v", err)
	}
	got, err := s.GetByID(ctx, 1, h.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestRecordCompletionIncrements(t *testing.T) {
	s := NewHabitStore(testDB(t))
	ctx := context.Background()

	h, err := s.Create(ctx, &model.Habit{
		UserID: 1, Name: "stretch", Frequency: 2, Duration: 10, RepeatInterval: model.IntervalDaily,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	c, err := s.RecordCompletion(ctx, h.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("record completion: %v", err)
	}
	if c.Count != 1 {
		t.Errorf("count = %d, want 1", c.Count)
	}
	c, err = s.RecordCompletion(ctx, h.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("second completion: %v", err)
	}
	if c.Count != 2 {
		t.Errorf("count = %d, want 2", c.Count)
	}

	list, err := s.ListCompletions(ctx, h.ID, "2026-03-01", "2026-03-07")
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d completion rows, want 1", len(list))
	}
}

func TestCompletionsCascadeWithHabit(t *testing.T) {
	s := NewHabitStore(testDB(t))
	ctx := context.Background()

	h, err := s.Create(ctx, &model.Habit{
		UserID: 1, Name: "journal", Frequency: 1, Duration: 15, RepeatInterval: model.IntervalDaily,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, err := s.RecordCompletion(ctx, h.ID, "2026-03-02"); err != nil {
		t.Fatalf("record completion: %v", err)
	}

	if err := s.Delete(ctx, 1, h.ID); err != nil {
		t.Fatalf("delete habit: %v", err)
	}
	list, err := s.ListCompletions(ctx, h.ID, "2026-01-01", "2026-12-31")
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d completions after habit delete, want 0", len(list))
	}
}
