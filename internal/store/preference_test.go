package store

import (
	"context"
	"testing"

	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/timeblock"
)

func TestGetPreferenceUnset(t *testing.T) {
	s := NewPreferenceStore(testDB(t))

	got, err := s.GetPreference(context.Background(), 1)
	if err != nil {
		t.Fatalf("get preference: %v", err)
	}
	if got != nil {
		t.Error("expected nil for a user with no preference")
	}
}

func TestPreferenceSaveRoundTrip(t *testing.T) {
	s := NewPreferenceStore(testDB(t))
	ctx := context.Background()

	wake := timeblock.New(7, 0, 0)
	sleep := timeblock.New(23, 0, 0)
	p := &model.Preference{
		UserID:       1,
		WakeTime:     &wake,
		SleepTime:    &sleep,
		BreakMinutes: 20,
		BestFocusTimes: []model.FocusTime{
			{StartTime: timeblock.New(9, 0, 0), EndTime: timeblock.New(11, 0, 0)},
			{StartTime: timeblock.New(14, 0, 0), EndTime: timeblock.New(16, 0, 0)},
		},
	}

	saved, err := s.Save(ctx, p)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.WakeTime == nil || *saved.WakeTime != wake {
		t.Errorf("wake time = %v, want %s", saved.WakeTime, wake)
	}
	if saved.WorkdayStart != nil {
		t.Errorf("workday start should be nil, got %v", *saved.WorkdayStart)
	}
	if saved.BreakMinutes != 20 {
		t.Errorf("break minutes = %d, want 20", saved.BreakMinutes)
	}
	if len(saved.BestFocusTimes) != 2 {
		t.Fatalf("got %d focus times, want 2", len(saved.BestFocusTimes))
	}
	if saved.BestFocusTimes[0].StartTime != timeblock.New(9, 0, 0) {
		t.Errorf("first focus time starts at %s, want 09:00:00", saved.BestFocusTimes[0].StartTime)
	}
}

func TestPreferenceSaveUpserts(t *testing.T) {
	s := NewPreferenceStore(testDB(t))
	ctx := context.Background()

	wake := timeblock.New(7, 0, 0)
	if _, err := s.Save(ctx, &model.Preference{UserID: 1, WakeTime: &wake, BreakMinutes: 15}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	later := timeblock.New(8, 30, 0)
	updated, err := s.Save(ctx, &model.Preference{
		UserID:         1,
		WakeTime:       &later,
		BreakMinutes:   10,
		BestFocusTimes: []model.FocusTime{{StartTime: timeblock.New(10, 0, 0), EndTime: timeblock.New(12, 0, 0)}},
	})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if *updated.WakeTime != later {
		t.Errorf("wake time = %s, want 08:30:00", updated.WakeTime)
	}
	if updated.BreakMinutes != 10 {
		t.Errorf("break minutes = %d, want 10", updated.BreakMinutes)
	}
	if len(updated.BestFocusTimes) != 1 {
		t.Errorf("got %d focus times, want 1 (old list replaced)", len(updated.BestFocusTimes))
	}
}
