package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/timeblock"
)

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// GetOrCreateSchedule returns the user's schedule row for the date,
// inserting a fresh one (all refresh flags set) when none exists. The
// second result reports whether a row was created.
func (s *ScheduleStore) GetOrCreateSchedule(ctx context.Context, userID int64, date string) (*model.Schedule, bool, error) {
	sched, err := s.getByDate(ctx, userID, date)
	if err != nil {
		return nil, false, err
	}
	if sched != nil {
		return sched, false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedules (user_id, date) VALUES (?, ?)
		 ON CONFLICT (user_id, date) DO NOTHING`,
		userID, date,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert schedule: %w", err)
	}

	sched, err = s.getByDate(ctx, userID, date)
	if err != nil {
		return nil, false, err
	}
	if sched == nil {
		return nil, false, fmt.Errorf("schedule %s missing after insert", date)
	}
	return sched, true, nil
}

func (s *ScheduleStore) getByDate(ctx context.Context, userID int64, date string) (*model.Schedule, error) {
	var sched model.Schedule
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, timezone, needs_event_refresh, needs_habit_refresh, needs_sleep_refresh, needs_work_refresh, created_at, updated_at
		 FROM schedules WHERE user_id = ? AND date = ?`,
		userID, date,
	).Scan(&sched.ID, &sched.UserID, &sched.Date, &sched.Timezone,
		&sched.NeedsEventRefresh, &sched.NeedsHabitRefresh, &sched.NeedsSleepRefresh, &sched.NeedsWorkRefresh,
		&sched.CreatedAt, &sched.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}

	items, err := s.listItems(ctx, sched.ID)
	if err != nil {
		return nil, err
	}
	sched.Items = items
	return &sched, nil
}

func (s *ScheduleStore) listItems(ctx context.Context, scheduleID int64) ([]model.ScheduleItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, schedule_id, name, start_time, end_time, schedule_item_type, locked
		 FROM schedule_items WHERE schedule_id = ? ORDER BY start_time ASC, id ASC`,
		scheduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query schedule items: %w", err)
	}
	defer rows.Close()

	var items []model.ScheduleItem
	for rows.Next() {
		var it model.ScheduleItem
		var start, end string
		if err := rows.Scan(&it.ID, &it.ScheduleID, &it.Name, &start, &end, &it.Category, &it.Locked); err != nil {
			return nil, fmt.Errorf("scan schedule item: %w", err)
		}
		if it.StartTime, err = timeblock.Parse(start); err != nil {
			return nil, err
		}
		if it.EndTime, err = timeblock.Parse(end); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// PersistSchedule writes the schedule's flags, timezone and full item set
// in one transaction, replacing the stored items. Item IDs are reassigned
// on write; the caller's slice is updated in place.
func (s *ScheduleStore) PersistSchedule(ctx context.Context, sched *model.Schedule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE schedules
		 SET timezone = ?, needs_event_refresh = ?, needs_habit_refresh = ?, needs_sleep_refresh = ?, needs_work_refresh = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		sched.Timezone, sched.NeedsEventRefresh, sched.NeedsHabitRefresh, sched.NeedsSleepRefresh, sched.NeedsWorkRefresh, sched.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM schedule_items WHERE schedule_id = ?", sched.ID); err != nil {
		return fmt.Errorf("clear schedule items: %w", err)
	}
	for i := range sched.Items {
		it := &sched.Items[i]
		result, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_items (schedule_id, name, start_time, end_time, schedule_item_type, locked)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sched.ID, it.Name, it.StartTime.String(), it.EndTime.String(), it.Category, it.Locked,
		)
		if err != nil {
			return fmt.Errorf("insert schedule item: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		it.ID = id
		it.ScheduleID = sched.ID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// MarkDirty sets the refresh flag of each category on every schedule the
// user owns. Called when events, habits or preferences change.
func (s *ScheduleStore) MarkDirty(ctx context.Context, userID int64, categories ...model.ItemCategory) error {
	var cols []string
	for _, c := range categories {
		switch c {
		case model.CategoryEvent:
			cols = append(cols, "needs_event_refresh = 1")
		case model.CategoryHabit:
			cols = append(cols, "needs_habit_refresh = 1")
		case model.CategorySleep:
			cols = append(cols, "needs_sleep_refresh = 1")
		case model.CategoryFocusSession:
			cols = append(cols, "needs_work_refresh = 1")
		default:
			return fmt.Errorf("unknown item category %q", c)
		}
	}
	if len(cols) == 0 {
		return nil
	}

	query := "UPDATE schedules SET " + strings.Join(cols, ", ") + " WHERE user_id = ?"
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("mark schedules dirty: %w", err)
	}
	return nil
}

// DeleteOlderThan removes schedules dated strictly before cutoff
// ("2006-01-02"), returning the number removed. Items go with their
// schedule via the cascade.
func (s *ScheduleStore) DeleteOlderThan(ctx context.Context, cutoff string) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM schedules WHERE date < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old schedules: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
