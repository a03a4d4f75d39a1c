package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/timeblock"
)

type PreferenceStore struct {
	db *sql.DB
}

func NewPreferenceStore(db *sql.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// GetPreference returns the user's preference row with its focus times,
// or nil when the user has never saved one.
func (s *PreferenceStore) GetPreference(ctx context.Context, userID int64) (*model.Preference, error) {
	var p model.Preference
	var wake, sleep, workStart, workEnd sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, wake_up_time, sleep_time, start_of_work_day, end_of_work_day, break_length, created_at, updated_at
		 FROM preferences WHERE user_id = ?`,
		userID,
	).Scan(&p.ID, &p.UserID, &wake, &sleep, &workStart, &workEnd, &p.BreakMinutes, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preference: %w", err)
	}

	if p.WakeTime, err = parseNullTime(wake); err != nil {
		return nil, err
	}
	if p.SleepTime, err = parseNullTime(sleep); err != nil {
		return nil, err
	}
	if p.WorkdayStart, err = parseNullTime(workStart); err != nil {
		return nil, err
	}
	if p.WorkdayEnd, err = parseNullTime(workEnd); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_time, end_time, sort_order
		 FROM focus_times WHERE preference_id = ? ORDER BY sort_order ASC, id ASC`,
		p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query focus times: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ft model.FocusTime
		var start, end string
		if err := rows.Scan(&ft.ID, &start, &end, &ft.SortOrder); err != nil {
			return nil, fmt.Errorf("scan focus time: %w", err)
		}
		if ft.StartTime, err = timeblock.Parse(start); err != nil {
			return nil, err
		}
		if ft.EndTime, err = timeblock.Parse(end); err != nil {
			return nil, err
		}
		p.BestFocusTimes = append(p.BestFocusTimes, ft)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save upserts the user's preference row and replaces its focus times.
func (s *PreferenceStore) Save(ctx context.Context, p *model.Preference) (*model.Preference, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO preferences (user_id, wake_up_time, sleep_time, start_of_work_day, end_of_work_day, break_length)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE
		 SET wake_up_time = excluded.wake_up_time, sleep_time = excluded.sleep_time,
		     start_of_work_day = excluded.start_of_work_day, end_of_work_day = excluded.end_of_work_day,
		     break_length = excluded.break_length, updated_at = CURRENT_TIMESTAMP`,
		p.UserID, formatNullTime(p.WakeTime), formatNullTime(p.SleepTime),
		formatNullTime(p.WorkdayStart), formatNullTime(p.WorkdayEnd), p.BreakMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert preference: %w", err)
	}

	var prefID int64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM preferences WHERE user_id = ?", p.UserID).Scan(&prefID); err != nil {
		return nil, fmt.Errorf("query preference id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM focus_times WHERE preference_id = ?", prefID); err != nil {
		return nil, fmt.Errorf("clear focus times: %w", err)
	}
	for i, ft := range p.BestFocusTimes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO focus_times (preference_id, start_time, end_time, sort_order) VALUES (?, ?, ?, ?)`,
			prefID, ft.StartTime.String(), ft.EndTime.String(), i,
		)
		if err != nil {
			return nil, fmt.Errorf("insert focus time: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetPreference(ctx, p.UserID)
}

func parseNullTime(v sql.NullString) (*timeblock.TimeOfDay, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := timeblock.Parse(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatNullTime(t *timeblock.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}
