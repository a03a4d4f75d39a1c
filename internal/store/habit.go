package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mholloway/daybreak/internal/model"
)

type HabitStore struct {
	db *sql.DB
}

func NewHabitStore(db *sql.DB) *HabitStore {
	return &HabitStore{db: db}
}

func (s *HabitStore) Create(ctx context.Context, h *model.Habit) (*model.Habit, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO habits (user_id, name, frequency, duration, repeat_interval, morning, afternoon, evening, night)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.UserID, h.Name, h.Frequency, h.Duration, h.RepeatInterval, h.Morning, h.Afternoon, h.Evening, h.Night,
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, h.UserID, id)
}

func (s *HabitStore) GetByID(ctx context.Context, userID, id int64) (*model.Habit, error) {
	var h model.Habit
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, frequency, duration, repeat_interval, morning, afternoon, evening, night, created_at, updated_at
		 FROM habits WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&h.ID, &h.UserID, &h.Name, &h.Frequency, &h.Duration, &h.RepeatInterval,
		&h.Morning, &h.Afternoon, &h.Evening, &h.Night, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query habit: %w", err)
	}
	return &h, nil
}

// ListHabits returns the user's habits, optionally filtered by repeat
// interval (empty means all), ordered by name for stable planning input.
func (s *HabitStore) ListHabits(ctx context.Context, userID int64, interval model.RepeatInterval) ([]model.Habit, error) {
	query := `SELECT id, user_id, name, frequency, duration, repeat_interval, morning, afternoon, evening, night, created_at, updated_at
		 FROM habits WHERE user_id = ?`
	args := []any{userID}
	if interval != "" {
		query += " AND repeat_interval = ?"
		args = append(args, interval)
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Frequency, &h.Duration, &h.RepeatInterval,
			&h.Morning, &h.Afternoon, &h.Evening, &h.Night, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *HabitStore) Update(ctx context.Context, h *model.Habit) (*model.Habit, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE habits
		 SET name = ?, frequency = ?, duration = ?, repeat_interval = ?, morning = ?, afternoon = ?, evening = ?, night = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		h.Name, h.Frequency, h.Duration, h.RepeatInterval, h.Morning, h.Afternoon, h.Evening, h.Night, h.ID, h.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return s.GetByID(ctx, h.UserID, h.ID)
}

func (s *HabitStore) Delete(ctx context.Context, userID, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM habits WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

// RecordCompletion increments the habit's completion count for the date
// ("2006-01-02"), creating the row on first completion.
func (s *HabitStore) RecordCompletion(ctx context.Context, habitID int64, date string) (*model.HabitCompletion, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO habit_completions (habit_id, completion_date, count) VALUES (?, ?, 1)
		 ON CONFLICT (habit_id, completion_date) DO UPDATE SET count = count + 1`,
		habitID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("record completion: %w", err)
	}

	var c model.HabitCompletion
	err = s.db.QueryRowContext(ctx,
		`SELECT id, habit_id, completion_date, count, created_at
		 FROM habit_completions WHERE habit_id = ? AND completion_date = ?`,
		habitID, date,
	).Scan(&c.ID, &c.HabitID, &c.CompletionDate, &c.Count, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query completion: %w", err)
	}
	return &c, nil
}

// ListCompletions returns the habit's completions within [from, to],
// both "2006-01-02" inclusive.
func (s *HabitStore) ListCompletions(ctx context.Context, habitID int64, from, to string) ([]model.HabitCompletion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, habit_id, completion_date, count, created_at
		 FROM habit_completions
		 WHERE habit_id = ? AND completion_date >= ? AND completion_date <= ?
		 ORDER BY completion_date ASC`,
		habitID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	var completions []model.HabitCompletion
	for rows.Next() {
		var c model.HabitCompletion
		if err := rows.Scan(&c.ID, &c.HabitID, &c.CompletionDate, &c.Count, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}
