package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mholloway/daybreak/internal/model"
	"github.com/mholloway/daybreak/internal/recurrence"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	var until sql.NullTime
	if e.Until != nil {
		until = sql.NullTime{Time: e.Until.UTC(), Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO events (user_id, summary, start_time, end_time, repeat_rule, until, description, location)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Summary, e.StartTime.UTC(), e.EndTime.UTC(), e.RepeatRule, until, e.Description, e.Location,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, e.UserID, id)
}

func (s *EventStore) GetByID(ctx context.Context, userID, id int64) (*model.Event, error) {
	var e model.Event
	var until sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, summary, start_time, end_time, repeat_rule, until, description, location, created_at, updated_at
		 FROM events WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&e.ID, &e.UserID, &e.Summary, &e.StartTime, &e.EndTime, &e.RepeatRule, &until, &e.Description, &e.Location, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}

	if until.Valid {
		t := until.Time
		e.Until = &t
	}
	return &e, nil
}

func (s *EventStore) ListByUser(ctx context.Context, userID int64) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, summary, start_time, end_time, repeat_rule, until, description, location, created_at, updated_at
		 FROM events WHERE user_id = ? ORDER BY start_time ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var until sql.NullTime
		if err := rows.Scan(&e.ID, &e.UserID, &e.Summary, &e.StartTime, &e.EndTime, &e.RepeatRule, &until, &e.Description, &e.Location, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if until.Valid {
			t := until.Time
			e.Until = &t
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(ctx context.Context, e *model.Event) (*model.Event, error) {
	var until sql.NullTime
	if e.Until != nil {
		until = sql.NullTime{Time: e.Until.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE events
		 SET summary = ?, start_time = ?, end_time = ?, repeat_rule = ?, until = ?, description = ?, location = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		e.Summary, e.StartTime.UTC(), e.EndTime.UTC(), e.RepeatRule, until, e.Description, e.Location, e.ID, e.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	return s.GetByID(ctx, e.UserID, e.ID)
}

func (s *EventStore) Delete(ctx context.Context, userID, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// SaveOverride upserts the replacement for one occurrence, keyed by
// (event_id, recurrence_id).
func (s *EventStore) SaveOverride(ctx context.Context, o *model.InstanceOverride) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_overrides (event_id, recurrence_id, summary, start_time, end_time, description, location)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (event_id, recurrence_id) DO UPDATE
		 SET summary = excluded.summary, start_time = excluded.start_time, end_time = excluded.end_time,
		     description = excluded.description, location = excluded.location`,
		o.EventID, o.RecurrenceID.UTC(), o.Summary, o.StartTime.UTC(), o.EndTime.UTC(), o.Description, o.Location,
	)
	if err != nil {
		return fmt.Errorf("save override: %w", err)
	}
	return nil
}

// AddException suppresses one occurrence, identified by the start instant
// it would have had. Re-adding an existing exception is a no-op.
func (s *EventStore) AddException(ctx context.Context, eventID int64, startTime time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exception_dates (event_id, start_time) VALUES (?, ?)
		 ON CONFLICT (event_id, start_time) DO NOTHING`,
		eventID, startTime.UTC(),
	)
	if err != nil {
		return fmt.Errorf("add exception: %w", err)
	}
	return nil
}

func (s *EventStore) listOverrides(ctx context.Context, eventIDs []int64) ([]model.InstanceOverride, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, event_id, recurrence_id, summary, start_time, end_time, description, location
		 FROM event_overrides WHERE event_id IN (` + placeholders(len(eventIDs)) + `)`
	rows, err := s.db.QueryContext(ctx, query, int64Args(eventIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	var overrides []model.InstanceOverride
	for rows.Next() {
		var o model.InstanceOverride
		if err := rows.Scan(&o.ID, &o.EventID, &o.RecurrenceID, &o.Summary, &o.StartTime, &o.EndTime, &o.Description, &o.Location); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

func (s *EventStore) listExceptions(ctx context.Context, eventIDs []int64) ([]model.ExceptionDate, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, event_id, start_time
		 FROM exception_dates WHERE event_id IN (` + placeholders(len(eventIDs)) + `)`
	rows, err := s.db.QueryContext(ctx, query, int64Args(eventIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []model.ExceptionDate
	for rows.Next() {
		var e model.ExceptionDate
		if err := rows.Scan(&e.ID, &e.EventID, &e.StartTime); err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, rows.Err()
}

// Extras returns the overrides and exceptions attached to an event, for
// instance classification when editing a single occurrence.
func (s *EventStore) Extras(ctx context.Context, eventID int64) ([]model.InstanceOverride, []model.ExceptionDate, error) {
	overrides, err := s.listOverrides(ctx, []int64{eventID})
	if err != nil {
		return nil, nil, err
	}
	exceptions, err := s.listExceptions(ctx, []int64{eventID})
	if err != nil {
		return nil, nil, err
	}
	return overrides, exceptions, nil
}

// EventsInRange expands the user's events into the concrete occurrences
// intersecting [start, end), converted to loc.
func (s *EventStore) EventsInRange(ctx context.Context, userID int64, start, end time.Time, loc *time.Location) ([]recurrence.Occurrence, error) {
	events, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	overrides, err := s.listOverrides(ctx, ids)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.listExceptions(ctx, ids)
	if err != nil {
		return nil, err
	}

	return recurrence.Expand(events, overrides, exceptions, start, end, loc), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
