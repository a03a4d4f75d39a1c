package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mholloway/daybreak/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) Create(ctx context.Context, t *model.Task) (*model.Task, error) {
	var deadline sql.NullTime
	if t.Deadline != nil {
		deadline = sql.NullTime{Time: t.Deadline.UTC(), Valid: true}
	}
	var tagID sql.NullInt64
	if t.TagID != nil {
		tagID = sql.NullInt64{Int64: *t.TagID, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, name, description, deadline, done, tag_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Name, t.Description, deadline, t.Done, tagID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, t.UserID, id)
}

func (s *TaskStore) GetByID(ctx context.Context, userID, id int64) (*model.Task, error) {
	var t model.Task
	var deadline sql.NullTime
	var tagID sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, deadline, done, tag_id, created_at, updated_at
		 FROM tasks WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &deadline, &t.Done, &tagID, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}

	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	if tagID.Valid {
		t.TagID = &tagID.Int64
	}
	return &t, nil
}

// ListByUser returns the user's tasks, open ones first, then by nearest
// deadline.
func (s *TaskStore) ListByUser(ctx context.Context, userID int64) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, description, deadline, done, tag_id, created_at, updated_at
		 FROM tasks WHERE user_id = ?
		 ORDER BY done ASC, deadline IS NULL, deadline ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var deadline sql.NullTime
		var tagID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &deadline, &t.Done, &tagID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if deadline.Valid {
			d := deadline.Time
			t.Deadline = &d
		}
		if tagID.Valid {
			t.TagID = &tagID.Int64
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(ctx context.Context, t *model.Task) (*model.Task, error) {
	var deadline sql.NullTime
	if t.Deadline != nil {
		deadline = sql.NullTime{Time: t.Deadline.UTC(), Valid: true}
	}
	var tagID sql.NullInt64
	if t.TagID != nil {
		tagID = sql.NullInt64{Int64: *t.TagID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks
		 SET name = ?, description = ?, deadline = ?, done = ?, tag_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		t.Name, t.Description, deadline, t.Done, tagID, t.ID, t.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(ctx, t.UserID, t.ID)
}

func (s *TaskStore) Delete(ctx context.Context, userID, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
