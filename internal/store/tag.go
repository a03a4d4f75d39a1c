package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mholloway/daybreak/internal/model"
)

type TagStore struct {
	db *sql.DB
}

func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func (s *TagStore) Create(ctx context.Context, userID int64, name string, colour model.TagColour) (*model.Tag, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO tags (user_id, name, colour) VALUES (?, ?, ?)",
		userID, name, colour,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, userID, id)
}

func (s *TagStore) GetByID(ctx context.Context, userID, id int64) (*model.Tag, error) {
	var t model.Tag
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, colour, created_at, updated_at
		 FROM tags WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Colour, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query tag: %w", err)
	}
	return &t, nil
}

func (s *TagStore) ListByUser(ctx context.Context, userID int64) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, colour, created_at, updated_at
		 FROM tags WHERE user_id = ? ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Colour, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *TagStore) Update(ctx context.Context, userID, id int64, name string, colour model.TagColour) (*model.Tag, error) {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tags SET name = ?, colour = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?",
		name, colour, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return s.GetByID(ctx, userID, id)
}

// Delete removes the tag; tasks referencing it fall back to untagged via
// the foreign key.
func (s *TagStore) Delete(ctx context.Context, userID, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}
