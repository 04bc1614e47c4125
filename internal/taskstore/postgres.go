package taskstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists tasks in the tasks table. Each statement is a single
// owner-scoped read-modify-write, so concurrent mutations of the same row
// serialize at the database rather than in this process.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, ownerID, title string) (*Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (owner_id, title)
		VALUES ($1, $2)
		RETURNING id, owner_id, title, completed, created_at, updated_at`,
		ownerID, title,
	).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) List(ctx context.Context, ownerID string) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, completed, created_at, updated_at
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStore) Get(ctx context.Context, ownerID string, id int64) (*Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, completed, created_at, updated_at
		FROM tasks
		WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) SetCompleted(ctx context.Context, ownerID string, id int64, completed bool) (*Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET completed = $3, updated_at = now()
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, title, completed, created_at, updated_at`,
		ownerID, id, completed,
	).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("SetCompleted: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) UpdateTitle(ctx context.Context, ownerID string, id int64, title string) (*Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET title = $3, updated_at = now()
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, title, completed, created_at, updated_at`,
		ownerID, id, title,
	).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateTitle: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) Update(ctx context.Context, ownerID string, id int64, title *string, completed *bool) (*Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET title = COALESCE($3::text, title),
		    completed = COALESCE($4::boolean, completed),
		    updated_at = now()
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, title, completed, created_at, updated_at`,
		ownerID, id, title, completed,
	).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID string, id int64) (*Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM tasks
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, title, completed, created_at, updated_at`,
		ownerID, id,
	).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Delete: %w", err)
	}
	return &t, nil
}
