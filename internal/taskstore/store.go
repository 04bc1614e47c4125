package taskstore

import (
	"context"
	"errors"
	"time"
)

// Task represents a single to-do item owned by exactly one user.
type Task struct {
	ID        int64
	OwnerID   string
	Title     string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrNotFound is returned when no task with the given id exists for the owner.
// Lookups never distinguish "absent" from "owned by someone else".
var ErrNotFound = errors.New("task not found")

// Store provides owner-scoped task persistence. Every operation is filtered by
// ownerID so a caller can only ever read or mutate their own rows. Writes must
// be visible to subsequent List calls within the same process (read-your-writes).
type Store interface {
	// Create inserts a new incomplete task and returns it with its assigned id.
	Create(ctx context.Context, ownerID, title string) (*Task, error)

	// List returns all of the owner's tasks ordered by creation time ascending.
	List(ctx context.Context, ownerID string) ([]*Task, error)

	// Get returns a single task by id.
	Get(ctx context.Context, ownerID string, id int64) (*Task, error)

	// SetCompleted sets the completion flag. Setting an already-set flag is not
	// an error; the task is returned in its resulting state.
	SetCompleted(ctx context.Context, ownerID string, id int64, completed bool) (*Task, error)

	// UpdateTitle replaces the task's title.
	UpdateTitle(ctx context.Context, ownerID string, id int64, title string) (*Task, error)

	// Update applies the non-nil fields in a single statement, so a caller
	// setting both never commits one field and fails the other.
	Update(ctx context.Context, ownerID string, id int64, title *string, completed *bool) (*Task, error)

	// Delete removes the task. Deleting an already-deleted id returns ErrNotFound.
	Delete(ctx context.Context, ownerID string, id int64) (*Task, error)
}
