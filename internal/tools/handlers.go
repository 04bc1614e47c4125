package tools

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/tasknest-ai/tasknest/internal/taskstore"
)

// Handlers run after schema validation, so the projections below only defend
// against values the schema cannot express (whitespace-only titles,
// non-integral floats from JSON decoding).

func (r *Registry) addTask(ctx context.Context, ownerID string, args map[string]any) (map[string]any, *Error) {
	title, terr := titleArg(args)
	if terr != nil {
		return nil, terr
	}

	task, err := r.store.Create(ctx, ownerID, title)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return map[string]any{
		"task_id": task.ID,
		"status":  "created",
		"title":   task.Title,
	}, nil
}

func (r *Registry) listTasks(ctx context.Context, ownerID string, _ map[string]any) (map[string]any, *Error) {
	tasks, err := r.store.List(ctx, ownerID)
	if err != nil {
		return nil, storeUnavailable(err)
	}

	items := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, map[string]any{
			"task_id":   t.ID,
			"title":     t.Title,
			"completed": t.Completed,
		})
	}
	return map[string]any{
		"tasks": items,
		"count": len(items),
	}, nil
}

func (r *Registry) completeTask(ctx context.Context, ownerID string, args map[string]any) (map[string]any, *Error) {
	id, terr := taskIDArg(args)
	if terr != nil {
		return nil, terr
	}

	// Completing an already-complete task succeeds with the same result.
	task, err := r.store.SetCompleted(ctx, ownerID, id, true)
	if errors.Is(err, taskstore.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return map[string]any{
		"task_id": task.ID,
		"status":  "completed",
		"title":   task.Title,
	}, nil
}

func (r *Registry) deleteTask(ctx context.Context, ownerID string, args map[string]any) (map[string]any, *Error) {
	id, terr := taskIDArg(args)
	if terr != nil {
		return nil, terr
	}

	task, err := r.store.Delete(ctx, ownerID, id)
	if errors.Is(err, taskstore.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return map[string]any{
		"task_id": task.ID,
		"status":  "deleted",
		"title":   task.Title,
	}, nil
}

func (r *Registry) updateTask(ctx context.Context, ownerID string, args map[string]any) (map[string]any, *Error) {
	id, terr := taskIDArg(args)
	if terr != nil {
		return nil, terr
	}
	title, terr := titleArg(args)
	if terr != nil {
		return nil, terr
	}

	task, err := r.store.UpdateTitle(ctx, ownerID, id, title)
	if errors.Is(err, taskstore.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return map[string]any{
		"task_id": task.ID,
		"status":  "updated",
		"title":   task.Title,
	}, nil
}

// titleArg projects the "title" argument into a trimmed non-empty string.
func titleArg(args map[string]any) (string, *Error) {
	raw, ok := args["title"].(string)
	if !ok {
		return "", invalidArgument("title must be a string")
	}
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", invalidArgument("title must not be empty")
	}
	return title, nil
}

// taskIDArg projects the "task_id" argument into an int64. JSON decoding
// delivers numbers as float64; anything non-integral is rejected.
func taskIDArg(args map[string]any) (int64, *Error) {
	switch v := args["task_id"].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, invalidArgument("task_id must be an integer")
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, invalidArgument("task_id must be an integer")
	}
}
