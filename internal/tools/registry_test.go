package tools

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/tasknest-ai/tasknest/internal/llm"
	"github.com/tasknest-ai/tasknest/internal/taskstore"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(taskstore.NewMemoryStore(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRegistry_Defs(t *testing.T) {
	r := newTestRegistry(t)
	defs := r.Defs()
	if len(defs) != 5 {
		t.Fatalf("expected 5 tools, got %d", len(defs))
	}
	want := []string{"add_task", "list_tasks", "complete_task", "delete_task", "update_task"}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("defs[%d] = %q, want %q", i, defs[i].Name, name)
		}
	}
}

func TestRegistry_AddThenList(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	result, terr := r.Execute(ctx, "user-a", llm.Proposal{
		Name:      "add_task",
		Arguments: map[string]any{"title": "buy milk"},
	})
	if terr != nil {
		t.Fatal(terr)
	}
	if result["status"] != "created" || result["title"] != "buy milk" {
		t.Errorf("result = %v", result)
	}

	listed, terr := r.Execute(ctx, "user-a", llm.Proposal{Name: "list_tasks", Arguments: map[string]any{}})
	if terr != nil {
		t.Fatal(terr)
	}
	tasks := listed["tasks"].([]map[string]any)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0]["title"] != "buy milk" || tasks[0]["completed"] != false {
		t.Errorf("listed task = %v", tasks[0])
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := newTestRegistry(t)
	_, terr := r.Execute(context.Background(), "user-a", llm.Proposal{Name: "drop_database"})
	if terr == nil || terr.Kind != KindUnknownTool {
		t.Errorf("got %v, want UnknownTool", terr)
	}
}

func TestRegistry_InvalidArguments(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		proposal llm.Proposal
	}{
		{"missing title", llm.Proposal{Name: "add_task", Arguments: map[string]any{}}},
		{"blank title", llm.Proposal{Name: "add_task", Arguments: map[string]any{"title": "   "}}},
		{"title wrong type", llm.Proposal{Name: "add_task", Arguments: map[string]any{"title": 42}}},
		{"missing task_id", llm.Proposal{Name: "complete_task", Arguments: map[string]any{}}},
		{"task_id wrong type", llm.Proposal{Name: "delete_task", Arguments: map[string]any{"task_id": "seven"}}},
		{"task_id fractional", llm.Proposal{Name: "complete_task", Arguments: map[string]any{"task_id": 1.5}}},
		{"nil arguments", llm.Proposal{Name: "add_task"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, terr := r.Execute(ctx, "user-a", tc.proposal)
			if terr == nil || terr.Kind != KindInvalidArgument {
				t.Errorf("got %v, want InvalidArgument", terr)
			}
		})
	}
}

func TestRegistry_CompleteIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	created, _ := r.Execute(ctx, "user-a", llm.Proposal{
		Name:      "add_task",
		Arguments: map[string]any{"title": "buy milk"},
	})
	id := float64(created["task_id"].(int64))

	for i := 0; i < 2; i++ {
		result, terr := r.Execute(ctx, "user-a", llm.Proposal{
			Name:      "complete_task",
			Arguments: map[string]any{"task_id": id},
		})
		if terr != nil {
			t.Fatalf("complete call %d: %v", i+1, terr)
		}
		if result["status"] != "completed" {
			t.Errorf("complete call %d: status = %v", i+1, result["status"])
		}
	}
}

func TestRegistry_DeleteNotIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	created, _ := r.Execute(ctx, "user-a", llm.Proposal{
		Name:      "add_task",
		Arguments: map[string]any{"title": "buy milk"},
	})
	id := float64(created["task_id"].(int64))

	if _, terr := r.Execute(ctx, "user-a", llm.Proposal{
		Name:      "delete_task",
		Arguments: map[string]any{"task_id": id},
	}); terr != nil {
		t.Fatal(terr)
	}
	_, terr := r.Execute(ctx, "user-a", llm.Proposal{
		Name:      "delete_task",
		Arguments: map[string]any{"task_id": id},
	})
	if terr == nil || terr.Kind != KindNotFound {
		t.Errorf("second delete: got %v, want NotFound", terr)
	}
}

func TestRegistry_OwnershipIsolation(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	created, _ := r.Execute(ctx, "user-b", llm.Proposal{
		Name:      "add_task",
		Arguments: map[string]any{"title": "b's task"},
	})
	id := float64(created["task_id"].(int64))

	// user-a cannot touch user-b's task even with the right id.
	for _, name := range []string{"complete_task", "delete_task"} {
		_, terr := r.Execute(ctx, "user-a", llm.Proposal{
			Name:      name,
			Arguments: map[string]any{"task_id": id},
		})
		if terr == nil || terr.Kind != KindNotFound {
			t.Errorf("%s across owners: got %v, want NotFound", name, terr)
		}
	}

	listed, _ := r.Execute(ctx, "user-a", llm.Proposal{Name: "list_tasks", Arguments: map[string]any{}})
	if listed["count"] != 0 {
		t.Errorf("user-a sees %v of user-b's tasks", listed["count"])
	}
}

func TestRegistry_UpdateTask(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	created, _ := r.Execute(ctx, "user-a", llm.Proposal{
		Name:      "add_task",
		Arguments: map[string]any{"title": "buy milk"},
	})
	id := float64(created["task_id"].(int64))

	result, terr := r.Execute(ctx, "user-a", llm.Proposal{
		Name:      "update_task",
		Arguments: map[string]any{"task_id": id, "title": "buy oat milk"},
	})
	if terr != nil {
		t.Fatal(terr)
	}
	if result["status"] != "updated" || result["title"] != "buy oat milk" {
		t.Errorf("result = %v", result)
	}

	_, terr = r.Execute(ctx, "user-a", llm.Proposal{
		Name:      "update_task",
		Arguments: map[string]any{"task_id": float64(999), "title": "nope"},
	})
	if terr == nil || terr.Kind != KindNotFound {
		t.Errorf("update missing id: got %v, want NotFound", terr)
	}
}
