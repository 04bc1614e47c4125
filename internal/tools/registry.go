package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/tasknest-ai/tasknest/internal/llm"
	"github.com/tasknest-ai/tasknest/internal/taskstore"
)

// handlerFunc executes one validated tool call against the task store.
// Arguments have already passed schema validation when a handler runs.
type handlerFunc func(ctx context.Context, ownerID string, args map[string]any) (map[string]any, *Error)

// tool binds a name to its argument schema and handler.
type tool struct {
	name        string
	description string
	parameters  map[string]any // JSON Schema source, exposed to the model
	schema      *jsonschema.Schema
	handler     handlerFunc
}

// Registry is the fixed name -> (schema, handler) table for task operations.
// It is built once at process start and shared read-only across requests;
// adding a tool means adding a table entry, never branching in the interpreter.
type Registry struct {
	store  taskstore.Store
	logger *zap.Logger
	tools  map[string]*tool
	order  []string
}

// NewRegistry builds the registry and compiles every tool's argument schema.
func NewRegistry(store taskstore.Store, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		store:  store,
		logger: logger,
		tools:  make(map[string]*tool),
	}

	defs := []*tool{
		{
			name:        "add_task",
			description: "Create a new task for the user",
			parameters: objectSchema(map[string]any{
				"title": map[string]any{"type": "string", "description": "The title/content of the task"},
			}, "title"),
			handler: r.addTask,
		},
		{
			name:        "list_tasks",
			description: "List all of the user's tasks",
			parameters:  objectSchema(map[string]any{}),
			handler:     r.listTasks,
		},
		{
			name:        "complete_task",
			description: "Mark a task as completed",
			parameters: objectSchema(map[string]any{
				"task_id": map[string]any{"type": "integer", "description": "The ID of the task to complete"},
			}, "task_id"),
			handler: r.completeTask,
		},
		{
			name:        "delete_task",
			description: "Delete a task",
			parameters: objectSchema(map[string]any{
				"task_id": map[string]any{"type": "integer", "description": "The ID of the task to delete"},
			}, "task_id"),
			handler: r.deleteTask,
		},
		{
			name:        "update_task",
			description: "Update a task's title",
			parameters: objectSchema(map[string]any{
				"task_id": map[string]any{"type": "integer", "description": "The ID of the task to update"},
				"title":   map[string]any{"type": "string", "description": "New title for the task"},
			}, "task_id", "title"),
			handler: r.updateTask,
		},
	}

	for _, t := range defs {
		sch, err := compileSchema(t.name, t.parameters)
		if err != nil {
			return nil, fmt.Errorf("NewRegistry: %s: %w", t.name, err)
		}
		t.schema = sch
		r.tools[t.name] = t
		r.order = append(r.order, t.name)
	}
	return r, nil
}

// Defs returns the tool definitions offered to the completion service,
// in registration order.
func (r *Registry) Defs() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDef{
			Name:        t.name,
			Description: t.description,
			Parameters:  t.parameters,
		})
	}
	return defs
}

// Execute validates a proposal and, only if the name and arguments check out,
// runs its handler scoped to ownerID. A non-nil *Error means the call was
// rejected or failed; it is reported per call, never thrown to the caller.
func (r *Registry) Execute(ctx context.Context, ownerID string, p llm.Proposal) (map[string]any, *Error) {
	t, ok := r.tools[p.Name]
	if !ok {
		return nil, unknownTool(p.Name)
	}

	args := p.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := t.schema.Validate(normalize(args)); err != nil {
		return nil, invalidArgument(err.Error())
	}

	result, terr := t.handler(ctx, ownerID, args)
	if terr != nil {
		r.logger.Debug("tool call failed",
			zap.String("tool", p.Name),
			zap.String("kind", terr.Kind),
		)
		return nil, terr
	}
	return result, nil
}

// objectSchema builds a JSON Schema for an object with the given properties.
func objectSchema(properties map[string]any, required ...string) map[string]any {
	sch := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, name := range required {
			req[i] = name
		}
		sch["required"] = req
	}
	return sch
}

func compileSchema(name string, source map[string]any) (*jsonschema.Schema, error) {
	// Round-trip through JSON so the compiler sees plain decoded values.
	raw, err := json.Marshal(source)
	if err != nil {
		return nil, err
	}
	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	res := name + ".json"
	if err := c.AddResource(res, obj); err != nil {
		return nil, err
	}
	return c.Compile(res)
}

// normalize round-trips arguments through JSON so validation sees the same
// value kinds (float64 numbers, plain maps) regardless of how the proposal
// was constructed.
func normalize(args map[string]any) any {
	raw, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return args
	}
	return v
}
