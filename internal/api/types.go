package api

import "time"

// --- POST /api/{user_id}/chat ---

// ChatRequest is the JSON body for the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ToolCallResp is one executed (or rejected) tool call. Result is either the
// tool's success value or {"error": kind, "detail": ...}.
type ToolCallResp struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result"`
}

// ChatResponse is the wire reply: human-readable text plus the structured
// tool-call log, in the order the model proposed the calls.
type ChatResponse struct {
	Response  string         `json:"response"`
	ToolCalls []ToolCallResp `json:"tool_calls"`
}

// --- Task CRUD ---

// CreateTaskReq is the JSON body for POST /api/{user_id}/tasks.
type CreateTaskReq struct {
	Title string `json:"title"`
}

// UpdateTaskReq holds optional fields for PUT /api/{user_id}/tasks/{task_id}.
type UpdateTaskReq struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TaskResp mirrors one task row.
type TaskResp struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
