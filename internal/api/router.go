package api

import "net/http"

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Chat endpoint (auth required via Bearer tnk_ token)
	mux.HandleFunc("POST /api/{user_id}/chat", deps.authMiddleware(deps.handleChat))

	// Chat audit trail (served from ClickHouse when configured)
	mux.HandleFunc("GET /api/{user_id}/chat/history", deps.authMiddleware(deps.handleChatHistory))
	mux.HandleFunc("GET /api/{user_id}/chat/stats", deps.authMiddleware(deps.handleChatStats))

	// Manual task CRUD (same auth, same store the chat tools mutate)
	mux.HandleFunc("GET /api/{user_id}/tasks", deps.authMiddleware(deps.handleListTasks))
	mux.HandleFunc("POST /api/{user_id}/tasks", deps.authMiddleware(deps.handleCreateTask))
	mux.HandleFunc("GET /api/{user_id}/tasks/{task_id}", deps.authMiddleware(deps.handleGetTask))
	mux.HandleFunc("PUT /api/{user_id}/tasks/{task_id}", deps.authMiddleware(deps.handleUpdateTask))
	mux.HandleFunc("DELETE /api/{user_id}/tasks/{task_id}", deps.authMiddleware(deps.handleDeleteTask))
	mux.HandleFunc("PATCH /api/{user_id}/tasks/{task_id}/complete", deps.authMiddleware(deps.handleToggleTask))

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
