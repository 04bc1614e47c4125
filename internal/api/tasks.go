package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/tasknest-ai/tasknest/internal/taskstore"
)

// Manual task endpoints used by the UI next to the chat assistant. They hit
// the same owner-scoped store the chat tools mutate, so a UI refresh after a
// chat reply always observes the recorded tool calls.

func taskResp(t *taskstore.Task) TaskResp {
	return TaskResp{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func taskIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("task_id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func (d *Dependencies) handleListTasks(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	tasks, err := d.Tasks.List(r.Context(), identity.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "failed to list tasks"})
		return
	}

	resp := make([]TaskResp, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, taskResp(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req CreateTaskReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "title is required"})
		return
	}

	task, err := d.Tasks.Create(r.Context(), identity.UserID, title)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "failed to create task"})
		return
	}
	writeJSON(w, http.StatusCreated, taskResp(task))
}

func (d *Dependencies) handleGetTask(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	id, ok := taskIDFromPath(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "invalid task id"})
		return
	}

	task, err := d.Tasks.Get(r.Context(), identity.UserID, id)
	if errors.Is(err, taskstore.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Task not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "failed to fetch task"})
		return
	}
	writeJSON(w, http.StatusOK, taskResp(task))
}

func (d *Dependencies) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	id, ok := taskIDFromPath(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "invalid task id"})
		return
	}

	var req UpdateTaskReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Title == nil && req.Completed == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "nothing to update"})
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "title must not be empty"})
			return
		}
		req.Title = &title
	}

	// One store call for both fields, so a failure never leaves half the
	// update committed.
	task, err := d.Tasks.Update(r.Context(), identity.UserID, id, req.Title, req.Completed)
	if err != nil {
		respondTaskErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResp(task))
}

func (d *Dependencies) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	id, ok := taskIDFromPath(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "invalid task id"})
		return
	}

	if _, err := d.Tasks.Delete(r.Context(), identity.UserID, id); err != nil {
		respondTaskErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleTask flips the completion flag, returning the task's new state.
// The chat tool complete_task only ever sets the flag; the toggle exists for
// the checkbox in the manual UI.
func (d *Dependencies) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	id, ok := taskIDFromPath(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "invalid task id"})
		return
	}

	task, err := d.Tasks.Get(r.Context(), identity.UserID, id)
	if err != nil {
		respondTaskErr(w, err)
		return
	}
	task, err = d.Tasks.SetCompleted(r.Context(), identity.UserID, id, !task.Completed)
	if err != nil {
		respondTaskErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResp(task))
}

func respondTaskErr(w http.ResponseWriter, err error) {
	if errors.Is(err, taskstore.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Task not found"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "task store error"})
}
