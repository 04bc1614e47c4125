package agent

import (
	"fmt"
	"strings"

	"github.com/tasknest-ai/tasknest/internal/tools"
)

const helpMessage = "I can help you manage tasks. Try: 'add task buy groceries' or 'show tasks'"

// buildResponse turns the executed records into the user-facing reply. The
// text is built deterministically from the records; the model's own text is
// only used when it proposed no tool calls at all.
func buildResponse(records []ToolCallRecord, modelText string) string {
	if len(records) == 0 {
		if strings.TrimSpace(modelText) != "" {
			return modelText
		}
		return helpMessage
	}

	failures := 0
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Err != nil {
			failures++
		}
		lines = append(lines, describeRecord(rec))
	}

	// Partial failure must be acknowledged in plain language, not papered
	// over with a generic success message.
	if failures > 0 && failures < len(records) {
		header := fmt.Sprintf("Completed %d of %d requested actions.", len(records)-failures, len(records))
		return header + "\n" + strings.Join(lines, "\n")
	}
	return strings.Join(lines, "\n")
}

func describeRecord(rec ToolCallRecord) string {
	if rec.Err != nil {
		return describeError(rec)
	}

	switch rec.Name {
	case "add_task":
		return fmt.Sprintf("Added task: '%v' (ID: %v)", rec.Result["title"], rec.Result["task_id"])
	case "list_tasks":
		return describeTaskList(rec.Result)
	case "complete_task":
		return fmt.Sprintf("Marked '%v' as complete!", rec.Result["title"])
	case "delete_task":
		return fmt.Sprintf("Deleted '%v'", rec.Result["title"])
	case "update_task":
		return fmt.Sprintf("Updated task to '%v'", rec.Result["title"])
	default:
		return "Done!"
	}
}

func describeTaskList(result map[string]any) string {
	tasks, _ := result["tasks"].([]map[string]any)
	if len(tasks) == 0 {
		return "You have no tasks yet. Try adding one!"
	}
	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, "Your tasks:")
	for _, t := range tasks {
		status := "pending"
		if done, _ := t["completed"].(bool); done {
			status = "done"
		}
		lines = append(lines, fmt.Sprintf("  %v. %v [%s]", t["task_id"], t["title"], status))
	}
	return strings.Join(lines, "\n")
}

func describeError(rec ToolCallRecord) string {
	switch rec.Err.Kind {
	case tools.KindNotFound:
		if id, ok := rec.Arguments["task_id"]; ok {
			return fmt.Sprintf("Task %v was not found.", id)
		}
		return "That task was not found."
	case tools.KindUnknownTool:
		return fmt.Sprintf("I don't know how to do that (%s).", rec.Name)
	case tools.KindInvalidArgument:
		return fmt.Sprintf("Couldn't run %s: %s.", rec.Name, rec.Err.Detail)
	case tools.KindStoreUnavailable:
		return "The task store is unavailable right now, please try again."
	default:
		return fmt.Sprintf("Couldn't run %s.", rec.Name)
	}
}
