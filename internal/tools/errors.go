package tools

import "fmt"

// Error kinds surfaced per proposal. These never abort sibling proposals;
// request-level failures (auth, completion transport) live outside this package.
const (
	KindUnknownTool      = "UnknownTool"
	KindInvalidArgument  = "InvalidArgument"
	KindNotFound         = "NotFound"
	KindStoreUnavailable = "StoreUnavailable"
)

// Error describes why a single tool call was rejected or failed.
type Error struct {
	Kind   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func unknownTool(name string) *Error {
	return &Error{Kind: KindUnknownTool, Detail: fmt.Sprintf("unknown tool %q", name)}
}

func invalidArgument(detail string) *Error {
	return &Error{Kind: KindInvalidArgument, Detail: detail}
}

func notFound(taskID int64) *Error {
	return &Error{Kind: KindNotFound, Detail: fmt.Sprintf("task %d not found", taskID)}
}

func storeUnavailable(err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Detail: err.Error()}
}
