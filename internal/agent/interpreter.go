package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/tasknest-ai/tasknest/internal/llm"
	"github.com/tasknest-ai/tasknest/internal/tools"
)

// ToolCallRecord is the audit unit for one proposal: exactly one record per
// proposal, success or failure, in the order the model produced them.
type ToolCallRecord struct {
	Name      string
	Arguments map[string]any
	Result    map[string]any // success value, nil on failure
	Err       *tools.Error   // nil on success
}

// Result is the outcome of interpreting one chat message.
type Result struct {
	Response string
	Records  []ToolCallRecord
}

// Interpreter turns one free-text message into validated tool executions.
// It is stateless: each call is a pure function of (ownerID, message) plus
// current store state, and nothing survives the return.
type Interpreter struct {
	client   llm.Client
	registry *tools.Registry
	logger   *zap.Logger
}

// NewInterpreter wires the completion client and tool registry together.
func NewInterpreter(client llm.Client, registry *tools.Registry, logger *zap.Logger) *Interpreter {
	return &Interpreter{
		client:   client,
		registry: registry,
		logger:   logger,
	}
}

// storeFailureLimit is how many StoreUnavailable outcomes are tolerated in one
// request before the remaining proposals are skipped instead of retried
// against a store that is clearly down.
const storeFailureLimit = 2

// Handle runs the full pipeline for one authenticated message: propose tool
// calls, validate and execute each one in order, then build the reply.
//
// A completion transport failure is returned as an error (the whole request
// fails, no tool has executed). Per-proposal failures never propagate as
// errors: each becomes a record so a compound command can partially succeed.
func (i *Interpreter) Handle(ctx context.Context, ownerID, message string) (*Result, error) {
	completion, err := i.client.Propose(ctx, message, i.registry.Defs())
	if err != nil {
		return nil, err
	}

	records := make([]ToolCallRecord, 0, len(completion.Proposals))
	storeFailures := 0
	for _, p := range completion.Proposals {
		rec := ToolCallRecord{Name: p.Name, Arguments: p.Arguments}

		if storeFailures >= storeFailureLimit {
			rec.Err = &tools.Error{Kind: tools.KindStoreUnavailable, Detail: "skipped: task store unavailable"}
			records = append(records, rec)
			continue
		}

		result, terr := i.registry.Execute(ctx, ownerID, p)
		if terr != nil {
			rec.Err = terr
			if terr.Kind == tools.KindStoreUnavailable {
				storeFailures++
				i.logger.Warn("task store failure during tool execution",
					zap.String("tool", p.Name),
					zap.Int("failures", storeFailures),
				)
			}
		} else {
			rec.Result = result
		}
		records = append(records, rec)
	}

	return &Result{
		Response: buildResponse(records, completion.Text),
		Records:  records,
	}, nil
}
