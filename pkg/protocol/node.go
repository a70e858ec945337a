// Package protocol defines the interfaces and contracts for pluggable node executors
// and the external services they delegate to.
package protocol

import (
	"context"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// Executor runs one node type. Implementations must not mutate execCtx;
// the returned Output is merged into the live context by the engine.
// Failures the executor understands are reported with Success=false; a
// returned error is treated by the engine as an unhandled failure.
type Executor interface {
	Type() string
	Execute(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error)
}

// Describer is implemented by executors that publish metadata and a
// properties schema.
type Describer interface {
	Name() string
	Description() string
	Schema() *models.JSONSchema
}

// Brancher marks executors whose result Branch selects outgoing connections.
// A failed result from a branching executor does not abort the execution.
type Brancher interface {
	Branching() bool
}

// ExecutorFunc adapts a function into an Executor for a fixed type.
type ExecutorFunc struct {
	NodeType string
	Fn       func(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error)
}

func (f ExecutorFunc) Type() string { return f.NodeType }

func (f ExecutorFunc) Execute(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	return f.Fn(ctx, node, execCtx)
}
