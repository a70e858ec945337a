// Package unsupported registers node types that are declared but have no
// execution semantics, so workflows using them fail loudly.
package unsupported

import (
	"context"
	"fmt"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// Executor always fails with a "not supported" error.
type Executor struct {
	nodeType string
}

// NewExecutor creates an executor for nodeType.
func NewExecutor(nodeType string) *Executor {
	return &Executor{nodeType: nodeType}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return e.nodeType
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return e.nodeType
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Not supported by this engine; executions reaching this node fail"
}

// Schema returns nil: any properties are accepted so validation can report
// the node instead of its configuration.
func (e *Executor) Schema() *models.JSONSchema {
	return nil
}

// Execute fails the node.
func (e *Executor) Execute(_ context.Context, node *models.Node, _ models.ExecutionContext) (models.NodeExecutionResult, error) {
	return models.Fail(fmt.Sprintf("node type %q is not supported", node.Type)), nil
}
