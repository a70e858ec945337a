// Package script provides the sandboxed expression node.
package script

import (
	"github.com/fieldflow/orchestrator/pkg/expression"
	"github.com/fieldflow/orchestrator/pkg/models"
)

// DefaultOutputVariable receives the script result when none is configured.
const DefaultOutputVariable = "script_result"

// Executor evaluates a restricted expression against the context.
type Executor struct {
	evaluator *expression.Evaluator
}

// NewExecutor creates a script executor.
func NewExecutor(evaluator *expression.Evaluator) *Executor {
	if evaluator == nil {
		evaluator = expression.NewEvaluator()
	}

	return &Executor{evaluator: evaluator}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeScript
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "Script"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Evaluates an expression with arithmetic, comparison, string and collection builtins. No I/O"
}

// Schema returns the JSON schema for script node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("Script", map[string]*models.Property{
		"script":         models.Prop("string", "Expression to evaluate. Context variables are in scope, and as input"),
		"outputVariable": models.Prop("string", "Context key that receives the result"),
	}, "script")
}
