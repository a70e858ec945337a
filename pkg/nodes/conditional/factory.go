// Package conditional provides the boolean branching node.
package conditional

import (
	"github.com/fieldflow/orchestrator/pkg/expression"
	"github.com/fieldflow/orchestrator/pkg/models"
)

// Supported operators for operand comparison.
const (
	OpEq          = "eq"
	OpNe          = "ne"
	OpGt          = "gt"
	OpGte         = "gte"
	OpLt          = "lt"
	OpLte         = "lte"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpIsNull      = "is_null"
	OpIsNotNull   = "is_not_null"
)

// Executor evaluates a condition and branches on "true" or "false".
type Executor struct {
	evaluator *expression.Evaluator
}

// NewExecutor creates a condition executor.
func NewExecutor(evaluator *expression.Evaluator) *Executor {
	if evaluator == nil {
		evaluator = expression.NewEvaluator()
	}

	return &Executor{evaluator: evaluator}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeCondition
}

// Branching marks condition results as branch selectors.
func (e *Executor) Branching() bool {
	return true
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "Condition"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Evaluates an expression or an operand comparison and follows the true or false branch"
}

// Schema returns the JSON schema for condition node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("Condition", map[string]*models.Property{
		"expression":   models.Prop("string", "Boolean expression over context variables, e.g. temperature > 30"),
		"leftOperand":  {Description: "Left operand. Supports ${path} templates"},
		"rightOperand": {Description: "Right operand. Supports ${path} templates"},
		"operator": models.EnumProp("Comparison operator",
			OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpContains, OpNotContains, OpIsNull, OpIsNotNull),
	})
}
