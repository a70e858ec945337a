// Package switchnode provides the multi-way branching node.
package switchnode

import "github.com/fieldflow/orchestrator/pkg/models"

// DefaultBranch is used when no case matches and no default is configured.
const DefaultBranch = "default"

// Executor compares a rendered value against a case table.
type Executor struct{}

// NewExecutor creates a switch executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeSwitch
}

// Branching marks switch results as branch selectors.
func (e *Executor) Branching() bool {
	return true
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "Switch"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Routes execution to the branch of the first case whose value equals the rendered value"
}

// Schema returns the JSON schema for switch node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("Switch", map[string]*models.Property{
		"value": {Description: "Value to match. Supports ${path} templates"},
		"cases": {
			Type:        []any{"array", "object"},
			Description: "List of {value, branch} or a map of value to branch",
		},
		"default": models.Prop("string", "Branch used when no case matches"),
	}, "value")
}
