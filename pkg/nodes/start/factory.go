// Package start provides the workflow entry node.
package start

import (
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// Executor seeds the context with the node's input variables.
type Executor struct {
	now func() time.Time
}

// NewExecutor creates a start executor using the wall clock.
func NewExecutor() *Executor {
	return &Executor{now: time.Now}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeStart
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "Start"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Entry point of a workflow. Publishes inputVariables and the start timestamp to the context"
}

// Schema returns the JSON schema for start node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("Start", map[string]*models.Property{
		"inputVariables": models.Prop("object", "Variables merged into the context. Values support ${path} templates"),
	})
}
