// Package delay provides the timed pause node.
package delay

import (
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
)

var unitMultipliers = map[string]time.Duration{
	"seconds": time.Second,
	"minutes": time.Minute,
	"hours":   time.Hour,
	"days":    24 * time.Hour,
}

// Executor suspends the current execution only; other executions keep running.
type Executor struct{}

// NewExecutor creates a delay executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeDelay
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "Delay"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Waits for duration x unit before continuing. Honours cancellation of the execution context"
}

// Schema returns the JSON schema for delay node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("Delay", map[string]*models.Property{
		"duration": models.MinProp([]any{"number", "string"}, "Amount of time to wait", 0),
		"unit":     models.EnumProp("Time unit", "seconds", "minutes", "hours", "days"),
	}, "duration")
}
