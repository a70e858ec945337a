// Package end provides the terminal workflow node.
package end

import "github.com/fieldflow/orchestrator/pkg/models"

const (
	EndTypeSuccess = "success"
	EndTypeFailure = "failure"

	// EndTypeKey and OutputsKey name the keys written to the context.
	EndTypeKey = "_end_type"
	OutputsKey = "outputs"
)

// Executor terminates its path and collects declared outputs.
type Executor struct{}

// NewExecutor creates an end executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeEnd
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "End"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Terminates the current path. endType=failure marks the execution as failed"
}

// Schema returns the JSON schema for end node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("End", map[string]*models.Property{
		"endType":         models.EnumProp("Outcome of the workflow when this node is reached", EndTypeSuccess, EndTypeFailure),
		"outputVariables": models.Prop("object", "Map of output key to dotted context path"),
		"message":         models.Prop("string", "Failure message used when endType is failure"),
	})
}
