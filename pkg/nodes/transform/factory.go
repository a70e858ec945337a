// Package transform provides the field-mapping node.
package transform

import "github.com/fieldflow/orchestrator/pkg/models"

// Executor extracts fields from a context variable by dotted path.
type Executor struct{}

// NewExecutor creates a transform executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeTransform
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "Transform"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Builds a new object from {outputKey: dotted.source.path} mappings over an input variable"
}

// Schema returns the JSON schema for transform node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("Transform", map[string]*models.Property{
		"inputVariable":  models.Prop("string", "Dotted context path of the source object; the whole context when empty"),
		"mappings":       models.Prop("object", "Map of output key to dotted path inside the input"),
		"outputVariable": models.Prop("string", "Context key for the result; keys are merged at the top level when empty"),
	}, "mappings")
}
