package transform

import (
	"context"
	"fmt"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/template"
)

// Execute applies the mappings. Paths that do not resolve produce nil.
func (e *Executor) Execute(_ context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	source := map[string]any(execCtx)

	if inputVariable := node.Properties.String("inputVariable", ""); inputVariable != "" {
		value, ok := template.Lookup(execCtx, inputVariable)
		if !ok {
			return models.Fail(fmt.Sprintf("input variable %q not found", inputVariable)), nil
		}

		source = models.AsMap(value)
		if source == nil {
			return models.Fail(fmt.Sprintf("input variable %q is not an object", inputVariable)), nil
		}
	}

	transformed := make(map[string]any)

	for outputKey, rawPath := range node.Properties.Map("mappings") {
		path, ok := rawPath.(string)
		if !ok {
			return models.Fail(fmt.Sprintf("mapping %q must be a string path", outputKey)), nil
		}

		value, _ := template.Lookup(source, path)
		transformed[outputKey] = value
	}

	if outputVariable := node.Properties.String("outputVariable", ""); outputVariable != "" {
		return models.Succeed(map[string]any{outputVariable: transformed}), nil
	}

	return models.Succeed(transformed), nil
}
