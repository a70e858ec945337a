package end

import (
	"context"
	"strings"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/template"
)

// Execute resolves outputVariables against the context. The result is
// successful iff endType is success.
func (e *Executor) Execute(_ context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	endType := strings.ToLower(node.Properties.String("endType", EndTypeSuccess))

	outputs := make(map[string]any)

	for outputKey, source := range node.Properties.Map("outputVariables") {
		path, ok := source.(string)
		if !ok {
			continue
		}

		value, _ := template.Lookup(execCtx, path)
		outputs[outputKey] = value
	}

	output := map[string]any{
		EndTypeKey: endType,
		OutputsKey: outputs,
	}

	if endType == EndTypeSuccess {
		return models.Succeed(output), nil
	}

	message := template.Render(node.Properties.String("message", ""), execCtx)
	if message == "" {
		message = "workflow ended with " + endType
	}

	return models.FailWithOutput(output, message), nil
}
