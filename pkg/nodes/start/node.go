package start

import (
	"context"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/template"
)

// StartTimeKey is the context key holding the RFC3339 start timestamp.
const StartTimeKey = "_start_time"

// Execute merges inputVariables into the output. It always succeeds.
func (e *Executor) Execute(_ context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	output := make(map[string]any)

	for key, value := range node.Properties.Map("inputVariables") {
		output[key] = template.RenderValue(value, execCtx)
	}

	output[StartTimeKey] = e.now().UTC().Format(time.RFC3339)

	return models.Succeed(output), nil
}
