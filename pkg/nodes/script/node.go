package script

import (
	"context"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// Execute evaluates the script. Context variables are available by name and
// as the input map.
func (e *Executor) Execute(_ context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	source := node.Properties.String("script", node.Properties.String("code", ""))
	if source == "" {
		return models.Fail("missing required property 'script'"), nil
	}

	env := execCtx.Clone()
	env["input"] = map[string]any(execCtx.Clone())

	value, err := e.evaluator.Evaluate(source, env)
	if err != nil {
		return models.Fail("script error: " + err.Error()), nil
	}

	return models.Succeed(map[string]any{
		node.Properties.String("outputVariable", DefaultOutputVariable): value,
	}), nil
}
