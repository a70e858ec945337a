package registry

import (
	"context"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// PassThrough succeeds with an empty output. It stands in for node types
// that have no registered executor.
type PassThrough struct{}

func (PassThrough) Type() string { return "passthrough" }

func (PassThrough) Execute(_ context.Context, _ *models.Node, _ models.ExecutionContext) (models.NodeExecutionResult, error) {
	return models.Succeed(nil), nil
}
