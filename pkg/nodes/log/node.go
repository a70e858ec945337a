package log

import (
	"context"
	"strings"

	oplog "github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/template"
)

// Execute renders and logs the message.
func (e *Executor) Execute(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	message := template.Render(node.Properties.String("message", ""), execCtx)
	levelName := strings.ToLower(node.Properties.String("level", "info"))

	level, ok := levels[levelName]
	if !ok {
		levelName = "info"
		level = levels[levelName]
	}

	logger := e.logger
	if logger == nil {
		logger = oplog.FromContext(ctx)
	}

	logger.Log(ctx, level, message, "node_id", node.ID, "node_type", models.NodeTypeLog)

	return models.Succeed(map[string]any{
		"logged_message": message,
		"log_level":      levelName,
	}), nil
}
