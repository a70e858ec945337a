package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/template"
)

// Execute runs the statement. Without an explicit operation, statements
// starting with SELECT, WITH or SHOW are treated as queries.
func (e *Executor) Execute(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	if e.db == nil {
		return models.Fail("database service is not configured"), nil
	}

	query := strings.TrimSpace(template.Render(node.Properties.String("query", ""), execCtx))
	if query == "" {
		return models.Fail("missing required property 'query'"), nil
	}

	params, _ := template.RenderValue(node.Properties.Slice("params"), execCtx).([]any)

	operation := strings.ToLower(node.Properties.String("operation", detectOperation(query)))
	outputVariable := node.Properties.String("outputVariable", "query_result")

	switch operation {
	case OperationQuery:
		result, err := e.db.Query(ctx, query, params)
		if err != nil {
			return models.Fail(fmt.Sprintf("database query failed: %v", err)), nil
		}

		return models.Succeed(map[string]any{outputVariable: map[string]any{
			"rows":     rowsToAny(result.Rows),
			"rowCount": result.RowCount,
		}}), nil
	case OperationExec:
		result, err := e.db.Exec(ctx, query, params)
		if err != nil {
			return models.Fail(fmt.Sprintf("database exec failed: %v", err)), nil
		}

		return models.Succeed(map[string]any{outputVariable: map[string]any{
			"affectedRows": result.AffectedRows,
		}}), nil
	default:
		return models.Fail(fmt.Sprintf("unsupported database operation %q", operation)), nil
	}
}

func detectOperation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return OperationExec
	}

	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "SHOW":
		return OperationQuery
	default:
		return OperationExec
	}
}

// rowsToAny keeps rows addressable by template paths such as rows.0.name.
func rowsToAny(rows []map[string]any) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}

	return out
}
