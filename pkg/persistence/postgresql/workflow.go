package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

const workflowColumns = `
			id
		  , code
		  , name
		  , description
		  , nodes
		  , connections
		  , variables
		  , is_active
		  , timeout_seconds
		  , execution_count
		  , success_count
		  , failure_count
		  , last_executed_at
		  , created_at
		  , updated_at`

func (p *Persistence) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = $1
	`

	workflow, err := scanWorkflow(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetWorkflow", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetWorkflow", id, err)
	}

	return workflow, nil
}

// ListWorkflows returns every workflow ordered by id.
func (p *Persistence) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		ORDER BY id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}
	defer p.closeRows(ctx, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// SaveWorkflow upserts the definition. Run counters are left to RecordWorkflowRun.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	nodesJSON, err := toJSONB(workflow.Nodes)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	connectionsJSON, err := toJSONB(workflow.Connections)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	variablesJSON, err := toJSONB(workflow.Variables)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	query := `
		INSERT INTO workflows (id, code, name, description, nodes, connections, variables,
			is_active, timeout_seconds, execution_count, success_count, failure_count,
			last_executed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			nodes = EXCLUDED.nodes,
			connections = EXCLUDED.connections,
			variables = EXCLUDED.variables,
			is_active = EXCLUDED.is_active,
			timeout_seconds = EXCLUDED.timeout_seconds,
			updated_at = EXCLUDED.updated_at
	`

	_, err = p.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Code,
		workflow.Name,
		workflow.Description,
		nodesJSON,
		connectionsJSON,
		variablesJSON,
		workflow.IsActive,
		workflow.TimeoutSeconds,
		workflow.ExecutionCount,
		workflow.SuccessCount,
		workflow.FailureCount,
		workflow.LastExecutedAt,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, fmt.Errorf("failed to save workflow: %w", err))
	}

	return nil
}

// RecordWorkflowRun increments the counters in a single statement.
func (p *Persistence) RecordWorkflowRun(ctx context.Context, workflowID string, success bool, at time.Time) error {
	query := `
		UPDATE workflows SET
			execution_count = execution_count + 1,
			success_count = success_count + CASE WHEN $2 THEN 1 ELSE 0 END,
			failure_count = failure_count + CASE WHEN $2 THEN 0 ELSE 1 END,
			last_executed_at = $3
		WHERE id = $1
	`

	result, err := p.db.ExecContext(ctx, query, workflowID, success, at)
	if err != nil {
		return persistence.NewWorkflowError("RecordWorkflowRun", workflowID, err)
	}

	return affectedOne(result, persistence.NewWorkflowError("RecordWorkflowRun", workflowID, persistence.ErrWorkflowNotFound))
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow        models.Workflow
		nodesJSON       []byte
		connectionsJSON []byte
		variablesJSON   []byte
		lastExecutedAt  sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Code,
		&workflow.Name,
		&workflow.Description,
		&nodesJSON,
		&connectionsJSON,
		&variablesJSON,
		&workflow.IsActive,
		&workflow.TimeoutSeconds,
		&workflow.ExecutionCount,
		&workflow.SuccessCount,
		&workflow.FailureCount,
		&lastExecutedAt,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := fromJSONB(nodesJSON, &workflow.Nodes); err != nil {
		return nil, err
	}

	if err := fromJSONB(connectionsJSON, &workflow.Connections); err != nil {
		return nil, err
	}

	if err := fromJSONB(variablesJSON, &workflow.Variables); err != nil {
		return nil, err
	}

	workflow.LastExecutedAt = nullTime(lastExecutedAt)

	return &workflow, nil
}

func nullTime(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}

	t := value.Time

	return &t
}

// affectedOne returns notFound when result touched no rows.
func affectedOne(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return notFound
	}

	return nil
}
