package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

const uniqueViolation = "23505"

const executionColumns = `
			execution_id
		  , workflow_id
		  , status
		  , trigger_type
		  , trigger_data
		  , triggered_by
		  , started_at
		  , completed_at
		  , duration_ms
		  , result
		  , error_message
		  , error_stack
		  , node_states
		  , execution_path
		  , current_node_id
		  , retry_count
		  , parent_execution_id`

const nodeExecutionColumns = `
			id
		  , execution_id
		  , node_id
		  , node_name
		  , node_type
		  , sequence
		  , status
		  , started_at
		  , completed_at
		  , duration_ms
		  , input_data
		  , output_data
		  , branch
		  , error_message
		  , error_stack`

type executionJSON struct {
	triggerData   []byte
	result        []byte
	nodeStates    []byte
	executionPath []byte
}

func encodeExecution(execution *models.WorkflowExecution) (executionJSON, error) {
	var (
		encoded executionJSON
		err     error
	)

	if encoded.triggerData, err = toJSONB(execution.TriggerData); err != nil {
		return encoded, err
	}

	if encoded.result, err = toJSONB(execution.Result); err != nil {
		return encoded, err
	}

	if encoded.nodeStates, err = toJSONB(execution.NodeStates); err != nil {
		return encoded, err
	}

	if encoded.executionPath, err = toJSONB(execution.ExecutionPath); err != nil {
		return encoded, err
	}

	return encoded, nil
}

func (p *Persistence) CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	encoded, err := encodeExecution(execution)
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, err)
	}

	query := `
		INSERT INTO workflow_executions (` + executionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = p.db.ExecContext(ctx, query,
		execution.ExecutionID,
		execution.WorkflowID,
		execution.Status,
		execution.TriggerType,
		encoded.triggerData,
		execution.TriggeredBy,
		execution.StartedAt,
		execution.CompletedAt,
		execution.DurationMs,
		encoded.result,
		execution.ErrorMessage,
		execution.ErrorStack,
		encoded.nodeStates,
		encoded.executionPath,
		execution.CurrentNodeID,
		execution.RetryCount,
		execution.ParentExecutionID,
	)
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, insertError(err))
	}

	return nil
}

func (p *Persistence) UpdateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	encoded, err := encodeExecution(execution)
	if err != nil {
		return persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, err)
	}

	query := `
		UPDATE workflow_executions SET
			status = $2,
			trigger_type = $3,
			trigger_data = $4,
			triggered_by = $5,
			started_at = $6,
			completed_at = $7,
			duration_ms = $8,
			result = $9,
			error_message = $10,
			error_stack = $11,
			node_states = $12,
			execution_path = $13,
			current_node_id = $14,
			retry_count = $15,
			parent_execution_id = $16
		WHERE execution_id = $1
	`

	result, err := p.db.ExecContext(ctx, query,
		execution.ExecutionID,
		execution.Status,
		execution.TriggerType,
		encoded.triggerData,
		execution.TriggeredBy,
		execution.StartedAt,
		execution.CompletedAt,
		execution.DurationMs,
		encoded.result,
		execution.ErrorMessage,
		execution.ErrorStack,
		encoded.nodeStates,
		encoded.executionPath,
		execution.CurrentNodeID,
		execution.RetryCount,
		execution.ParentExecutionID,
	)
	if err != nil {
		return persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, err)
	}

	return affectedOne(result, persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, persistence.ErrExecutionNotFound))
}

func (p *Persistence) GetExecution(ctx context.Context, executionID string) (*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + `
		FROM workflow_executions
		WHERE execution_id = $1
	`

	execution, err := scanExecution(p.db.QueryRowContext(ctx, query, executionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetExecution", executionID, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetExecution", executionID, err)
	}

	return execution, nil
}

// ListExecutions returns the newest executions first. An empty workflowID
// lists every workflow; limit <= 0 means no limit.
func (p *Persistence) ListExecutions(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + `
		FROM workflow_executions
		WHERE ($1 = '' OR workflow_id = $1)
		ORDER BY started_at DESC, execution_id DESC
		LIMIT NULLIF($2, 0)
	`

	if limit < 0 {
		limit = 0
	}

	rows, err := p.db.QueryContext(ctx, query, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer p.closeRows(ctx, rows)

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func (p *Persistence) CreateNodeExecution(ctx context.Context, record *models.WorkflowNodeExecution) error {
	inputJSON, err := toJSONB(record.InputData)
	if err != nil {
		return persistence.NewNodeExecutionError("CreateNodeExecution", record.ID, err)
	}

	outputJSON, err := toJSONB(record.OutputData)
	if err != nil {
		return persistence.NewNodeExecutionError("CreateNodeExecution", record.ID, err)
	}

	query := `
		INSERT INTO workflow_node_executions (` + nodeExecutionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = p.db.ExecContext(ctx, query,
		record.ID,
		record.ExecutionID,
		record.NodeID,
		record.NodeName,
		record.NodeType,
		record.Sequence,
		record.Status,
		record.StartedAt,
		record.CompletedAt,
		record.DurationMs,
		inputJSON,
		outputJSON,
		record.Branch,
		record.ErrorMessage,
		record.ErrorStack,
	)
	if err != nil {
		return persistence.NewNodeExecutionError("CreateNodeExecution", record.ID, insertError(err))
	}

	return nil
}

func (p *Persistence) UpdateNodeExecution(ctx context.Context, record *models.WorkflowNodeExecution) error {
	inputJSON, err := toJSONB(record.InputData)
	if err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, err)
	}

	outputJSON, err := toJSONB(record.OutputData)
	if err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, err)
	}

	query := `
		UPDATE workflow_node_executions SET
			node_name = $2,
			node_type = $3,
			sequence = $4,
			status = $5,
			started_at = $6,
			completed_at = $7,
			duration_ms = $8,
			input_data = $9,
			output_data = $10,
			branch = $11,
			error_message = $12,
			error_stack = $13
		WHERE id = $1
	`

	result, err := p.db.ExecContext(ctx, query,
		record.ID,
		record.NodeName,
		record.NodeType,
		record.Sequence,
		record.Status,
		record.StartedAt,
		record.CompletedAt,
		record.DurationMs,
		inputJSON,
		outputJSON,
		record.Branch,
		record.ErrorMessage,
		record.ErrorStack,
	)
	if err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, err)
	}

	return affectedOne(result, persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, persistence.ErrNodeExecutionNotFound))
}

// ListNodeExecutions returns the node records of an execution in visit order.
func (p *Persistence) ListNodeExecutions(ctx context.Context, executionID string) ([]*models.WorkflowNodeExecution, error) {
	query := `SELECT ` + nodeExecutionColumns + `
		FROM workflow_node_executions
		WHERE execution_id = $1
		ORDER BY sequence, started_at
	`

	rows, err := p.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query node executions: %w", err)
	}
	defer p.closeRows(ctx, rows)

	records := make([]*models.WorkflowNodeExecution, 0)

	for rows.Next() {
		record, err := scanNodeExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node execution: %w", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating node executions: %w", err)
	}

	return records, nil
}

func scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	var (
		execution   models.WorkflowExecution
		encoded     executionJSON
		completedAt sql.NullTime
	)

	err := row.Scan(
		&execution.ExecutionID,
		&execution.WorkflowID,
		&execution.Status,
		&execution.TriggerType,
		&encoded.triggerData,
		&execution.TriggeredBy,
		&execution.StartedAt,
		&completedAt,
		&execution.DurationMs,
		&encoded.result,
		&execution.ErrorMessage,
		&execution.ErrorStack,
		&encoded.nodeStates,
		&encoded.executionPath,
		&execution.CurrentNodeID,
		&execution.RetryCount,
		&execution.ParentExecutionID,
	)
	if err != nil {
		return nil, err
	}

	for _, column := range []struct {
		data []byte
		out  any
	}{
		{encoded.triggerData, &execution.TriggerData},
		{encoded.result, &execution.Result},
		{encoded.nodeStates, &execution.NodeStates},
		{encoded.executionPath, &execution.ExecutionPath},
	} {
		if err := fromJSONB(column.data, column.out); err != nil {
			return nil, err
		}
	}

	execution.CompletedAt = nullTime(completedAt)

	return &execution, nil
}

func scanNodeExecution(row rowScanner) (*models.WorkflowNodeExecution, error) {
	var (
		record      models.WorkflowNodeExecution
		inputJSON   []byte
		outputJSON  []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&record.ID,
		&record.ExecutionID,
		&record.NodeID,
		&record.NodeName,
		&record.NodeType,
		&record.Sequence,
		&record.Status,
		&record.StartedAt,
		&completedAt,
		&record.DurationMs,
		&inputJSON,
		&outputJSON,
		&record.Branch,
		&record.ErrorMessage,
		&record.ErrorStack,
	)
	if err != nil {
		return nil, err
	}

	if err := fromJSONB(inputJSON, &record.InputData); err != nil {
		return nil, err
	}

	if err := fromJSONB(outputJSON, &record.OutputData); err != nil {
		return nil, err
	}

	record.CompletedAt = nullTime(completedAt)

	return &record, nil
}

// insertError maps a unique violation to persistence.ErrAlreadyExists.
func insertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s", persistence.ErrAlreadyExists, pqErr.Message)
	}

	return err
}
