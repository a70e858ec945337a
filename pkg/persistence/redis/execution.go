package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

func (p *Persistence) executionKey(id string) string      { return p.key("execution", id) }
func (p *Persistence) nodeExecutionsKey(id string) string { return p.key("execution", id, "nodes") }

// executionIndexKey is a sorted set of execution ids scored by start time.
// The empty workflow id indexes every execution.
func (p *Persistence) executionIndexKey(workflowID string) string {
	if workflowID == "" {
		return p.key("executions")
	}

	return p.key("executions", workflowID)
}

func (p *Persistence) CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	data, err := encode(execution)
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, err)
	}

	created, err := p.client.SetNX(ctx, p.executionKey(execution.ExecutionID), data, 0).Result()
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, err)
	}

	if !created {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, persistence.ErrAlreadyExists)
	}

	score := float64(execution.StartedAt.UnixNano())

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, p.executionIndexKey(""), redis.Z{Score: score, Member: execution.ExecutionID})
		pipe.ZAdd(ctx, p.executionIndexKey(execution.WorkflowID), redis.Z{Score: score, Member: execution.ExecutionID})

		return nil
	})
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, err)
	}

	return nil
}

func (p *Persistence) UpdateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	data, err := encode(execution)
	if err != nil {
		return persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, err)
	}

	updated, err := p.client.SetXX(ctx, p.executionKey(execution.ExecutionID), data, 0).Result()
	if err != nil {
		return persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, err)
	}

	if !updated {
		return persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, persistence.ErrExecutionNotFound)
	}

	return nil
}

func (p *Persistence) GetExecution(ctx context.Context, executionID string) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution

	if err := p.getJSON(ctx, p.executionKey(executionID), &execution); err != nil {
		if isMissing(err) {
			return nil, persistence.NewExecutionError("GetExecution", executionID, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetExecution", executionID, err)
	}

	return &execution, nil
}

// ListExecutions returns the newest executions first. An empty workflowID
// lists every workflow; limit <= 0 means no limit.
func (p *Persistence) ListExecutions(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := p.client.ZRevRange(ctx, p.executionIndexKey(workflowID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	executions := make([]*models.WorkflowExecution, 0, len(ids))
	if len(ids) == 0 {
		return executions, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = p.executionKey(id)
	}

	values, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load executions: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var execution models.WorkflowExecution
		if err := json.Unmarshal([]byte(raw), &execution); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution %s: %w", ids[i], err)
		}

		executions = append(executions, &execution)
	}

	return executions, nil
}

func (p *Persistence) CreateNodeExecution(ctx context.Context, record *models.WorkflowNodeExecution) error {
	data, err := encode(record)
	if err != nil {
		return persistence.NewNodeExecutionError("CreateNodeExecution", record.ID, err)
	}

	created, err := p.client.HSetNX(ctx, p.nodeExecutionsKey(record.ExecutionID), record.ID, data).Result()
	if err != nil {
		return persistence.NewNodeExecutionError("CreateNodeExecution", record.ID, err)
	}

	if !created {
		return persistence.NewNodeExecutionError("CreateNodeExecution", record.ID, persistence.ErrAlreadyExists)
	}

	return nil
}

func (p *Persistence) UpdateNodeExecution(ctx context.Context, record *models.WorkflowNodeExecution) error {
	key := p.nodeExecutionsKey(record.ExecutionID)

	exists, err := p.client.HExists(ctx, key, record.ID).Result()
	if err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, err)
	}

	if !exists {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, persistence.ErrNodeExecutionNotFound)
	}

	data, err := encode(record)
	if err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, err)
	}

	if err := p.client.HSet(ctx, key, record.ID, data).Err(); err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, err)
	}

	return nil
}

// ListNodeExecutions returns the node records of an execution in visit order.
func (p *Persistence) ListNodeExecutions(ctx context.Context, executionID string) ([]*models.WorkflowNodeExecution, error) {
	values, err := p.client.HVals(ctx, p.nodeExecutionsKey(executionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list node executions of %s: %w", executionID, err)
	}

	records := make([]*models.WorkflowNodeExecution, 0, len(values))

	for _, raw := range values {
		var record models.WorkflowNodeExecution
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node execution: %w", err)
		}

		records = append(records, &record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Sequence == records[j].Sequence {
			return records[i].StartedAt.Before(records[j].StartedAt)
		}

		return records[i].Sequence < records[j].Sequence
	})

	return records, nil
}
