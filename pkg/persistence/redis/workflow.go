package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

const (
	fieldExecutionCount = "execution_count"
	fieldSuccessCount   = "success_count"
	fieldFailureCount   = "failure_count"
	fieldLastExecutedAt = "last_executed_at"
)

func (p *Persistence) workflowKey(id string) string     { return p.key("workflow", id) }
func (p *Persistence) workflowRunsKey(id string) string { return p.key("workflow", id, "runs") }
func (p *Persistence) workflowsKey() string             { return p.key("workflows") }

func (p *Persistence) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	if err := p.getJSON(ctx, p.workflowKey(id), &workflow); err != nil {
		if isMissing(err) {
			return nil, persistence.NewWorkflowError("GetWorkflow", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetWorkflow", id, err)
	}

	runs, err := p.client.HGetAll(ctx, p.workflowRunsKey(id)).Result()
	if err != nil {
		return nil, persistence.NewWorkflowError("GetWorkflow", id, err)
	}

	applyWorkflowCounters(&workflow, runs)

	return &workflow, nil
}

// ListWorkflows returns every workflow ordered by id.
func (p *Persistence) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := p.client.SMembers(ctx, p.workflowsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	sort.Strings(ids)

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := p.GetWorkflow(ctx, id)
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// SaveWorkflow stores the definition and seeds the run hash on first save.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := encode(workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.workflowKey(workflow.ID), data, 0)
		pipe.SAdd(ctx, p.workflowsKey(), workflow.ID)
		pipe.HSetNX(ctx, p.workflowRunsKey(workflow.ID), fieldExecutionCount, workflow.ExecutionCount)
		pipe.HSetNX(ctx, p.workflowRunsKey(workflow.ID), fieldSuccessCount, workflow.SuccessCount)
		pipe.HSetNX(ctx, p.workflowRunsKey(workflow.ID), fieldFailureCount, workflow.FailureCount)

		return nil
	})
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) RecordWorkflowRun(ctx context.Context, workflowID string, success bool, at time.Time) error {
	exists, err := p.client.Exists(ctx, p.workflowKey(workflowID)).Result()
	if err != nil {
		return persistence.NewWorkflowError("RecordWorkflowRun", workflowID, err)
	}

	if exists == 0 {
		return persistence.NewWorkflowError("RecordWorkflowRun", workflowID, persistence.ErrWorkflowNotFound)
	}

	outcome := fieldFailureCount
	if success {
		outcome = fieldSuccessCount
	}

	runsKey := p.workflowRunsKey(workflowID)

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, runsKey, fieldExecutionCount, 1)
		pipe.HIncrBy(ctx, runsKey, outcome, 1)
		pipe.HSet(ctx, runsKey, fieldLastExecutedAt, formatTime(at))

		return nil
	})
	if err != nil {
		return persistence.NewWorkflowError("RecordWorkflowRun", workflowID, err)
	}

	return nil
}

func applyWorkflowCounters(workflow *models.Workflow, runs counters) {
	if v, ok := runs.int64(fieldExecutionCount); ok {
		workflow.ExecutionCount = v
	}

	if v, ok := runs.int64(fieldSuccessCount); ok {
		workflow.SuccessCount = v
	}

	if v, ok := runs.int64(fieldFailureCount); ok {
		workflow.FailureCount = v
	}

	if t := runs.time(fieldLastExecutedAt); t != nil {
		workflow.LastExecutedAt = t
	}
}
