// Package persistence provides the storage abstraction for workflows, executions and schedules.
package persistence

import (
	"context"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
)

type WorkflowRepository interface {
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	ListWorkflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	// RecordWorkflowRun bumps executionCount and success/failure counters and
	// sets lastExecutedAt in one atomic step.
	RecordWorkflowRun(ctx context.Context, workflowID string, success bool, at time.Time) error
}

type ExecutionRepository interface {
	CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error
	UpdateExecution(ctx context.Context, execution *models.WorkflowExecution) error
	GetExecution(ctx context.Context, executionID string) (*models.WorkflowExecution, error)
	// ListExecutions returns the newest executions of a workflow first.
	ListExecutions(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error)

	CreateNodeExecution(ctx context.Context, nodeExecution *models.WorkflowNodeExecution) error
	UpdateNodeExecution(ctx context.Context, nodeExecution *models.WorkflowNodeExecution) error
	// ListNodeExecutions returns node records in traversal order.
	ListNodeExecutions(ctx context.Context, executionID string) ([]*models.WorkflowNodeExecution, error)
}

type ScheduleRepository interface {
	GetSchedule(ctx context.Context, id string) (*models.WorkflowSchedule, error)
	SaveSchedule(ctx context.Context, schedule *models.WorkflowSchedule) error
	// UpdateSchedule rewrites the definition of an existing schedule and keeps
	// its stored run statistics.
	UpdateSchedule(ctx context.Context, schedule *models.WorkflowSchedule) error
	DeleteSchedule(ctx context.Context, id string) error
	ListActiveSchedules(ctx context.Context) ([]*models.WorkflowSchedule, error)
	// RecordScheduleRun atomically increments run statistics and stores the
	// last and next run times.
	RecordScheduleRun(ctx context.Context, scheduleID string, success bool, ranAt time.Time, nextRunAt *time.Time) error
}

// Store is the full persistence contract used by the engine, the scheduler
// and the HTTP API.
type Store interface {
	WorkflowRepository
	ExecutionRepository
	ScheduleRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
