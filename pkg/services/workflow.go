package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/registry"
	"github.com/fieldflow/orchestrator/pkg/workflow"
)

// Runner executes workflows; *workflow.Engine satisfies it.
type Runner interface {
	Execute(ctx context.Context, wf *models.Workflow, input map[string]any, trigger workflow.Trigger) (*models.WorkflowExecution, error)
}

type Workflow struct {
	store    persistence.Store
	registry *registry.Registry
	runner   Runner
	logger   *slog.Logger

	async sync.WaitGroup
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(store persistence.Store, reg *registry.Registry, runner Runner, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = log.Discard()
	}

	return &Workflow{
		store:    store,
		registry: reg,
		runner:   runner,
		logger:   logger.With("module", "workflow_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.store == nil {
		return "Persistence layer not initialized", false
	}

	if err := w.store.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (w *Workflow) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return w.store.ListWorkflows(ctx)
}

func (w *Workflow) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	return w.store.GetWorkflow(ctx, id)
}

// Validate checks the definition against the registered executors.
func (w *Workflow) Validate(wf *models.Workflow) error {
	if wf == nil {
		return ErrWorkflowNil
	}

	return w.registry.ValidateWorkflow(wf)
}

// Save validates and stores a workflow definition. Stored run counters are
// not touched by a save.
func (w *Workflow) Save(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	if err := w.Validate(wf); err != nil {
		return nil, err
	}

	if err := w.store.SaveWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return w.store.GetWorkflow(ctx, wf.ID)
}

// ExecuteRequest describes an on-demand execution.
type ExecuteRequest struct {
	WorkflowID  string
	Input       map[string]any
	TriggeredBy string
	Async       bool
}

// Execute runs a stored workflow with trigger type api. Inactive workflows
// are refused. With Async set, the run continues in the background and the
// returned record only carries the pre-assigned execution id.
func (w *Workflow) Execute(ctx context.Context, req ExecuteRequest) (*models.WorkflowExecution, error) {
	wf, err := w.store.GetWorkflow(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}

	if !wf.IsActive {
		return nil, NewValidationError("Execute", "workflow_inactive", "workflow "+wf.ID+" is not active", ErrWorkflowInactive)
	}

	trigger := workflow.Trigger{
		Type:        models.TriggerTypeAPI,
		TriggeredBy: req.TriggeredBy,
		ExecutionID: uuid.NewString(),
	}

	if !req.Async {
		return w.runner.Execute(ctx, wf, req.Input, trigger)
	}

	runCtx := context.WithoutCancel(ctx)

	w.async.Add(1)

	go func() {
		defer w.async.Done()

		if _, err := w.runner.Execute(runCtx, wf, req.Input, trigger); err != nil {
			w.logger.ErrorContext(runCtx, "Background execution failed", "workflow_id", wf.ID, "execution_id", trigger.ExecutionID, "error", err)
		}
	}()

	return &models.WorkflowExecution{
		ExecutionID: trigger.ExecutionID,
		WorkflowID:  wf.ID,
		Status:      models.ExecutionStatusPending,
		TriggerType: trigger.Type,
		TriggeredBy: trigger.TriggeredBy,
	}, nil
}

// Wait blocks until background executions have finished or ctx is done.
func (w *Workflow) Wait(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		w.async.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExecutionDetails is an execution record with its node records.
type ExecutionDetails struct {
	Execution *models.WorkflowExecution       `json:"execution"`
	Nodes     []*models.WorkflowNodeExecution `json:"nodes"`
}

func (w *Workflow) GetExecution(ctx context.Context, executionID string) (*ExecutionDetails, error) {
	execution, err := w.store.GetExecution(ctx, executionID)
	if err != nil {
		return nil, err
	}

	nodes, err := w.store.ListNodeExecutions(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list node executions: %w", err)
	}

	return &ExecutionDetails{Execution: execution, Nodes: nodes}, nil
}

// ListExecutions returns the newest executions of a workflow first.
func (w *Workflow) ListExecutions(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	if limit < 0 || limit > 500 {
		return nil, NewValidationError("ListExecutions", "invalid_limit", "limit must be between 0 and 500", ErrInvalidRequest)
	}

	if _, err := w.store.GetWorkflow(ctx, workflowID); err != nil {
		return nil, err
	}

	return w.store.ListExecutions(ctx, workflowID, limit)
}
