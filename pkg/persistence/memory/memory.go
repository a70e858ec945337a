// Package memory provides an in-process persistence implementation used by
// tests and single-node deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

// Persistence keeps every record in maps guarded by a single RWMutex.
// Records are copied on the way in and out.
type Persistence struct {
	mu sync.RWMutex

	workflows      map[string]*models.Workflow
	executions     map[string]*models.WorkflowExecution
	executionOrder []string
	nodeExecutions map[string][]*models.WorkflowNodeExecution
	schedules      map[string]*models.WorkflowSchedule
	closed         bool
}

var _ persistence.Store = (*Persistence)(nil)

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{
		workflows:      make(map[string]*models.Workflow),
		executions:     make(map[string]*models.WorkflowExecution),
		nodeExecutions: make(map[string][]*models.WorkflowNodeExecution),
		schedules:      make(map[string]*models.WorkflowSchedule),
	}
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return persistence.ErrClosed
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true

	return nil
}

func (p *Persistence) GetWorkflow(_ context.Context, id string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflow, ok := p.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("GetWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return workflow.Copy(), nil
}

func (p *Persistence) ListWorkflows(_ context.Context) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(p.workflows))
	for _, workflow := range p.workflows {
		workflows = append(workflows, workflow.Copy())
	}

	sort.Slice(workflows, func(i, j int) bool { return workflows[i].ID < workflows[j].ID })

	return workflows, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now
	p.workflows[workflow.ID] = workflow.Copy()

	return nil
}

func (p *Persistence) RecordWorkflowRun(_ context.Context, workflowID string, success bool, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	workflow, ok := p.workflows[workflowID]
	if !ok {
		return persistence.NewWorkflowError("RecordWorkflowRun", workflowID, persistence.ErrWorkflowNotFound)
	}

	persistence.ApplyWorkflowRun(workflow, success, at)

	return nil
}

func (p *Persistence) CreateExecution(_ context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.executions[execution.ExecutionID]; exists {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, persistence.ErrAlreadyExists)
	}

	p.executions[execution.ExecutionID] = execution.Copy()
	p.executionOrder = append(p.executionOrder, execution.ExecutionID)

	return nil
}

func (p *Persistence) UpdateExecution(_ context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.executions[execution.ExecutionID]; !exists {
		return persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, persistence.ErrExecutionNotFound)
	}

	p.executions[execution.ExecutionID] = execution.Copy()

	return nil
}

func (p *Persistence) GetExecution(_ context.Context, executionID string) (*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	execution, ok := p.executions[executionID]
	if !ok {
		return nil, persistence.NewExecutionError("GetExecution", executionID, persistence.ErrExecutionNotFound)
	}

	return execution.Copy(), nil
}

func (p *Persistence) ListExecutions(_ context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var executions []*models.WorkflowExecution

	for i := len(p.executionOrder) - 1; i >= 0; i-- {
		execution := p.executions[p.executionOrder[i]]
		if workflowID != "" && execution.WorkflowID != workflowID {
			continue
		}

		executions = append(executions, execution.Copy())
		if limit > 0 && len(executions) == limit {
			break
		}
	}

	return executions, nil
}

func (p *Persistence) CreateNodeExecution(_ context.Context, nodeExecution *models.WorkflowNodeExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.nodeExecutions[nodeExecution.ExecutionID] {
		if existing.ID == nodeExecution.ID {
			return persistence.NewNodeExecutionError("CreateNodeExecution", nodeExecution.ID, persistence.ErrAlreadyExists)
		}
	}

	p.nodeExecutions[nodeExecution.ExecutionID] = append(p.nodeExecutions[nodeExecution.ExecutionID], nodeExecution.Copy())

	return nil
}

func (p *Persistence) UpdateNodeExecution(_ context.Context, nodeExecution *models.WorkflowNodeExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	records := p.nodeExecutions[nodeExecution.ExecutionID]
	for i, existing := range records {
		if existing.ID == nodeExecution.ID {
			records[i] = nodeExecution.Copy()

			return nil
		}
	}

	return persistence.NewNodeExecutionError("UpdateNodeExecution", nodeExecution.ID, persistence.ErrNodeExecutionNotFound)
}

func (p *Persistence) ListNodeExecutions(_ context.Context, executionID string) ([]*models.WorkflowNodeExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	records := p.nodeExecutions[executionID]
	out := make([]*models.WorkflowNodeExecution, 0, len(records))

	for _, record := range records {
		out = append(out, record.Copy())
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })

	return out, nil
}

func (p *Persistence) GetSchedule(_ context.Context, id string) (*models.WorkflowSchedule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	schedule, ok := p.schedules[id]
	if !ok {
		return nil, persistence.NewScheduleError("GetSchedule", id, persistence.ErrScheduleNotFound)
	}

	return schedule.Copy(), nil
}

func (p *Persistence) SaveSchedule(_ context.Context, schedule *models.WorkflowSchedule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}

	schedule.UpdatedAt = now
	p.schedules[schedule.ID] = schedule.Copy()

	return nil
}

func (p *Persistence) UpdateSchedule(_ context.Context, schedule *models.WorkflowSchedule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.schedules[schedule.ID]
	if !ok {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, persistence.ErrScheduleNotFound)
	}

	persistence.KeepScheduleRuns(schedule, stored.Copy())
	schedule.UpdatedAt = time.Now().UTC()
	p.schedules[schedule.ID] = schedule.Copy()

	return nil
}

func (p *Persistence) DeleteSchedule(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.schedules[id]; !ok {
		return persistence.NewScheduleError("DeleteSchedule", id, persistence.ErrScheduleNotFound)
	}

	delete(p.schedules, id)

	return nil
}

func (p *Persistence) ListActiveSchedules(_ context.Context) ([]*models.WorkflowSchedule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var schedules []*models.WorkflowSchedule

	for _, schedule := range p.schedules {
		if schedule.IsActive {
			schedules = append(schedules, schedule.Copy())
		}
	}

	sort.Slice(schedules, func(i, j int) bool { return schedules[i].ID < schedules[j].ID })

	return schedules, nil
}

func (p *Persistence) RecordScheduleRun(_ context.Context, scheduleID string, success bool, ranAt time.Time, nextRunAt *time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	schedule, ok := p.schedules[scheduleID]
	if !ok {
		return persistence.NewScheduleError("RecordScheduleRun", scheduleID, persistence.ErrScheduleNotFound)
	}

	persistence.ApplyScheduleRun(schedule, success, ranAt, nextRunAt)

	return nil
}
