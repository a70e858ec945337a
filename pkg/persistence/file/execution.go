package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

func (p *Persistence) CreateExecution(_ context.Context, execution *models.WorkflowExecution) error {
	if err := validateID(execution.ExecutionID); err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	path := p.path(executionsDir, execution.ExecutionID)
	if exists(path) {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, persistence.ErrAlreadyExists)
	}

	if err := writeJSON(path, execution); err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ExecutionID, err)
	}

	return nil
}

func (p *Persistence) UpdateExecution(_ context.Context, execution *models.WorkflowExecution) error {
	if err := validateID(execution.ExecutionID); err != nil {
		return persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	path := p.path(executionsDir, execution.ExecutionID)
	if !exists(path) {
		return persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, persistence.ErrExecutionNotFound)
	}

	if err := writeJSON(path, execution); err != nil {
		return persistence.NewExecutionError("UpdateExecution", execution.ExecutionID, err)
	}

	return nil
}

func (p *Persistence) GetExecution(_ context.Context, executionID string) (*models.WorkflowExecution, error) {
	if err := validateID(executionID); err != nil {
		return nil, persistence.NewExecutionError("GetExecution", executionID, err)
	}

	var execution models.WorkflowExecution

	if err := readJSON(p.path(executionsDir, executionID), &execution); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = persistence.ErrExecutionNotFound
		}

		return nil, persistence.NewExecutionError("GetExecution", executionID, err)
	}

	return &execution, nil
}

// ListExecutions returns the newest executions first. An empty workflowID
// lists every workflow; limit <= 0 means no limit.
func (p *Persistence) ListExecutions(_ context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	entries, err := os.ReadDir(filepath.Join(p.root, executionsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.WorkflowExecution{}, nil
		}

		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.WorkflowExecution, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		var execution models.WorkflowExecution
		if err := readJSON(filepath.Join(p.root, executionsDir, entry.Name()), &execution); err != nil {
			return nil, err
		}

		if workflowID != "" && execution.WorkflowID != workflowID {
			continue
		}

		executions = append(executions, &execution)
	}

	sort.Slice(executions, func(i, j int) bool {
		if executions[i].StartedAt.Equal(executions[j].StartedAt) {
			return executions[i].ExecutionID > executions[j].ExecutionID
		}

		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	if limit > 0 && len(executions) > limit {
		executions = executions[:limit]
	}

	return executions, nil
}

func (p *Persistence) nodeExecutionPath(executionID, id string) string {
	return filepath.Join(p.root, nodeExecutionsDir, executionID, id+".json")
}

func (p *Persistence) CreateNodeExecution(_ context.Context, record *models.WorkflowNodeExecution) error {
	if err := validateNodeExecution(record); err != nil {
		return persistence.NewNodeExecutionError("CreateNodeExecution", record.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	path := p.nodeExecutionPath(record.ExecutionID, record.ID)
	if exists(path) {
		return persistence.NewNodeExecutionError("CreateNodeExecution", record.ID, persistence.ErrAlreadyExists)
	}

	if err := writeJSON(path, record); err != nil {
		return persistence.NewNodeExecutionError("CreateNodeExecution", record.ID, err)
	}

	return nil
}

func (p *Persistence) UpdateNodeExecution(_ context.Context, record *models.WorkflowNodeExecution) error {
	if err := validateNodeExecution(record); err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	path := p.nodeExecutionPath(record.ExecutionID, record.ID)
	if !exists(path) {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, persistence.ErrNodeExecutionNotFound)
	}

	if err := writeJSON(path, record); err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", record.ID, err)
	}

	return nil
}

// ListNodeExecutions returns the node records of an execution in visit order.
func (p *Persistence) ListNodeExecutions(_ context.Context, executionID string) ([]*models.WorkflowNodeExecution, error) {
	if err := validateID(executionID); err != nil {
		return nil, persistence.NewExecutionError("ListNodeExecutions", executionID, err)
	}

	dir := filepath.Join(p.root, nodeExecutionsDir, executionID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.WorkflowNodeExecution{}, nil
		}

		return nil, fmt.Errorf("failed to list node executions of %s: %w", executionID, err)
	}

	records := make([]*models.WorkflowNodeExecution, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		var record models.WorkflowNodeExecution
		if err := readJSON(filepath.Join(dir, entry.Name()), &record); err != nil {
			return nil, err
		}

		records = append(records, &record)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Sequence < records[j].Sequence })

	return records, nil
}

func validateNodeExecution(record *models.WorkflowNodeExecution) error {
	if err := validateID(record.ExecutionID); err != nil {
		return err
	}

	return validateID(record.ID)
}
