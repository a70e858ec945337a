package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

// MockStore is a mock implementation of persistence.Store interface.
type MockStore struct {
	mock.Mock
}

var _ persistence.Store = (*MockStore)(nil)

func (m *MockStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockStore) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockStore) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockStore) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Workflow), args.Error(1)
}

func (m *MockStore) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockStore) RecordWorkflowRun(ctx context.Context, workflowID string, success bool, at time.Time) error {
	args := m.Called(ctx, workflowID, success, at)

	return args.Error(0)
}

func (m *MockStore) CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

func (m *MockStore) UpdateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

func (m *MockStore) GetExecution(ctx context.Context, executionID string) (*models.WorkflowExecution, error) {
	args := m.Called(ctx, executionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowExecution), args.Error(1)
}

func (m *MockStore) ListExecutions(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	args := m.Called(ctx, workflowID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowExecution), args.Error(1)
}

func (m *MockStore) CreateNodeExecution(ctx context.Context, record *models.WorkflowNodeExecution) error {
	args := m.Called(ctx, record)

	return args.Error(0)
}

func (m *MockStore) UpdateNodeExecution(ctx context.Context, record *models.WorkflowNodeExecution) error {
	args := m.Called(ctx, record)

	return args.Error(0)
}

func (m *MockStore) ListNodeExecutions(ctx context.Context, executionID string) ([]*models.WorkflowNodeExecution, error) {
	args := m.Called(ctx, executionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowNodeExecution), args.Error(1)
}

func (m *MockStore) GetSchedule(ctx context.Context, id string) (*models.WorkflowSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowSchedule), args.Error(1)
}

func (m *MockStore) SaveSchedule(ctx context.Context, schedule *models.WorkflowSchedule) error {
	args := m.Called(ctx, schedule)

	return args.Error(0)
}

func (m *MockStore) UpdateSchedule(ctx context.Context, schedule *models.WorkflowSchedule) error {
	args := m.Called(ctx, schedule)

	return args.Error(0)
}

func (m *MockStore) DeleteSchedule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockStore) ListActiveSchedules(ctx context.Context) ([]*models.WorkflowSchedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowSchedule), args.Error(1)
}

func (m *MockStore) RecordScheduleRun(ctx context.Context, scheduleID string, success bool, ranAt time.Time, nextRunAt *time.Time) error {
	args := m.Called(ctx, scheduleID, success, ranAt, nextRunAt)

	return args.Error(0)
}
