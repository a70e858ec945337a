package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/metrics"
	"github.com/fieldflow/orchestrator/pkg/mocks"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence/memory"
	"github.com/fieldflow/orchestrator/pkg/persistence/persistencetest"
	"github.com/fieldflow/orchestrator/pkg/protocol"
	"github.com/fieldflow/orchestrator/pkg/registry"
	"github.com/fieldflow/orchestrator/pkg/scheduler"
	"github.com/fieldflow/orchestrator/pkg/services"
	"github.com/fieldflow/orchestrator/pkg/web"
	"github.com/fieldflow/orchestrator/pkg/workflow"
)

type testApp struct {
	app       *fiber.App
	store     *memory.Persistence
	workflows *services.Workflow
	scheduler *scheduler.Scheduler
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	store := memory.NewPersistence()
	require.NoError(t, store.SaveWorkflow(t.Context(), persistencetest.SampleWorkflow("wf-1")))

	m := metrics.New()
	reg := registry.NewDefaultRegistry(protocol.Dependencies{Logger: log.Discard(), HTTPClient: http.DefaultClient})
	engine := workflow.NewEngine(store, reg, log.Discard(), workflow.WithMetrics(m))

	s := scheduler.New(store, engine, log.Discard(), scheduler.WithLocation(time.UTC))
	require.NoError(t, s.Start(t.Context()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	workflowService := services.NewWorkflow(store, reg, engine, log.Discard())
	scheduleService := services.NewSchedule(store, s, log.Discard())
	handlers := web.NewAPIHandlers(workflowService, scheduleService, validator.New(validator.WithRequiredStructEnabled()), reg, log.Discard())

	return &testApp{
		app:       web.NewApp(handlers, m.Handler()),
		store:     store,
		workflows: workflowService,
		scheduler: s,
	}
}

func (a *testApp) do(t *testing.T, method, target string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))

	return out
}

func TestAPIHandlers_Health(t *testing.T) {
	t.Parallel()

	a := setupTestApp(t)

	status, body := a.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)

	health := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "Scheduler is running", health["checkers"].(map[string]any)["scheduler"])
}

func TestAPIHandlers_HealthUnhealthyStore(t *testing.T) {
	t.Parallel()

	store := &mocks.MockStore{}
	store.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

	reg := registry.NewRegistry(log.Discard())
	handlers := web.NewAPIHandlers(
		services.NewWorkflow(store, reg, nil, nil),
		services.NewSchedule(store, nil, nil),
		validator.New(),
		reg,
		nil,
	)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := web.NewApp(handlers, nil).Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	store.AssertExpectations(t)
}

func TestAPIHandlers_Workflows(t *testing.T) {
	t.Parallel()

	a := setupTestApp(t)

	status, body := a.do(t, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, decode[map[string]any](t, body)["total_count"])

	status, body = a.do(t, http.MethodGet, "/workflows/wf-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Sample wf-1", decode[models.Workflow](t, body).Name)

	status, body = a.do(t, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "workflow_not_found", decode[map[string]any](t, body)["type"])

	definition := persistencetest.SampleWorkflow("ignored")
	definition.Name = "Pump check"

	status, body = a.do(t, http.MethodPut, "/workflows/wf-2", definition)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "wf-2", decode[models.Workflow](t, body).ID)

	definition.Connections = append(definition.Connections, &models.Connection{FromNodeID: "end", ToNodeID: "ghost"})

	status, _ = a.do(t, http.MethodPut, "/workflows/wf-3", definition)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodPut, "/workflows/wf-3", map[string]any{"nodes": []any{}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodGet, "/node-types", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode[[]map[string]any](t, body))
}

func TestAPIHandlers_ValidateWorkflow(t *testing.T) {
	t.Parallel()

	a := setupTestApp(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantValid  bool
		wantIssues bool
	}{
		{
			name:       "valid definition",
			body:       persistencetest.SampleWorkflow("wf-x"),
			wantStatus: http.StatusOK,
			wantValid:  true,
		},
		{
			name: "missing start node",
			body: &models.Workflow{
				ID:    "wf-y",
				Nodes: []*models.Node{{ID: "end", Type: models.NodeTypeEnd}},
			},
			wantStatus: http.StatusOK,
			wantIssues: true,
		},
		{
			name:       "malformed json",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := a.do(t, http.MethodPost, "/workflows/validate", tt.body)
			require.Equal(t, tt.wantStatus, status, string(body))

			if status != http.StatusOK {
				return
			}

			result := decode[web.ValidateWorkflowResponse](t, body)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantIssues, len(result.Issues) > 0)
		})
	}
}

func TestAPIHandlers_ExecuteWorkflow(t *testing.T) {
	t.Parallel()

	a := setupTestApp(t)

	status, body := a.do(t, http.MethodPost, "/workflows/wf-1/execute", web.ExecuteWorkflowRequest{
		Input:       map[string]any{"site": "south"},
		TriggeredBy: "operator",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	execution := decode[models.WorkflowExecution](t, body)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, models.TriggerTypeAPI, execution.TriggerType)

	status, body = a.do(t, http.MethodGet, "/executions/"+execution.ExecutionID, nil)
	require.Equal(t, http.StatusOK, status)

	details := decode[services.ExecutionDetails](t, body)
	assert.Equal(t, execution.ExecutionID, details.Execution.ExecutionID)
	assert.Len(t, details.Nodes, 3)

	status, body = a.do(t, http.MethodGet, "/workflows/wf-1/executions?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[map[string][]any](t, body)["executions"], 1)

	status, _ = a.do(t, http.MethodGet, "/workflows/wf-1/executions?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodGet, "/executions/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(t, http.MethodPost, "/workflows/missing/execute", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(t, http.MethodPost, "/workflows/wf-1/execute?async=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "orchestrator_executions_total")
}

func TestAPIHandlers_ExecuteWorkflowAsync(t *testing.T) {
	t.Parallel()

	a := setupTestApp(t)

	status, body := a.do(t, http.MethodPost, "/workflows/wf-1/execute?async=true", nil)
	require.Equal(t, http.StatusAccepted, status, string(body))

	accepted := decode[web.ExecuteWorkflowResponse](t, body)
	assert.Equal(t, models.ExecutionStatusPending, accepted.Status)
	require.NotEmpty(t, accepted.ExecutionID)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	require.NoError(t, a.workflows.Wait(ctx))

	execution, err := a.store.GetExecution(t.Context(), accepted.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
}

func TestAPIHandlers_ExecuteInactiveWorkflow(t *testing.T) {
	t.Parallel()

	a := setupTestApp(t)

	inactive := persistencetest.SampleWorkflow("wf-off")
	inactive.IsActive = false
	require.NoError(t, a.store.SaveWorkflow(t.Context(), inactive))

	status, _ := a.do(t, http.MethodPost, "/workflows/wf-off/execute", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_Schedules(t *testing.T) {
	t.Parallel()

	a := setupTestApp(t)

	status, body := a.do(t, http.MethodPost, "/scheduler/schedules", web.ScheduleRequest{
		ID:             "s-1",
		WorkflowID:     "wf-1",
		ScheduleType:   "cron",
		ScheduleConfig: map[string]any{"cron_expression": "*/5 * * * *"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	created := decode[services.ScheduleResult](t, body)
	assert.True(t, created.Schedule.IsActive)
	require.NotNil(t, created.Job)
	assert.Equal(t, "cron */5 * * * *", created.Job.Trigger)

	status, _ = a.do(t, http.MethodPost, "/scheduler/schedules", web.ScheduleRequest{
		ID: "s-1", WorkflowID: "wf-1", ScheduleType: "cron",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = a.do(t, http.MethodPost, "/scheduler/schedules", web.ScheduleRequest{
		WorkflowID: "wf-1", ScheduleType: "fortnightly",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodGet, "/scheduler/jobs", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[map[string][]scheduler.JobInfo](t, body)["jobs"], 1)

	status, body = a.do(t, http.MethodGet, "/scheduler/jobs/wf-1/s-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "workflow_wf-1_schedule_s-1", decode[scheduler.JobInfo](t, body).ID)

	status, _ = a.do(t, http.MethodGet, "/scheduler/jobs/wf-1/s-9", nil)
	assert.Equal(t, http.StatusNotFound, status)

	inactive := false
	status, body = a.do(t, http.MethodPut, "/scheduler/schedules/s-1", web.ScheduleRequest{
		WorkflowID:     "wf-1",
		ScheduleType:   "interval",
		ScheduleConfig: map[string]any{"interval_value": 2, "interval_unit": "hours"},
		IsActive:       &inactive,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	updated := decode[services.ScheduleResult](t, body)
	assert.False(t, updated.Schedule.IsActive)
	assert.Nil(t, updated.Job)

	status, _ = a.do(t, http.MethodGet, "/scheduler/schedules/s-1", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodDelete, "/scheduler/schedules/s-1", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = a.do(t, http.MethodDelete, "/scheduler/schedules/s-1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "schedule_not_found", decode[map[string]any](t, body)["type"])
}

func TestAPIHandlers_SchedulerStopped(t *testing.T) {
	t.Parallel()

	a := setupTestApp(t)
	require.NoError(t, a.scheduler.Stop(t.Context()))

	status, body := a.do(t, http.MethodGet, "/scheduler/jobs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "scheduler_unavailable", decode[map[string]any](t, body)["type"])
}
