// Package persistencetest holds the behavioural checks every Store
// implementation must pass.
package persistencetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) persistence.Store

// SampleWorkflow builds a start -> log -> end workflow with the given id.
func SampleWorkflow(id string) *models.Workflow {
	return &models.Workflow{
		ID:        id,
		Code:      "wf-" + id,
		Name:      "Sample " + id,
		IsActive:  true,
		Variables: map[string]any{"site": "north"},
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeStart, Name: "Start"},
			{ID: "log", Type: models.NodeTypeLog, Name: "Log", Properties: models.Properties{"message": "hello ${site}"}},
			{ID: "end", Type: models.NodeTypeEnd, Name: "End"},
		},
		Connections: []*models.Connection{
			{ID: "c1", FromNodeID: "start", ToNodeID: "log"},
			{ID: "c2", FromNodeID: "log", ToNodeID: "end"},
		},
	}
}

// SampleExecution builds a running manual execution of workflowID.
func SampleExecution(id, workflowID string) *models.WorkflowExecution {
	return &models.WorkflowExecution{
		ExecutionID: id,
		WorkflowID:  workflowID,
		Status:      models.ExecutionStatusRunning,
		TriggerType: models.TriggerTypeManual,
		StartedAt:   time.Now().UTC(),
		NodeStates:  map[string]models.NodeState{},
	}
}

// RunStoreSuite exercises the full Store contract against factory.
func RunStoreSuite(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("workflows", func(t *testing.T) { testWorkflows(t, factory(t)) })
	t.Run("workflow run counters", func(t *testing.T) { testWorkflowRuns(t, factory(t)) })
	t.Run("executions", func(t *testing.T) { testExecutions(t, factory(t)) })
	t.Run("node executions", func(t *testing.T) { testNodeExecutions(t, factory(t)) })
	t.Run("schedules", func(t *testing.T) { testSchedules(t, factory(t)) })
	t.Run("health", func(t *testing.T) {
		require.NoError(t, factory(t).HealthCheck(t.Context()))
	})
}

func testWorkflows(t *testing.T, store persistence.Store) {
	ctx := t.Context()

	_, err := store.GetWorkflow(ctx, "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	workflow := SampleWorkflow("wf-1")
	require.NoError(t, store.SaveWorkflow(ctx, workflow))
	require.NoError(t, store.SaveWorkflow(ctx, SampleWorkflow("wf-2")))

	got, err := store.GetWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Sample wf-1", got.Name)
	assert.Equal(t, "wf-wf-1", got.Code)
	assert.Len(t, got.Nodes, 3)
	assert.Len(t, got.Connections, 2)
	assert.Equal(t, "hello ${site}", got.Nodes[1].Properties.String("message", ""))
	assert.Equal(t, "north", got.Variables["site"])
	assert.False(t, got.CreatedAt.IsZero())

	got.Name = "mutated"
	again, err := store.GetWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Sample wf-1", again.Name)

	all, err := store.ListWorkflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testWorkflowRuns(t *testing.T, store persistence.Store) {
	ctx := t.Context()

	require.NoError(t, store.SaveWorkflow(ctx, SampleWorkflow("wf-runs")))

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordWorkflowRun(ctx, "wf-runs", true, at))
	require.NoError(t, store.RecordWorkflowRun(ctx, "wf-runs", false, at.Add(time.Minute)))
	require.NoError(t, store.RecordWorkflowRun(ctx, "wf-runs", true, at.Add(2*time.Minute)))

	got, err := store.GetWorkflow(ctx, "wf-runs")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ExecutionCount)
	assert.Equal(t, int64(2), got.SuccessCount)
	assert.Equal(t, int64(1), got.FailureCount)
	require.NotNil(t, got.LastExecutedAt)
	assert.True(t, got.LastExecutedAt.Equal(at.Add(2*time.Minute)))

	err = store.RecordWorkflowRun(ctx, "missing", true, at)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func testExecutions(t *testing.T, store persistence.Store) {
	ctx := t.Context()

	require.NoError(t, store.SaveWorkflow(ctx, SampleWorkflow("wf-exec")))

	started := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := range 3 {
		execution := &models.WorkflowExecution{
			ExecutionID: fmt.Sprintf("exec-%d", i),
			WorkflowID:  "wf-exec",
			Status:      models.ExecutionStatusRunning,
			TriggerType: models.TriggerTypeManual,
			TriggerData: map[string]any{"n": float64(i)},
			StartedAt:   started.Add(time.Duration(i) * time.Second),
			NodeStates:  map[string]models.NodeState{},
		}
		require.NoError(t, store.CreateExecution(ctx, execution))
	}

	execution, err := store.GetExecution(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)

	completed := started.Add(time.Minute)
	execution.Status = models.ExecutionStatusSuccess
	execution.CompletedAt = &completed
	execution.DurationMs = 60000
	execution.ExecutionPath = []string{"start", "log", "end"}
	execution.NodeStates = map[string]models.NodeState{
		"start": {Status: models.NodeStatusSuccess, Sequence: 1},
		"end":   {Status: models.NodeStatusSuccess, Sequence: 3, Output: map[string]any{"ok": true}},
	}
	execution.Result = map[string]any{"outputs": map[string]any{"answer": float64(42)}}
	require.NoError(t, store.UpdateExecution(ctx, execution))

	got, err := store.GetExecution(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, got.Status)
	assert.Equal(t, []string{"start", "log", "end"}, got.ExecutionPath)
	assert.Equal(t, int64(60000), got.DurationMs)
	assert.Equal(t, true, got.NodeStates["end"].Output["ok"])
	require.NotNil(t, got.CompletedAt)

	listed, err := store.ListExecutions(ctx, "wf-exec", 2)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "exec-2", listed[0].ExecutionID)
	assert.Equal(t, "exec-1", listed[1].ExecutionID)

	_, err = store.GetExecution(ctx, "missing")
	assert.True(t, persistence.IsNotFound(err))

	err = store.UpdateExecution(ctx, &models.WorkflowExecution{ExecutionID: "missing", WorkflowID: "wf-exec"})
	assert.True(t, persistence.IsNotFound(err))
}

func testNodeExecutions(t *testing.T, store persistence.Store) {
	ctx := t.Context()

	require.NoError(t, store.SaveWorkflow(ctx, SampleWorkflow("wf-nodes")))
	require.NoError(t, store.CreateExecution(ctx, &models.WorkflowExecution{
		ExecutionID: "exec-nodes",
		WorkflowID:  "wf-nodes",
		Status:      models.ExecutionStatusRunning,
		StartedAt:   time.Now().UTC(),
	}))

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, nodeID := range []string{"start", "log", "end"} {
		require.NoError(t, store.CreateNodeExecution(ctx, &models.WorkflowNodeExecution{
			ID:          "exec-nodes-" + nodeID,
			ExecutionID: "exec-nodes",
			NodeID:      nodeID,
			NodeType:    nodeID,
			Sequence:    i + 1,
			Status:      models.NodeStatusRunning,
			StartedAt:   base.Add(time.Duration(i) * time.Second),
			InputData:   map[string]any{"step": float64(i)},
		}))
	}

	finished := base.Add(5 * time.Second)
	require.NoError(t, store.UpdateNodeExecution(ctx, &models.WorkflowNodeExecution{
		ID:           "exec-nodes-log",
		ExecutionID:  "exec-nodes",
		NodeID:       "log",
		NodeType:     "log",
		Sequence:     2,
		Status:       models.NodeStatusFailed,
		StartedAt:    base.Add(time.Second),
		CompletedAt:  &finished,
		DurationMs:   4000,
		ErrorMessage: "boom",
		OutputData:   map[string]any{"logged_message": "x"},
	}))

	records, err := store.ListNodeExecutions(ctx, "exec-nodes")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "start", records[0].NodeID)
	assert.Equal(t, "log", records[1].NodeID)
	assert.Equal(t, "end", records[2].NodeID)
	assert.Equal(t, models.NodeStatusFailed, records[1].Status)
	assert.Equal(t, "boom", records[1].ErrorMessage)
	assert.Equal(t, "x", records[1].OutputData["logged_message"])

	err = store.UpdateNodeExecution(ctx, &models.WorkflowNodeExecution{ID: "nope", ExecutionID: "exec-nodes"})
	assert.True(t, persistence.IsNotFound(err))
}

func testSchedules(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	_, err := store.GetSchedule(ctx, "missing")
	assert.True(t, persistence.IsNotFound(err))

	require.NoError(t, store.SaveWorkflow(ctx, SampleWorkflow("wf-sched")))

	active := &models.WorkflowSchedule{
		ID:             "sched-1",
		WorkflowID:     "wf-sched",
		ScheduleType:   models.ScheduleTypeInterval,
		ScheduleConfig: models.Properties{"interval_value": float64(5), "interval_unit": "minutes"},
		IsActive:       true,
	}
	inactive := &models.WorkflowSchedule{
		ID:           "sched-2",
		WorkflowID:   "wf-sched",
		ScheduleType: models.ScheduleTypeDaily,
		IsActive:     false,
	}

	require.NoError(t, store.SaveSchedule(ctx, active))
	require.NoError(t, store.SaveSchedule(ctx, inactive))

	schedules, err := store.ListActiveSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, "sched-1", schedules[0].ID)
	assert.Equal(t, "minutes", schedules[0].ScheduleConfig.String("interval_unit", ""))

	ranAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	next := ranAt.Add(5 * time.Minute)
	require.NoError(t, store.RecordScheduleRun(ctx, "sched-1", true, ranAt, &next))
	require.NoError(t, store.RecordScheduleRun(ctx, "sched-1", false, next, nil))

	got, err := store.GetSchedule(ctx, "sched-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.RunCount)
	assert.Equal(t, int64(1), got.SuccessCount)
	assert.Equal(t, int64(1), got.FailureCount)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, got.LastRunAt.Equal(next))
	assert.Nil(t, got.NextRunAt)

	got.ScheduleConfig = models.Properties{"interval_value": float64(10), "interval_unit": "minutes"}
	got.RunCount = 0
	require.NoError(t, store.UpdateSchedule(ctx, got))

	got, err = store.GetSchedule(ctx, "sched-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.RunCount)
	assert.InDelta(t, 10, got.ScheduleConfig.Float("interval_value", 0), 0)

	inactive.IsActive = true
	require.NoError(t, store.UpdateSchedule(ctx, inactive))

	schedules, err = store.ListActiveSchedules(ctx)
	require.NoError(t, err)
	assert.Len(t, schedules, 2)

	require.NoError(t, store.DeleteSchedule(ctx, "sched-2"))
	_, err = store.GetSchedule(ctx, "sched-2")
	assert.True(t, persistence.IsNotFound(err))

	err = store.UpdateSchedule(ctx, &models.WorkflowSchedule{ID: "ghost", WorkflowID: "wf-sched", ScheduleType: models.ScheduleTypeOnce})
	assert.True(t, persistence.IsNotFound(err))

	err = store.RecordScheduleRun(ctx, "ghost", true, ranAt, nil)
	assert.True(t, persistence.IsNotFound(err))
}
