package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(WorkflowExecutionStartedEvent, "wf-123")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, WorkflowExecutionStartedEvent, event.Type)
	assert.Equal(t, "wf-123", event.WorkflowID)
	assert.False(t, event.Timestamp.IsZero())
	assert.NotNil(t, event.Metadata)
}

func TestEventTypes(t *testing.T) {
	cases := []struct {
		event interface{ GetType() EventType }
		want  EventType
	}{
		{WorkflowExecutionStarted{}, WorkflowExecutionStartedEvent},
		{WorkflowExecutionCompleted{}, WorkflowExecutionCompletedEvent},
		{WorkflowExecutionFailed{}, WorkflowExecutionFailedEvent},
		{NodeExecutionFinished{}, NodeExecutionFinishedEvent},
		{NodeExecutionFailed{}, NodeExecutionFailedEvent},
		{ScheduleFired{}, ScheduleFiredEvent},
		{ScheduleSkipped{}, ScheduleSkippedEvent},
	}

	for _, tc := range cases {
		t.Run(string(tc.want), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.event.GetType())

			decoded, ok := Decode(tc.want)
			require.True(t, ok)
			assert.Equal(t, tc.want, decoded.(interface{ GetType() EventType }).GetType())
		})
	}

	_, ok := Decode("unknown.event")
	assert.False(t, ok)
}

func TestWorkflowExecutionFailed_JSON(t *testing.T) {
	original := WorkflowExecutionFailed{
		BaseEvent:     NewBaseEvent(WorkflowExecutionFailedEvent, "wf-1"),
		ExecutionID:   "exec-1",
		Status:        "failed",
		DurationMs:    1200,
		NodeID:        "http-1",
		Error:         `node "Call API" failed: HTTP 500: boom`,
		NodesExecuted: 2,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"workflow.execution.failed"`)
	assert.Contains(t, string(data), `"node_id":"http-1"`)

	var decoded WorkflowExecutionFailed
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original.ExecutionID, decoded.ExecutionID)
	assert.Equal(t, original.Error, decoded.Error)
	assert.Equal(t, original.NodesExecuted, decoded.NodesExecuted)
}
