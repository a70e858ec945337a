package alarm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/mocks"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

func TestAlarmTrigger(t *testing.T) {
	alarms := &mocks.MockAlarmService{}
	alarms.On("Trigger", mock.Anything, protocol.Alarm{
		Type:     "temperature",
		Level:    "critical",
		Title:    "Overheat on pump-1",
		Content:  "reading 95",
		DeviceID: "pump-1",
	}).Return("alarm-42", nil)

	node := &models.Node{
		ID:   "raise",
		Type: models.NodeTypeAlarmTrigger,
		Properties: models.Properties{
			"alarmType": "temperature",
			"level":     "CRITICAL",
			"title":     "Overheat on ${device}",
			"content":   "reading ${reading}",
			"deviceId":  "${device}",
		},
	}

	result, err := NewExecutor(models.NodeTypeAlarmTrigger, alarms).Execute(context.Background(), node, models.ExecutionContext{
		"device":  "pump-1",
		"reading": float64(95),
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "alarm-42", result.Output[AlarmIDKey])
	alarms.AssertExpectations(t)
}

func TestAlarmClear_UsesContextAlarmID(t *testing.T) {
	alarms := &mocks.MockAlarmService{}
	alarms.On("Clear", mock.Anything, "alarm-42", "").Return(nil)

	node := &models.Node{ID: "clear", Type: models.NodeTypeAlarmClear}

	result, err := NewExecutor(models.NodeTypeAlarmClear, alarms).Execute(context.Background(), node, models.ExecutionContext{
		AlarmIDKey: "alarm-42",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	alarms.AssertExpectations(t)
}

func TestAlarmClear_Failure(t *testing.T) {
	alarms := &mocks.MockAlarmService{}
	alarms.On("Clear", mock.Anything, "a1", "d1").Return(errors.New("unknown alarm"))

	node := &models.Node{ID: "clear", Type: models.NodeTypeAlarmClear, Properties: models.Properties{"alarmId": "a1", "deviceId": "d1"}}

	result, err := NewExecutor(models.NodeTypeAlarmClear, alarms).Execute(context.Background(), node, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown alarm")
}

func TestAlarmCheck_Threshold(t *testing.T) {
	executor := NewExecutor(models.NodeTypeAlarmCheck, nil)
	assert.True(t, executor.Branching())

	node := &models.Node{
		ID:   "check",
		Type: models.NodeTypeAlarmCheck,
		Properties: models.Properties{
			"valueVariable": "sensor.temperature",
			"operator":      "gte",
			"threshold":     80,
		},
	}

	result, err := executor.Execute(context.Background(), node, models.ExecutionContext{
		"sensor": map[string]any{"temperature": float64(85)},
	})
	require.NoError(t, err)
	assert.Equal(t, "true", result.Branch)

	result, err = executor.Execute(context.Background(), node, models.ExecutionContext{
		"sensor": map[string]any{"temperature": "70"},
	})
	require.NoError(t, err)
	assert.Equal(t, "false", result.Branch)
}

func TestAlarmCheck_Range(t *testing.T) {
	executor := NewExecutor(models.NodeTypeAlarmCheck, nil)

	node := &models.Node{
		ID:         "check",
		Type:       models.NodeTypeAlarmCheck,
		Properties: models.Properties{"value": "${pressure}", "min": 1.5, "max": 3},
	}

	for pressure, branch := range map[float64]string{1.0: "true", 2.0: "false", 3.5: "true"} {
		result, err := executor.Execute(context.Background(), node, models.ExecutionContext{"pressure": pressure})
		require.NoError(t, err)
		assert.Equal(t, branch, result.Branch, "pressure %v", pressure)
	}
}

func TestAlarmCheck_NonNumericFails(t *testing.T) {
	node := &models.Node{
		ID:         "check",
		Type:       models.NodeTypeAlarmCheck,
		Properties: models.Properties{"value": "hot", "threshold": 1},
	}

	result, err := NewExecutor(models.NodeTypeAlarmCheck, nil).Execute(context.Background(), node, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.Branch)
}
