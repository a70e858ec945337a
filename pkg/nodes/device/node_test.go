package device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/mocks"
	"github.com/fieldflow/orchestrator/pkg/models"
)

func TestDeviceQuery(t *testing.T) {
	devices := &mocks.MockDeviceService{}
	devices.On("Query", mock.Anything, "pump-1", []string{"pressure", "flow"}).
		Return(map[string]any{"pressure": 2.1, "flow": 10.0}, nil)

	node := &models.Node{
		ID:   "q",
		Type: models.NodeTypeDeviceQuery,
		Properties: models.Properties{
			"deviceId": "${device}",
			"fields":   []any{"pressure", "flow"},
		},
	}

	result, err := NewExecutor(models.NodeTypeDeviceQuery, devices).Execute(context.Background(), node, models.ExecutionContext{"device": "pump-1"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, map[string]any{"pressure": 2.1, "flow": 10.0}, result.Output["device_data"])
	devices.AssertExpectations(t)
}

func TestDeviceControl(t *testing.T) {
	devices := &mocks.MockDeviceService{}
	devices.On("Control", mock.Anything, "valve-3", "open", map[string]any{"percent": float64(50)}).
		Return(map[string]any{"ack": true}, nil)

	node := &models.Node{
		ID:   "c",
		Type: models.NodeTypeDeviceControl,
		Properties: models.Properties{
			"deviceId": "valve-3",
			"command":  "open",
			"params":   map[string]any{"percent": "${target}"},
		},
	}

	result, err := NewExecutor(models.NodeTypeDeviceControl, devices).Execute(context.Background(), node, models.ExecutionContext{"target": float64(50)})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, map[string]any{"ack": true}, result.Output["control_result"])
}

func TestDeviceData_ServiceError(t *testing.T) {
	devices := &mocks.MockDeviceService{}
	devices.On("CollectData", mock.Anything, "meter-9", []string{"kwh"}).Return(nil, errors.New("gateway timeout"))

	node := &models.Node{
		ID:         "d",
		Type:       models.NodeTypeDeviceData,
		Properties: models.Properties{"deviceId": "meter-9", "points": "kwh"},
	}

	result, err := NewExecutor(models.NodeTypeDeviceData, devices).Execute(context.Background(), node, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "gateway timeout")
}

func TestDeviceStatus_Branches(t *testing.T) {
	devices := &mocks.MockDeviceService{}
	devices.On("GetStatus", mock.Anything, "pump-1").Return("ONLINE", nil)

	executor := NewExecutor(models.NodeTypeDeviceStatus, devices)
	assert.True(t, executor.Branching())

	node := &models.Node{
		ID:         "s",
		Type:       models.NodeTypeDeviceStatus,
		Properties: models.Properties{"deviceId": "pump-1", "expectedStatus": "online"},
	}

	result, err := executor.Execute(context.Background(), node, nil)
	require.NoError(t, err)
	assert.Equal(t, "true", result.Branch)
	assert.Equal(t, "ONLINE", result.Output["device_status"])

	node.Properties["expectedStatus"] = "offline"
	result, err = executor.Execute(context.Background(), node, nil)
	require.NoError(t, err)
	assert.Equal(t, "false", result.Branch)
}

func TestDeviceExecutor_MissingConfiguration(t *testing.T) {
	node := &models.Node{ID: "q", Type: models.NodeTypeDeviceQuery}

	result, err := NewExecutor(models.NodeTypeDeviceQuery, nil).Execute(context.Background(), node, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Error, "not configured")

	result, err = NewExecutor(models.NodeTypeDeviceQuery, &mocks.MockDeviceService{}).Execute(context.Background(), node, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Error, "deviceId")

	assert.False(t, NewExecutor(models.NodeTypeDeviceQuery, nil).Branching())
}
