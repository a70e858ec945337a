package device

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/template"
)

// Execute delegates to the device service according to the node type.
func (e *Executor) Execute(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	if e.devices == nil {
		return models.Fail("device service is not configured"), nil
	}

	deviceID := template.Render(node.Properties.String("deviceId", ""), execCtx)
	if deviceID == "" {
		return models.Fail("missing required property 'deviceId'"), nil
	}

	switch e.nodeType {
	case models.NodeTypeDeviceQuery:
		data, err := e.devices.Query(ctx, deviceID, renderList(node.Properties.Strings("fields"), execCtx))
		if err != nil {
			return models.Fail(fmt.Sprintf("device query %s: %v", deviceID, err)), nil
		}

		return models.Succeed(map[string]any{node.Properties.String("outputVariable", "device_data"): data}), nil

	case models.NodeTypeDeviceControl:
		command := template.Render(node.Properties.String("command", ""), execCtx)
		if command == "" {
			return models.Fail("missing required property 'command'"), nil
		}

		ack, err := e.devices.Control(ctx, deviceID, command, template.RenderMap(node.Properties.Map("params"), execCtx))
		if err != nil {
			return models.Fail(fmt.Sprintf("device control %s %s: %v", deviceID, command, err)), nil
		}

		return models.Succeed(map[string]any{node.Properties.String("outputVariable", "control_result"): ack}), nil

	case models.NodeTypeDeviceData:
		data, err := e.devices.CollectData(ctx, deviceID, renderList(node.Properties.Strings("points"), execCtx))
		if err != nil {
			return models.Fail(fmt.Sprintf("device data %s: %v", deviceID, err)), nil
		}

		return models.Succeed(map[string]any{node.Properties.String("outputVariable", "collected_data"): data}), nil

	case models.NodeTypeDeviceStatus:
		status, err := e.devices.GetStatus(ctx, deviceID)
		if err != nil {
			return models.Fail(fmt.Sprintf("device status %s: %v", deviceID, err)), nil
		}

		expected := template.Render(node.Properties.String("expectedStatus", ""), execCtx)
		matched := strings.EqualFold(status, expected)

		return models.SucceedBranch(map[string]any{
			node.Properties.String("outputVariable", "device_status"): status,
			"status_match": matched,
		}, models.BoolBranch(matched)), nil
	}

	return models.Fail(fmt.Sprintf("unknown device node type %q", e.nodeType)), nil
}

func renderList(values []string, data map[string]any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = template.Render(v, data)
	}

	return out
}
