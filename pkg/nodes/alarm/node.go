package alarm

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/nodes/conditional"
	"github.com/fieldflow/orchestrator/pkg/protocol"
	"github.com/fieldflow/orchestrator/pkg/template"
)

// AlarmIDKey is the context key that receives the id of a raised alarm.
const AlarmIDKey = "alarm_id"

// Execute dispatches on the node type.
func (e *Executor) Execute(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	if e.nodeType == models.NodeTypeAlarmCheck {
		return check(node, execCtx), nil
	}

	if e.alarms == nil {
		return models.Fail("alarm service is not configured"), nil
	}

	props := node.Properties
	deviceID := template.Render(props.String("deviceId", ""), execCtx)

	if e.nodeType == models.NodeTypeAlarmClear {
		alarmID := template.Render(props.String("alarmId", ""), execCtx)
		if alarmID == "" {
			alarmID = models.Stringify(execCtx[AlarmIDKey])
		}

		if alarmID == "" {
			return models.Fail("missing alarm id to clear"), nil
		}

		if err := e.alarms.Clear(ctx, alarmID, deviceID); err != nil {
			return models.Fail(fmt.Sprintf("clear alarm %s: %v", alarmID, err)), nil
		}

		return models.Succeed(map[string]any{"alarm_cleared": true, "cleared_alarm_id": alarmID}), nil
	}

	alarm := protocol.Alarm{
		Type:     template.Render(props.String("alarmType", "workflow"), execCtx),
		Level:    strings.ToLower(template.Render(props.String("level", "warning"), execCtx)),
		Title:    template.Render(props.String("title", ""), execCtx),
		Content:  template.Render(props.String("content", ""), execCtx),
		DeviceID: deviceID,
		Data:     template.RenderMap(props.Map("data"), execCtx),
	}

	alarmID, err := e.alarms.Trigger(ctx, alarm)
	if err != nil {
		return models.Fail(fmt.Sprintf("trigger alarm %q: %v", alarm.Title, err)), nil
	}

	return models.Succeed(map[string]any{AlarmIDKey: alarmID, "alarm_triggered": true}), nil
}

// check evaluates the alarm condition. With min/max the alarm holds when
// the value is outside [min, max]; otherwise value <operator> threshold.
func check(node *models.Node, execCtx models.ExecutionContext) models.NodeExecutionResult {
	props := node.Properties

	var raw any
	if path := props.String("valueVariable", ""); path != "" {
		raw, _ = template.Lookup(execCtx, path)
	} else {
		raw = template.RenderValue(props["value"], execCtx)
	}

	value, ok := models.ToFloat(raw)
	if !ok {
		return models.Fail(fmt.Sprintf("alarm check value %v is not numeric", raw))
	}

	var triggered bool

	switch {
	case props.Has("min") || props.Has("max"):
		if minimum, ok := models.ToFloat(template.RenderValue(props["min"], execCtx)); ok && value < minimum {
			triggered = true
		}

		if maximum, ok := models.ToFloat(template.RenderValue(props["max"], execCtx)); ok && value > maximum {
			triggered = true
		}
	case props.Has("threshold"):
		threshold, ok := models.ToFloat(template.RenderValue(props["threshold"], execCtx))
		if !ok {
			return models.Fail("alarm check threshold is not numeric")
		}

		var err error

		triggered, err = conditional.Compare(value, props.String("operator", conditional.OpGt), threshold)
		if err != nil {
			return models.Fail(err.Error())
		}
	default:
		return models.Fail("alarm check needs a threshold or a min/max range")
	}

	return models.SucceedBranch(map[string]any{
		"alarm_condition": triggered,
		"checked_value":   value,
	}, models.BoolBranch(triggered))
}
