// Package alarm provides the nodes that raise, check and clear alarms.
package alarm

import (
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

// Types lists the node types served by this package.
var Types = []string{
	models.NodeTypeAlarmTrigger,
	models.NodeTypeAlarmCheck,
	models.NodeTypeAlarmClear,
}

// Executor serves one alarm node type.
type Executor struct {
	nodeType string
	alarms   protocol.AlarmService
}

// NewExecutor creates an alarm executor for nodeType.
func NewExecutor(nodeType string, alarms protocol.AlarmService) *Executor {
	return &Executor{nodeType: nodeType, alarms: alarms}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return e.nodeType
}

// Branching is true for alarm_check.
func (e *Executor) Branching() bool {
	return e.nodeType == models.NodeTypeAlarmCheck
}

// Name returns the executor name.
func (e *Executor) Name() string {
	switch e.nodeType {
	case models.NodeTypeAlarmCheck:
		return "Alarm Check"
	case models.NodeTypeAlarmClear:
		return "Alarm Clear"
	default:
		return "Alarm Trigger"
	}
}

// Description returns the executor description.
func (e *Executor) Description() string {
	switch e.nodeType {
	case models.NodeTypeAlarmCheck:
		return "Compares a context value with a threshold or range and branches true when the alarm condition holds"
	case models.NodeTypeAlarmClear:
		return "Clears an alarm"
	default:
		return "Raises an alarm through the alarm service"
	}
}

// Schema returns the JSON schema for the node type's properties.
func (e *Executor) Schema() *models.JSONSchema {
	number := []any{"number", "string"}

	switch e.nodeType {
	case models.NodeTypeAlarmCheck:
		return models.ObjectSchema(e.Name(), map[string]*models.Property{
			"valueVariable": models.Prop("string", "Dotted context path of the value to check"),
			"value":         {Description: "Value to check; supports templates. Used when valueVariable is empty"},
			"operator":      models.EnumProp("Threshold comparison", "gt", "gte", "lt", "lte", "eq", "ne"),
			"threshold":     models.Prop(number, "Threshold compared with operator"),
			"min":           models.Prop(number, "Lower bound of the normal range"),
			"max":           models.Prop(number, "Upper bound of the normal range"),
		})
	case models.NodeTypeAlarmClear:
		return models.ObjectSchema(e.Name(), map[string]*models.Property{
			"alarmId":  models.Prop("string", "Alarm to clear; defaults to the alarm_id context value"),
			"deviceId": models.Prop("string", "Device the alarm belongs to"),
		})
	default:
		return models.ObjectSchema(e.Name(), map[string]*models.Property{
			"alarmType": models.Prop("string", "Alarm type"),
			"level":     models.EnumProp("Severity", "info", "warning", "critical", "major", "minor"),
			"title":     models.Prop("string", "Alarm title; supports templates"),
			"content":   models.Prop("string", "Alarm body; supports templates"),
			"deviceId":  models.Prop("string", "Related device"),
		}, "title")
	}
}
