// Package device provides the nodes that delegate to the device service.
package device

import (
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

// Types lists the node types served by this package.
var Types = []string{
	models.NodeTypeDeviceQuery,
	models.NodeTypeDeviceControl,
	models.NodeTypeDeviceData,
	models.NodeTypeDeviceStatus,
}

// Executor serves one device node type.
type Executor struct {
	nodeType string
	devices  protocol.DeviceService
}

// NewExecutor creates a device executor for nodeType.
func NewExecutor(nodeType string, devices protocol.DeviceService) *Executor {
	return &Executor{nodeType: nodeType, devices: devices}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return e.nodeType
}

// Branching is true for device_status, which branches on the status match.
func (e *Executor) Branching() bool {
	return e.nodeType == models.NodeTypeDeviceStatus
}

// Name returns the executor name.
func (e *Executor) Name() string {
	switch e.nodeType {
	case models.NodeTypeDeviceControl:
		return "Device Control"
	case models.NodeTypeDeviceData:
		return "Device Data Collection"
	case models.NodeTypeDeviceStatus:
		return "Device Status"
	default:
		return "Device Query"
	}
}

// Description returns the executor description.
func (e *Executor) Description() string {
	switch e.nodeType {
	case models.NodeTypeDeviceControl:
		return "Sends a command with parameters to a device"
	case models.NodeTypeDeviceData:
		return "Collects data points from a device"
	case models.NodeTypeDeviceStatus:
		return "Reads device status and branches on whether it equals expectedStatus"
	default:
		return "Reads fields from a device"
	}
}

// Schema returns the JSON schema for the node type's properties.
func (e *Executor) Schema() *models.JSONSchema {
	props := map[string]*models.Property{
		"deviceId":       models.Prop("string", "Target device. Supports ${path} templates"),
		"outputVariable": models.Prop("string", "Context key for the result"),
	}

	switch e.nodeType {
	case models.NodeTypeDeviceQuery:
		props["fields"] = models.Prop([]any{"array", "string"}, "Fields to read")
	case models.NodeTypeDeviceControl:
		props["command"] = models.Prop("string", "Command name")
		props["params"] = models.Prop("object", "Command parameters; values support templates")

		return models.ObjectSchema(e.Name(), props, "deviceId", "command")
	case models.NodeTypeDeviceData:
		props["points"] = models.Prop([]any{"array", "string"}, "Data points to collect")
	case models.NodeTypeDeviceStatus:
		props["expectedStatus"] = models.Prop("string", "Status that selects the true branch")

		return models.ObjectSchema(e.Name(), props, "deviceId", "expectedStatus")
	}

	return models.ObjectSchema(e.Name(), props, "deviceId")
}
