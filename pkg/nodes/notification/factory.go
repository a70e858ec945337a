// Package notification provides the notification, email and sms nodes.
package notification

import (
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

// Types lists the node types served by this package.
var Types = []string{
	models.NodeTypeNotification,
	models.NodeTypeEmail,
	models.NodeTypeSMS,
}

// Executor delivers a rendered message through the notification service.
type Executor struct {
	nodeType      string
	notifications protocol.NotificationService
}

// NewExecutor creates a notification executor for nodeType.
func NewExecutor(nodeType string, notifications protocol.NotificationService) *Executor {
	return &Executor{nodeType: nodeType, notifications: notifications}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return e.nodeType
}

// Name returns the executor name.
func (e *Executor) Name() string {
	switch e.nodeType {
	case models.NodeTypeEmail:
		return "Email"
	case models.NodeTypeSMS:
		return "SMS"
	default:
		return "Notification"
	}
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Sends a templated message to recipients through the notification service"
}

// Schema returns the JSON schema for notification node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema(e.Name(), map[string]*models.Property{
		"recipients": models.Prop([]any{"array", "string"}, "Recipients; a comma separated string is accepted"),
		"subject":    models.Prop("string", "Subject or title; supports templates"),
		"content":    models.Prop("string", "Message body; supports templates"),
		"channel":    models.Prop("string", "Channel for generic notifications"),
		"data":       models.Prop("object", "Extra payload passed to the service"),
	}, "content")
}
