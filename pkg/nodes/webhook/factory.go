// Package webhook provides the outbound webhook node.
package webhook

import (
	"net/http"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// Executor posts a rendered payload to a URL.
type Executor struct {
	client *http.Client
}

// NewExecutor creates a webhook executor.
func NewExecutor(client *http.Client) *Executor {
	if client == nil {
		client = &http.Client{}
	}

	return &Executor{client: client}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeWebhook
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "Webhook"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Sends the rendered payload with POST (body) or GET (query). Succeeds when the status is below 400"
}

// Schema returns the JSON schema for webhook node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("Webhook", map[string]*models.Property{
		"url":            models.Prop("string", "Webhook URL. Supports ${path} templates"),
		"method":         models.EnumProp("HTTP method", "POST", "GET", "post", "get"),
		"headers":        models.Prop("object", "Request headers"),
		"payload":        models.Prop("object", "Payload; sent as JSON body for POST or as query parameters for GET"),
		"timeout":        models.MinProp([]any{"number", "string"}, "Timeout in seconds", 0),
		"outputVariable": models.Prop("string", "Context key for the response"),
	}, "url")
}
