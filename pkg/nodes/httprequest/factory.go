// Package httprequest provides the api and http nodes.
package httprequest

import (
	"net/http"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// DefaultTimeout applies when the node sets no timeout.
const DefaultTimeout = 30 * time.Second

// Executor issues one HTTP request per visit. The same implementation backs
// both the api and http node types.
type Executor struct {
	nodeType string
	client   *http.Client
}

// NewExecutor creates an HTTP executor registered under nodeType.
func NewExecutor(nodeType string, client *http.Client) *Executor {
	if client == nil {
		client = &http.Client{}
	}

	return &Executor{nodeType: nodeType, client: client}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return e.nodeType
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "HTTP Request"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Performs an HTTP request and stores status, headers and body. Succeeds only on 2xx responses"
}

// Schema returns the JSON schema for HTTP node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("HTTP Request", map[string]*models.Property{
		"url":            models.Prop("string", "Request URL. Supports ${path} templates"),
		"method":         models.EnumProp("HTTP method", "GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "get", "post", "put", "patch", "delete", "head", "options"),
		"headers":        models.Prop("object", "Request headers. Values support templates"),
		"params":         models.Prop("object", "Query string parameters. Values support templates"),
		"body":           {Description: "Request body; objects are sent as JSON"},
		"timeout":        models.MinProp([]any{"number", "string"}, "Timeout in seconds", 0),
		"outputVariable": models.Prop("string", "Context key that receives {statusCode, headers, body}"),
	}, "url")
}
