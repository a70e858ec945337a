// Package log provides the logging node.
package log

import (
	"log/slog"

	"github.com/fieldflow/orchestrator/pkg/models"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Executor writes a rendered message to the execution logger.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a log executor. A nil logger means the logger carried
// by the execution context is used.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeLog
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "Log"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Logs messages at different levels (debug, info, warn, error) with template support for dynamic content"
}

// Schema returns the JSON schema for log node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("Log", map[string]*models.Property{
		"message": models.Prop("string", "Message to log. Supports ${path} templates"),
		"level":   models.EnumProp("Log level", "debug", "info", "warn", "error"),
	}, "message")
}
