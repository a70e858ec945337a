// Package database provides the SQL node.
package database

import (
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

const (
	OperationQuery = "query"
	OperationExec  = "exec"
)

// Executor runs templated, parameterised SQL through the database service.
type Executor struct {
	db protocol.DatabaseService
}

// NewExecutor creates a database executor.
func NewExecutor(db protocol.DatabaseService) *Executor {
	return &Executor{db: db}
}

// Type returns the node type.
func (e *Executor) Type() string {
	return models.NodeTypeDatabase
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return "Database"
}

// Description returns the executor description.
func (e *Executor) Description() string {
	return "Runs a SQL statement with positional parameters and returns rows or the affected row count"
}

// Schema returns the JSON schema for database node properties.
func (e *Executor) Schema() *models.JSONSchema {
	return models.ObjectSchema("Database", map[string]*models.Property{
		"query":          models.Prop("string", "SQL statement. Prefer params over ${path} templates for values"),
		"params":         models.Prop("array", "Positional parameters; values support templates"),
		"operation":      models.EnumProp("query returns rows, exec returns affected rows", OperationQuery, OperationExec),
		"outputVariable": models.Prop("string", "Context key for the result"),
	}, "query")
}
