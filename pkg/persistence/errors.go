// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionNotFound indicates an execution record was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrNodeExecutionNotFound indicates a node execution record was not found.
	ErrNodeExecutionNotFound = errors.New("node execution not found")

	// ErrScheduleNotFound indicates a schedule was not found.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrAlreadyExists indicates a record with the same identifier already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// RecordError wraps a storage error with the operation and record involved.
type RecordError struct {
	Op   string // Operation being performed (e.g., "GetWorkflow", "UpdateExecution")
	Kind string // Record kind: workflow, execution, node_execution, schedule
	ID   string // Record identifier
	Err  error  // Underlying error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for record errors.
func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewWorkflowError(op, workflowID string, err error) *RecordError {
	return &RecordError{Op: op, Kind: "workflow", ID: workflowID, Err: err}
}

func NewExecutionError(op, executionID string, err error) *RecordError {
	return &RecordError{Op: op, Kind: "execution", ID: executionID, Err: err}
}

func NewNodeExecutionError(op, id string, err error) *RecordError {
	return &RecordError{Op: op, Kind: "node_execution", ID: id, Err: err}
}

func NewScheduleError(op, scheduleID string, err error) *RecordError {
	return &RecordError{Op: op, Kind: "schedule", ID: scheduleID, Err: err}
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrExecutionNotFound) ||
		errors.Is(err, ErrNodeExecutionNotFound) ||
		errors.Is(err, ErrScheduleNotFound)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// ErrClosed is returned by HealthCheck once the store has been closed.
var ErrClosed = errors.New("store is closed")
