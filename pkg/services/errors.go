// Package services holds the application operations behind the HTTP API.
package services

import (
	"errors"
	"fmt"

	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/registry"
)

// Validation errors (400 Bad Request).
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrWorkflowNil      = errors.New("workflow cannot be nil")
	ErrWorkflowInactive = errors.New("workflow is not active")
	ErrInvalidSchedule  = errors.New("invalid schedule")
)

// Conflicts (409 Conflict).
var (
	ErrScheduleRejected = errors.New("schedule was not accepted by the scheduler")
)

// ErrSchedulerUnavailable is returned when schedule operations are called
// without a running scheduler (503).
var ErrSchedulerUnavailable = errors.New("scheduler is not running")

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	var verr *registry.ValidationError

	return errors.As(err, &verr) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowInactive) ||
		errors.Is(err, ErrInvalidSchedule)
}

// IsConflictError checks if an error is a conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrScheduleRejected) ||
		errors.Is(err, persistence.ErrAlreadyExists)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
