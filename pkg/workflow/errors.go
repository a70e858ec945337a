package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingStartNode is returned when a workflow has no node of type start.
	ErrMissingStartNode = errors.New("missing start node")

	// ErrNodeNotFound indicates a connection points at a node id that is not
	// part of the workflow.
	ErrNodeNotFound = errors.New("node not found")

	// ErrMaxStepsExceeded stops traversal of graphs that loop back on themselves.
	ErrMaxStepsExceeded = errors.New("maximum number of steps exceeded")

	// ErrNodeFailed marks a non-branching node whose executor reported failure.
	ErrNodeFailed = errors.New("node execution failed")

	// ErrExecutorPanic wraps a recovered panic raised inside an executor.
	ErrExecutorPanic = errors.New("executor panicked")

	ErrNilWorkflow = errors.New("workflow is nil")
)

// WorkflowError is the error that terminates an execution. Its text becomes
// the execution's errorMessage.
type WorkflowError struct {
	Op       string // traverse, execute, end
	NodeID   string
	NodeName string
	Err      error
	Message  string
}

func (e *WorkflowError) Error() string {
	switch {
	case e.NodeName != "" && e.Message != "":
		return fmt.Sprintf("node %q failed: %s", e.NodeName, e.Message)
	case e.NodeName != "":
		return fmt.Sprintf("node %q failed: %v", e.NodeName, e.Err)
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func graphError(err error, format string, args ...any) *WorkflowError {
	return &WorkflowError{Op: "traverse", Err: err, Message: fmt.Sprintf(format, args...)}
}
