// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every lifecycle event published by the engine and scheduler.
const Topic = "orchestrator.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow execution lifecycle events.
	WorkflowExecutionStartedEvent   EventType = "workflow.execution.started"
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"

	// Node events.
	NodeExecutionFinishedEvent EventType = "node.execution.finished"
	NodeExecutionFailedEvent   EventType = "node.execution.failed"

	// Scheduler events.
	ScheduleFiredEvent   EventType = "schedule.fired"
	ScheduleSkippedEvent EventType = "schedule.skipped"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowExecutionStarted struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	WorkflowName string         `json:"workflow_name"`
	TriggerType  string         `json:"trigger_type"`
	TriggerData  map[string]any `json:"trigger_data,omitempty"`
	TriggeredBy  string         `json:"triggered_by,omitempty"`
}

func (w WorkflowExecutionStarted) GetType() EventType {
	return WorkflowExecutionStartedEvent
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	Status        string         `json:"status"`
	DurationMs    int64          `json:"duration_ms"`
	NodesExecuted int            `json:"nodes_executed"`
	Outputs       map[string]any `json:"outputs,omitempty"`
}

func (w WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

// WorkflowExecutionFailed covers failed, cancelled and timed out executions;
// Status tells them apart.
type WorkflowExecutionFailed struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	Status        string `json:"status"`
	DurationMs    int64  `json:"duration_ms"`
	NodeID        string `json:"node_id,omitempty"`
	Error         string `json:"error"`
	NodesExecuted int    `json:"nodes_executed"`
}

func (w WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}

type NodeExecutionFinished struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	NodeType    string         `json:"node_type"`
	Branch      string         `json:"branch,omitempty"`
	OutputData  map[string]any `json:"output_data,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

func (n NodeExecutionFinished) GetType() EventType {
	return NodeExecutionFinishedEvent
}

type NodeExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	NodeType    string `json:"node_type"`
	Error       string `json:"error"`
	DurationMs  int64  `json:"duration_ms"`
}

func (n NodeExecutionFailed) GetType() EventType {
	return NodeExecutionFailedEvent
}

type ScheduleFired struct {
	BaseEvent

	ScheduleID   string `json:"schedule_id"`
	ScheduleType string `json:"schedule_type"`
	ExecutionID  string `json:"execution_id"`
	Status       string `json:"status"`
}

func (s ScheduleFired) GetType() EventType {
	return ScheduleFiredEvent
}

type ScheduleSkipped struct {
	BaseEvent

	ScheduleID string `json:"schedule_id"`
	Reason     string `json:"reason"`
}

func (s ScheduleSkipped) GetType() EventType {
	return ScheduleSkippedEvent
}

// Skip reasons reported by ScheduleSkipped.
const (
	SkipReasonAlreadyRunning   = "already_running"
	SkipReasonMisfire          = "misfire"
	SkipReasonWorkflowInactive = "workflow_inactive"
	SkipReasonScheduleInactive = "schedule_inactive"
)

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

// Decode returns an empty event value for eventType, ready to unmarshal into.
func Decode(eventType EventType) (any, bool) {
	switch eventType {
	case WorkflowExecutionStartedEvent:
		return &WorkflowExecutionStarted{}, true
	case WorkflowExecutionCompletedEvent:
		return &WorkflowExecutionCompleted{}, true
	case WorkflowExecutionFailedEvent:
		return &WorkflowExecutionFailed{}, true
	case NodeExecutionFinishedEvent:
		return &NodeExecutionFinished{}, true
	case NodeExecutionFailedEvent:
		return &NodeExecutionFailed{}, true
	case ScheduleFiredEvent:
		return &ScheduleFired{}, true
	case ScheduleSkippedEvent:
		return &ScheduleSkipped{}, true
	default:
		return nil, false
	}
}
