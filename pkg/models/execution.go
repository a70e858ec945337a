package models

import "time"

type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSuccess   ExecutionStatus = "success"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
	ExecutionStatusTimeout   ExecutionStatus = "timeout"
)

func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusSuccess, ExecutionStatusFailed, ExecutionStatusCancelled, ExecutionStatusTimeout:
		return true
	default:
		return false
	}
}

type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusFailed  NodeStatus = "failed"
	NodeStatusSkipped NodeStatus = "skipped"
)

// Trigger types recorded on executions.
const (
	TriggerTypeManual    = "manual"
	TriggerTypeScheduled = "scheduled"
	TriggerTypeAPI       = "api"
	TriggerTypeEvent     = "event"
)

// NodeState is the per-node summary kept on the execution record.
// Sequence is the 1-based visit order.
type NodeState struct {
	Status   NodeStatus     `json:"status"`
	Output   map[string]any `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Sequence int            `json:"sequence"`
}

// WorkflowExecution is one run of a workflow.
type WorkflowExecution struct {
	ExecutionID   string               `json:"execution_id"`
	WorkflowID    string               `json:"workflow_id"`
	Status        ExecutionStatus      `json:"status"`
	TriggerType   string               `json:"trigger_type"`
	TriggerData   map[string]any       `json:"trigger_data,omitempty"`
	TriggeredBy   string               `json:"triggered_by,omitempty"`
	StartedAt     time.Time            `json:"started_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	DurationMs    int64                `json:"duration_ms"`
	Result        map[string]any       `json:"result,omitempty"`
	ErrorMessage  string               `json:"error_message,omitempty"`
	ErrorStack    string               `json:"error_stack,omitempty"`
	NodeStates    map[string]NodeState `json:"node_states"`
	ExecutionPath []string             `json:"execution_path"`
	CurrentNodeID string               `json:"current_node_id,omitempty"`

	// Reserved for a retry driver; nothing sets them yet.
	RetryCount        int    `json:"retry_count"`
	ParentExecutionID string `json:"parent_execution_id,omitempty"`
}

// OrderedNodeIDs returns node ids in visit order.
func (e *WorkflowExecution) OrderedNodeIDs() []string {
	return append([]string(nil), e.ExecutionPath...)
}

// WorkflowNodeExecution records one visit of one node.
type WorkflowNodeExecution struct {
	ID           string         `json:"id"`
	ExecutionID  string         `json:"execution_id"`
	NodeID       string         `json:"node_id"`
	NodeName     string         `json:"node_name"`
	NodeType     string         `json:"node_type"`
	Sequence     int            `json:"sequence"`
	Status       NodeStatus     `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	InputData    map[string]any `json:"input_data,omitempty"`
	OutputData   map[string]any `json:"output_data,omitempty"`
	Branch       string         `json:"branch,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	ErrorStack   string         `json:"error_stack,omitempty"`
}

// Copy returns a deep copy that shares no maps with e.
func (e *WorkflowExecution) Copy() *WorkflowExecution {
	if e == nil {
		return nil
	}

	out := *e
	out.TriggerData = cloneMap(e.TriggerData)
	out.Result = cloneMap(e.Result)
	out.ExecutionPath = append([]string(nil), e.ExecutionPath...)
	out.CompletedAt = copyTime(e.CompletedAt)

	if e.NodeStates != nil {
		out.NodeStates = make(map[string]NodeState, len(e.NodeStates))
		for id, state := range e.NodeStates {
			state.Output = cloneMap(state.Output)
			out.NodeStates[id] = state
		}
	}

	return &out
}

// Copy returns a deep copy that shares no maps with n.
func (n *WorkflowNodeExecution) Copy() *WorkflowNodeExecution {
	if n == nil {
		return nil
	}

	out := *n
	out.InputData = cloneMap(n.InputData)
	out.OutputData = cloneMap(n.OutputData)
	out.CompletedAt = copyTime(n.CompletedAt)

	return &out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	return map[string]any(ExecutionContext(m).Clone())
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := *t

	return &v
}
