// Package models defines the core domain models for graph-based workflow orchestration
package models

import (
	"strings"
	"time"
)

// Workflow is a directed graph of nodes executed by the engine.
type Workflow struct {
	ID             string         `json:"id"                yaml:"id"                validate:"required"`
	Code           string         `json:"code"              yaml:"code"`
	Name           string         `json:"name"              yaml:"name"`
	Description    string         `json:"description"       yaml:"description"`
	Nodes          []*Node        `json:"nodes"             yaml:"nodes"             validate:"required,min=1,dive"`
	Connections    []*Connection  `json:"connections"       yaml:"connections"       validate:"dive"`
	Variables      map[string]any `json:"variables"         yaml:"variables"`
	IsActive       bool           `json:"is_active"         yaml:"is_active"`
	TimeoutSeconds int            `json:"timeout_seconds"   yaml:"timeout_seconds"`

	ExecutionCount int64      `json:"execution_count"            yaml:"-"`
	SuccessCount   int64      `json:"success_count"              yaml:"-"`
	FailureCount   int64      `json:"failure_count"              yaml:"-"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty" yaml:"-"`
	CreatedAt      time.Time  `json:"created_at"                 yaml:"-"`
	UpdatedAt      time.Time  `json:"updated_at"                 yaml:"-"`
}

// Node is a single typed step of a workflow.
type Node struct {
	ID         string     `json:"id"         yaml:"id"         validate:"required"`
	Type       string     `json:"type"       yaml:"type"       validate:"required"`
	Name       string     `json:"name"       yaml:"name"`
	Properties Properties `json:"properties" yaml:"properties"`
}

// DisplayName is the node name, or its id when unnamed.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}

	return n.ID
}

// Connection is a directed edge. An empty Condition matches any branch.
type Connection struct {
	ID         string `json:"id,omitempty"        yaml:"id,omitempty"`
	FromNodeID string `json:"from_node_id"        yaml:"from_node_id" validate:"required"`
	ToNodeID   string `json:"to_node_id"          yaml:"to_node_id"   validate:"required"`
	Condition  string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

func (c *Connection) Matches(branch string) bool {
	return c.Condition == "" || strings.EqualFold(c.Condition, branch)
}

// StartNodes returns every node of type start. A runnable workflow has exactly one.
func (w *Workflow) StartNodes() []*Node {
	var starts []*Node

	for _, node := range w.Nodes {
		if node != nil && node.Type == NodeTypeStart {
			starts = append(starts, node)
		}
	}

	return starts
}

func (w *Workflow) NodeByID(id string) (*Node, bool) {
	for _, node := range w.Nodes {
		if node != nil && node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// Outgoing returns the connections leaving nodeID in declaration order.
func (w *Workflow) Outgoing(nodeID string) []*Connection {
	var out []*Connection

	for _, conn := range w.Connections {
		if conn != nil && conn.FromNodeID == nodeID {
			out = append(out, conn)
		}
	}

	return out
}

// Copy returns a deep copy of the workflow definition and counters.
func (w *Workflow) Copy() *Workflow {
	if w == nil {
		return nil
	}

	out := *w
	out.Variables = cloneMap(w.Variables)
	out.LastExecutedAt = copyTime(w.LastExecutedAt)

	out.Nodes = make([]*Node, len(w.Nodes))
	for i, node := range w.Nodes {
		if node == nil {
			continue
		}

		n := *node
		if node.Properties != nil {
			n.Properties = Properties(cloneMap(node.Properties))
		}

		out.Nodes[i] = &n
	}

	out.Connections = make([]*Connection, len(w.Connections))
	for i, conn := range w.Connections {
		if conn == nil {
			continue
		}

		c := *conn
		out.Connections[i] = &c
	}

	return &out
}
