package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// ValidationError collects every problem found in a workflow definition.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "invalid workflow: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

// ValidateWorkflow checks graph structure and, for executors that publish a
// schema, each node's properties. Unknown node types are reported as a
// warning only since they fall back to the pass-through executor.
func (r *Registry) ValidateWorkflow(wf *models.Workflow) error {
	if wf == nil {
		return &ValidationError{Issues: []string{"workflow is nil"}}
	}

	verr := &ValidationError{}
	seen := make(map[string]bool, len(wf.Nodes))

	for i, node := range wf.Nodes {
		if node == nil {
			verr.add("node %d is null", i)

			continue
		}

		if node.ID == "" {
			verr.add("node %d has no id", i)

			continue
		}

		if seen[node.ID] {
			verr.add("duplicate node id %q", node.ID)
		}

		seen[node.ID] = true

		if !r.Has(node.Type) {
			r.logger.Warn("Workflow references unregistered node type",
				"workflow_id", wf.ID, "node_id", node.ID, "node_type", node.Type)

			continue
		}

		r.validateProperties(verr, node)
	}

	switch starts := len(wf.StartNodes()); {
	case starts == 0:
		verr.add("missing start node")
	case starts > 1:
		verr.add("expected exactly one start node, found %d", starts)
	}

	for i, conn := range wf.Connections {
		if conn == nil {
			verr.add("connection %d is null", i)

			continue
		}

		if !seen[conn.FromNodeID] {
			verr.add("connection %d references unknown source node %q", i, conn.FromNodeID)
		}

		if !seen[conn.ToNodeID] {
			verr.add("connection %d references unknown target node %q", i, conn.ToNodeID)
		}
	}

	if len(verr.Issues) > 0 {
		return verr
	}

	return nil
}

func (r *Registry) validateProperties(verr *ValidationError, node *models.Node) {
	schema, ok := r.schemas[node.Type]
	if !ok {
		return
	}

	props := map[string]any(node.Properties)
	if props == nil {
		props = map[string]any{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(props))
	if err != nil {
		verr.add("node %q: properties could not be validated: %v", node.ID, err)

		return
	}

	for _, desc := range result.Errors() {
		verr.add("node %q: %s", node.ID, desc.String())
	}
}
