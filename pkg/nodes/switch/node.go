package switchnode

import (
	"context"
	"sort"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/template"
)

type switchCase struct {
	value  string
	branch string
}

// Execute returns the branch of the first matching case.
func (e *Executor) Execute(_ context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	value := models.Stringify(template.RenderValue(node.Properties["value"], execCtx))

	for _, c := range parseCases(node.Properties) {
		if c.value == value {
			return models.SucceedBranch(map[string]any{
				"switch_value": value,
				"matched_case": c.value,
			}, c.branch), nil
		}
	}

	return models.SucceedBranch(map[string]any{
		"switch_value": value,
		"no_match":     true,
	}, node.Properties.String("default", DefaultBranch)), nil
}

// parseCases accepts [{value, branch}] or {value: branch}. The map form is
// ordered by key for determinism.
func parseCases(props models.Properties) []switchCase {
	var cases []switchCase

	for _, raw := range props.Slice("cases") {
		entry := models.AsMap(raw)
		if entry == nil {
			continue
		}

		value := models.Stringify(entry["value"])
		branch := models.Properties(entry).String("branch", value)
		cases = append(cases, switchCase{value: value, branch: branch})
	}

	if table := props.Map("cases"); table != nil {
		keys := make([]string, 0, len(table))
		for key := range table {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		for _, key := range keys {
			cases = append(cases, switchCase{value: key, branch: models.Stringify(table[key])})
		}
	}

	return cases
}
