package conditional

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/template"
)

// ResultKey is the context key holding the last evaluated condition.
const ResultKey = "condition_result"

// Execute evaluates the condition. A false or unevaluable condition is not a
// failure: the node always succeeds and reports the outcome as its branch.
func (e *Executor) Execute(_ context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	var (
		outcome bool
		err     error
	)

	if source := node.Properties.String("expression", ""); strings.TrimSpace(source) != "" {
		outcome, err = e.evaluateExpression(source, execCtx)
	} else {
		outcome, err = Compare(
			operand(node.Properties["leftOperand"], execCtx),
			node.Properties.String("operator", OpEq),
			operand(node.Properties["rightOperand"], execCtx),
		)
	}

	output := map[string]any{ResultKey: outcome}
	if err != nil {
		output["condition_error"] = err.Error()
	}

	return models.SucceedBranch(output, models.BoolBranch(outcome)), nil
}

func (e *Executor) evaluateExpression(source string, execCtx models.ExecutionContext) (bool, error) {
	if template.HasMarkers(source) {
		source = template.Render(source, execCtx)
	}

	return e.evaluator.EvaluateBool(source, execCtx)
}

// operand renders a raw operand; an unresolved lone token counts as null.
func operand(raw any, execCtx models.ExecutionContext) any {
	value := template.RenderValue(raw, execCtx)

	if s, ok := value.(string); ok && template.IsToken(s) {
		return nil
	}

	return value
}

// Compare applies operator to left and right. Numeric comparison is used
// when both sides coerce to numbers, string comparison otherwise.
func Compare(left any, operator string, right any) (bool, error) {
	switch strings.ToLower(operator) {
	case OpIsNull:
		return isNull(left), nil
	case OpIsNotNull:
		return !isNull(left), nil
	case OpContains:
		return contains(left, right), nil
	case OpNotContains:
		return !contains(left, right), nil
	}

	lf, lok := models.ToFloat(left)
	rf, rok := models.ToFloat(right)

	if lok && rok {
		return compareOrdered(lf, rf, operator)
	}

	return compareOrdered(models.Stringify(left), models.Stringify(right), operator)
}

func compareOrdered[T float64 | string](left, right T, operator string) (bool, error) {
	switch strings.ToLower(operator) {
	case OpEq, "==", "":
		return left == right, nil
	case OpNe, "!=":
		return left != right, nil
	case OpGt, ">":
		return left > right, nil
	case OpGte, ">=":
		return left >= right, nil
	case OpLt, "<":
		return left < right, nil
	case OpLte, "<=":
		return left <= right, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", operator)
	}
}

func isNull(v any) bool {
	if v == nil {
		return true
	}

	s, ok := v.(string)

	return ok && s == ""
}

func contains(container, item any) bool {
	switch c := container.(type) {
	case nil:
		return false
	case []any:
		needle := models.Stringify(item)
		for _, element := range c {
			if models.Stringify(element) == needle {
				return true
			}
		}

		return false
	case map[string]any:
		_, ok := c[models.Stringify(item)]

		return ok
	default:
		return strings.Contains(models.Stringify(container), models.Stringify(item))
	}
}
