package conditional

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/models"
)

func conditionNode(props models.Properties) *models.Node {
	return &models.Node{ID: "cond", Type: models.NodeTypeCondition, Name: "Check", Properties: props}
}

func TestConditionExecutor_NumericOperands(t *testing.T) {
	executor := NewExecutor(nil)

	result, err := executor.Execute(context.Background(), conditionNode(models.Properties{
		"leftOperand": "5", "operator": "gt", "rightOperand": "3",
	}), models.ExecutionContext{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "true", result.Branch)

	result, err = executor.Execute(context.Background(), conditionNode(models.Properties{
		"leftOperand": "3", "operator": "gt", "rightOperand": "5",
	}), models.ExecutionContext{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "false", result.Branch)
}

func TestConditionExecutor_NumericBeatsLexical(t *testing.T) {
	result, err := NewExecutor(nil).Execute(context.Background(), conditionNode(models.Properties{
		"leftOperand": "10", "operator": "gt", "rightOperand": "9",
	}), nil)
	require.NoError(t, err)
	assert.Equal(t, "true", result.Branch)
}

func TestConditionExecutor_TemplatedOperands(t *testing.T) {
	execCtx := models.ExecutionContext{
		"sensor": map[string]any{"temperature": float64(31.5), "status": "online"},
	}

	result, err := NewExecutor(nil).Execute(context.Background(), conditionNode(models.Properties{
		"leftOperand": "${sensor.temperature}", "operator": "gte", "rightOperand": 30,
	}), execCtx)
	require.NoError(t, err)
	assert.Equal(t, "true", result.Branch)
	assert.Equal(t, true, result.Output[ResultKey])
}

func TestConditionExecutor_Expression(t *testing.T) {
	execCtx := models.ExecutionContext{"temperature": 42, "mode": "auto"}

	result, err := NewExecutor(nil).Execute(context.Background(), conditionNode(models.Properties{
		"expression": `temperature > 40 && mode == "auto"`,
	}), execCtx)
	require.NoError(t, err)
	assert.Equal(t, "true", result.Branch)

	result, err = NewExecutor(nil).Execute(context.Background(), conditionNode(models.Properties{
		"expression": "${temperature} < 10",
	}), execCtx)
	require.NoError(t, err)
	assert.Equal(t, "false", result.Branch)
}

func TestConditionExecutor_ExpressionErrorIsFalseBranch(t *testing.T) {
	result, err := NewExecutor(nil).Execute(context.Background(), conditionNode(models.Properties{
		"expression": "1 +",
	}), nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "false", result.Branch)
	assert.Contains(t, result.Output, "condition_error")
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		left     any
		operator string
		right    any
		want     bool
	}{
		{"eq numbers from strings", "5", OpEq, 5, true},
		{"eq strings", "on", OpEq, "on", true},
		{"ne", "on", OpNe, "off", true},
		{"lte", 3, OpLte, 3, true},
		{"lt string fallback", "apple", OpLt, "banana", true},
		{"contains substring", "temperature high", OpContains, "high", true},
		{"contains list", []any{"a", "b"}, OpContains, "b", true},
		{"not contains", "abc", OpNotContains, "z", true},
		{"is null nil", nil, OpIsNull, nil, true},
		{"is null empty", "", OpIsNull, nil, true},
		{"is not null", "x", OpIsNotNull, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.left, tt.operator, tt.right)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_UnknownOperator(t *testing.T) {
	_, err := Compare(1, "between", 2)
	assert.Error(t, err)
}

func TestConditionExecutor_UnresolvedOperandIsNull(t *testing.T) {
	result, err := NewExecutor(nil).Execute(context.Background(), conditionNode(models.Properties{
		"leftOperand": "${missing}", "operator": OpIsNull,
	}), models.ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, "true", result.Branch)
}
