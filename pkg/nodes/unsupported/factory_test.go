package unsupported

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/models"
)

func TestUnsupportedExecutor(t *testing.T) {
	executor := NewExecutor(models.NodeTypeParallel)
	assert.Equal(t, models.NodeTypeParallel, executor.Type())

	result, err := executor.Execute(context.Background(), &models.Node{ID: "p", Type: models.NodeTypeParallel}, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, `node type "parallel" is not supported`, result.Error)
}
