package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/persistence/persistencetest"
)

func TestPersistence_Store(t *testing.T) {
	t.Parallel()

	persistencetest.RunStoreSuite(t, func(t *testing.T) persistence.Store {
		t.Helper()

		return NewPersistence("file://" + t.TempDir())
	})
}

func TestPersistence_YAMLDefinitions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, workflowsDir), 0750))

	definition := `
code: nightly-report
name: Nightly report
is_active: true
variables:
  recipients: ops@example.com
nodes:
  - id: start
    type: start
  - id: log
    type: log
    properties:
      message: "Sending to ${recipients}"
  - id: end
    type: end
connections:
  - from_node_id: start
    to_node_id: log
  - from_node_id: log
    to_node_id: end
`
	require.NoError(t, os.WriteFile(filepath.Join(root, workflowsDir, "nightly.yaml"), []byte(definition), 0600))

	store := NewPersistence(root)
	ctx := t.Context()

	workflow, err := store.GetWorkflow(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, "nightly", workflow.ID)
	assert.Equal(t, "Nightly report", workflow.Name)
	assert.True(t, workflow.IsActive)
	require.Len(t, workflow.Nodes, 3)
	assert.Equal(t, models.NodeTypeLog, workflow.Nodes[1].Type)
	assert.Equal(t, "Sending to ${recipients}", workflow.Nodes[1].Properties.String("message", ""))
	assert.Equal(t, "ops@example.com", workflow.Variables["recipients"])

	all, err := store.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	// Counters are persisted next to the definition and take precedence.
	require.NoError(t, store.RecordWorkflowRun(ctx, "nightly", true, workflow.CreatedAt))

	workflow, err = store.GetWorkflow(ctx, "nightly")
	require.NoError(t, err)
	assert.EqualValues(t, 1, workflow.ExecutionCount)

	all, err = store.ListWorkflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPersistence_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	store := NewPersistence(t.TempDir())
	ctx := t.Context()

	for _, id := range []string{"../escape", "a/b", `a\b`, ""} {
		_, err := store.GetWorkflow(ctx, id)
		require.Error(t, err, id)
		assert.False(t, persistence.IsNotFound(err), id)

		_, err = store.GetExecution(ctx, id)
		require.Error(t, err, id)
	}

	err := store.SaveSchedule(ctx, &models.WorkflowSchedule{ID: "../../etc/cron", WorkflowID: "wf"})
	require.Error(t, err)
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, NewPersistence(root).HealthCheck(t.Context()))

	require.Error(t, NewPersistence(filepath.Join(root, "missing")).HealthCheck(t.Context()))

	regular := filepath.Join(root, "regular")
	require.NoError(t, os.WriteFile(regular, []byte("x"), 0600))
	require.Error(t, NewPersistence(regular).HealthCheck(t.Context()))
}

func TestPersistence_LeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewPersistence(root)

	require.NoError(t, store.SaveWorkflow(t.Context(), persistencetest.SampleWorkflow("wf-1")))
	require.NoError(t, store.SaveWorkflow(t.Context(), persistencetest.SampleWorkflow("wf-1")))

	entries, err := os.ReadDir(filepath.Join(root, workflowsDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wf-1.json", entries[0].Name())
}
