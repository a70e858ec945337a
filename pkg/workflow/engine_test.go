package workflow_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/eventbus"
	"github.com/fieldflow/orchestrator/pkg/events"
	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/metrics"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence/memory"
	"github.com/fieldflow/orchestrator/pkg/protocol"
	"github.com/fieldflow/orchestrator/pkg/registry"
	"github.com/fieldflow/orchestrator/pkg/workflow"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.EventType
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event.GetType())

	return nil
}

func newEngine(t *testing.T, opts ...workflow.Option) (*workflow.Engine, *memory.Persistence, *registry.Registry) {
	t.Helper()

	store := memory.NewPersistence()
	reg := registry.NewDefaultRegistry(protocol.Dependencies{Logger: log.Discard(), HTTPClient: http.DefaultClient})

	return workflow.NewEngine(store, reg, log.Discard(), opts...), store, reg
}

func saveWorkflow(t *testing.T, store *memory.Persistence, wf *models.Workflow) *models.Workflow {
	t.Helper()

	require.NoError(t, store.SaveWorkflow(t.Context(), wf))

	return wf
}

func linear(id string, nodes ...*models.Node) *models.Workflow {
	wf := &models.Workflow{ID: id, Name: id, IsActive: true, Nodes: nodes}

	for i := 0; i+1 < len(nodes); i++ {
		wf.Connections = append(wf.Connections, &models.Connection{FromNodeID: nodes[i].ID, ToNodeID: nodes[i+1].ID})
	}

	return wf
}

func TestEngine_StartToEnd(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, linear("wf-simple",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, models.TriggerTypeManual, execution.TriggerType)
	assert.Equal(t, []string{"start", "end"}, execution.ExecutionPath)
	assert.Equal(t, models.NodeStatusSuccess, execution.NodeStates["start"].Status)
	assert.Equal(t, models.NodeStatusSuccess, execution.NodeStates["end"].Status)
	assert.Less(t, execution.NodeStates["start"].Sequence, execution.NodeStates["end"].Sequence)
	require.NotNil(t, execution.CompletedAt)

	stored, err := store.GetExecution(t.Context(), execution.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, stored.Status)

	records, err := store.ListNodeExecutions(t.Context(), execution.ExecutionID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "start", records[0].NodeID)
	assert.Equal(t, "end", records[1].NodeID)
	assert.Equal(t, models.NodeStatusSuccess, records[1].Status)

	counted, err := store.GetWorkflow(t.Context(), "wf-simple")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counted.ExecutionCount)
	assert.Equal(t, int64(1), counted.SuccessCount)
	assert.NotNil(t, counted.LastExecutedAt)
}

func TestEngine_ContextSeedAndOutputs(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := linear("wf-outputs",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "shape", Type: models.NodeTypeTransform, Properties: models.Properties{
			"mappings":       map[string]any{"who": "user.name", "site": "site"},
			"outputVariable": "shaped",
		}},
		&models.Node{ID: "end", Type: models.NodeTypeEnd, Properties: models.Properties{
			"outputVariables": map[string]any{"name": "shaped.who", "wf": "workflow_id", "via": "trigger_data.source"},
		}},
	)
	wf.Code = "WF-OUT"
	wf.Variables = map[string]any{"site": "north"}
	saveWorkflow(t, store, wf)

	execution, err := engine.Execute(t.Context(), wf, map[string]any{"user": map[string]any{"name": "Ada"}}, workflow.Trigger{
		Type:        models.TriggerTypeAPI,
		Data:        map[string]any{"source": "test"},
		TriggeredBy: "alice",
		ExecutionID: "exec-fixed",
	})
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusSuccess, execution.Status, execution.ErrorMessage)

	assert.Equal(t, "exec-fixed", execution.ExecutionID)
	assert.Equal(t, "alice", execution.TriggeredBy)

	outputs := execution.Result["outputs"].(map[string]any)
	assert.Equal(t, "Ada", outputs["name"])
	assert.Equal(t, "wf-outputs", outputs["wf"])
	assert.Equal(t, "test", outputs["via"])

	finalCtx := execution.Result["context"].(map[string]any)
	assert.Equal(t, "WF-OUT", finalCtx[workflow.WorkflowCodeKey])
	assert.Equal(t, "exec-fixed", finalCtx[workflow.ExecutionIDKey])
	assert.Equal(t, models.TriggerTypeAPI, finalCtx[workflow.TriggerTypeKey])
	assert.Equal(t, "north", finalCtx["shaped"].(map[string]any)["site"])
}

func TestEngine_FailingNodeFailsExecution(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, linear("wf-fail",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "call", Type: models.NodeTypeAPI, Name: "Call Backend", Properties: models.Properties{"url": server.URL}},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.ErrorMessage, "Call Backend")
	assert.Contains(t, execution.ErrorMessage, "500")
	assert.Equal(t, []string{"start", "call"}, execution.ExecutionPath)
	assert.Equal(t, models.NodeStatusFailed, execution.NodeStates["call"].Status)

	counted, err := store.GetWorkflow(t.Context(), "wf-fail")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counted.FailureCount)
	assert.Equal(t, int64(0), counted.SuccessCount)
}

func TestEngine_ConditionBranches(t *testing.T) {
	cases := []struct {
		name  string
		left  string
		right string
		want  string
	}{
		{"true branch", "5", "3", "high"},
		{"false branch", "3", "5", "low"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, store, _ := newEngine(t)

			wf := &models.Workflow{
				ID: "wf-branch",
				Nodes: []*models.Node{
					{ID: "start", Type: models.NodeTypeStart},
					{ID: "check", Type: models.NodeTypeCondition, Properties: models.Properties{
						"leftOperand": tc.left, "operator": "gt", "rightOperand": tc.right,
					}},
					{ID: "high", Type: models.NodeTypeLog, Properties: models.Properties{"message": "high"}},
					{ID: "low", Type: models.NodeTypeLog, Properties: models.Properties{"message": "low"}},
					{ID: "end", Type: models.NodeTypeEnd},
				},
				Connections: []*models.Connection{
					{FromNodeID: "start", ToNodeID: "check"},
					{FromNodeID: "check", ToNodeID: "high", Condition: "TRUE"},
					{FromNodeID: "check", ToNodeID: "low", Condition: "false"},
					{FromNodeID: "high", ToNodeID: "end"},
					{FromNodeID: "low", ToNodeID: "end"},
				},
			}
			saveWorkflow(t, store, wf)

			execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
			require.NoError(t, err)
			require.Equal(t, models.ExecutionStatusSuccess, execution.Status, execution.ErrorMessage)

			assert.Equal(t, []string{"start", "check", tc.want, "end"}, execution.ExecutionPath)
		})
	}
}

func TestEngine_BranchingFailureContinues(t *testing.T) {
	engine, store, reg := newEngine(t)

	reg.Register(branchingFailer{})

	wf := &models.Workflow{
		ID: "wf-branch-fail",
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeStart},
			{ID: "probe", Type: "probe"},
			{ID: "fallback", Type: models.NodeTypeLog, Properties: models.Properties{"message": "fallback"}},
			{ID: "end", Type: models.NodeTypeEnd},
		},
		Connections: []*models.Connection{
			{FromNodeID: "start", ToNodeID: "probe"},
			{FromNodeID: "probe", ToNodeID: "fallback", Condition: "error"},
			{FromNodeID: "fallback", ToNodeID: "end"},
		},
	}
	saveWorkflow(t, store, wf)

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, models.NodeStatusFailed, execution.NodeStates["probe"].Status)
	assert.Equal(t, []string{"start", "probe", "fallback", "end"}, execution.ExecutionPath)
}

type branchingFailer struct{}

func (branchingFailer) Type() string    { return "probe" }
func (branchingFailer) Branching() bool { return true }

func (branchingFailer) Execute(context.Context, *models.Node, models.ExecutionContext) (models.NodeExecutionResult, error) {
	res := models.Fail("probe unreachable")
	res.Branch = "error"

	return res, nil
}

func TestEngine_DepthFirstOrder(t *testing.T) {
	engine, store, _ := newEngine(t)

	logNode := func(id string) *models.Node {
		return &models.Node{ID: id, Type: models.NodeTypeLog, Properties: models.Properties{"message": id}}
	}

	wf := &models.Workflow{
		ID: "wf-fanout",
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeStart},
			logNode("a"), logNode("a1"), logNode("b"),
		},
		Connections: []*models.Connection{
			{FromNodeID: "start", ToNodeID: "a"},
			{FromNodeID: "start", ToNodeID: "b"},
			{FromNodeID: "a", ToNodeID: "a1"},
		},
	}
	saveWorkflow(t, store, wf)

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, []string{"start", "a", "a1", "b"}, execution.ExecutionPath)
}

func TestEngine_MissingStartNode(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, &models.Workflow{
		ID:    "wf-nostart",
		Nodes: []*models.Node{{ID: "end", Type: models.NodeTypeEnd}},
	})

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Equal(t, "missing start node", execution.ErrorMessage)
	assert.Empty(t, execution.ExecutionPath)

	counted, err := store.GetWorkflow(t.Context(), "wf-nostart")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counted.FailureCount)
}

func TestEngine_DanglingConnection(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, &models.Workflow{
		ID:          "wf-dangling",
		Nodes:       []*models.Node{{ID: "start", Type: models.NodeTypeStart}},
		Connections: []*models.Connection{{FromNodeID: "start", ToNodeID: "ghost"}},
	})

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.ErrorMessage, "ghost")
}

func TestEngine_CycleGuard(t *testing.T) {
	engine, store, _ := newEngine(t, workflow.WithMaxSteps(10))

	wf := &models.Workflow{
		ID: "wf-cycle",
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeStart},
			{ID: "a", Type: models.NodeTypeLog, Properties: models.Properties{"message": "a"}},
			{ID: "b", Type: models.NodeTypeLog, Properties: models.Properties{"message": "b"}},
		},
		Connections: []*models.Connection{
			{FromNodeID: "start", ToNodeID: "a"},
			{FromNodeID: "a", ToNodeID: "b"},
			{FromNodeID: "b", ToNodeID: "a"},
		},
	}
	saveWorkflow(t, store, wf)

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.ErrorMessage, "exceeded 10 steps")
	assert.Len(t, execution.ExecutionPath, 10)
}

func TestEngine_EndFailure(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, linear("wf-endfail",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "end", Type: models.NodeTypeEnd, Properties: models.Properties{"endType": "failure", "message": "rejected"}},
	))

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Equal(t, `node "end" failed: rejected`, execution.ErrorMessage)
	assert.Equal(t, models.NodeStatusFailed, execution.NodeStates["end"].Status)
}

func TestEngine_NodeInputIsContextSnapshot(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, linear("wf-input",
		&models.Node{ID: "start", Type: models.NodeTypeStart, Properties: models.Properties{
			"inputVariables": map[string]any{"order": 42},
		}},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	execution, err := engine.Execute(t.Context(), wf, map[string]any{"source": "api"}, workflow.Trigger{})
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	records, err := store.ListNodeExecutions(t.Context(), execution.ExecutionID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	start, end := records[0], records[1]
	assert.Equal(t, "api", start.InputData["source"])
	assert.NotContains(t, start.InputData, "order")

	assert.Equal(t, "end", end.NodeID)
	assert.Contains(t, end.InputData, "order")
	assert.Equal(t, "wf-input", end.InputData["workflow_id"])
	assert.NotContains(t, end.InputData, "endType")
}

func TestEngine_ExecutorPanicIsRecovered(t *testing.T) {
	engine, store, reg := newEngine(t)

	reg.Register(protocol.ExecutorFunc{
		NodeType: "explode",
		Fn: func(context.Context, *models.Node, models.ExecutionContext) (models.NodeExecutionResult, error) {
			panic("kaboom")
		},
	})

	wf := saveWorkflow(t, store, linear("wf-panic",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "bad", Type: "explode", Name: "Exploder"},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.ErrorMessage, "Exploder")
	assert.Contains(t, execution.ErrorMessage, "kaboom")
	assert.NotEmpty(t, execution.ErrorStack)

	records, err := store.ListNodeExecutions(t.Context(), execution.ExecutionID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[1].ErrorStack)
}

func TestEngine_ExecutorErrorIsFatal(t *testing.T) {
	engine, store, reg := newEngine(t)

	reg.Register(protocol.ExecutorFunc{
		NodeType: models.NodeTypeCondition,
		Fn: func(context.Context, *models.Node, models.ExecutionContext) (models.NodeExecutionResult, error) {
			return models.NodeExecutionResult{}, errors.New("evaluator crashed")
		},
	})

	wf := saveWorkflow(t, store, linear("wf-branch-err",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "check", Type: models.NodeTypeCondition},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.ErrorMessage, "evaluator crashed")
}

func TestEngine_UnknownNodeTypePassesThrough(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, linear("wf-unknown",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "mystery", Type: "mystery"},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, []string{"start", "mystery", "end"}, execution.ExecutionPath)
}

func TestEngine_DelayDuration(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, linear("wf-delay",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "wait", Type: models.NodeTypeDelay, Properties: models.Properties{"duration": 0.05, "unit": "seconds"}},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	records, err := store.ListNodeExecutions(t.Context(), execution.ExecutionID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.GreaterOrEqual(t, records[1].DurationMs, int64(50))
}

func TestEngine_Cancellation(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, linear("wf-cancel",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "wait", Type: models.NodeTypeDelay, Properties: models.Properties{"duration": 10, "unit": "seconds"}},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		time.AfterFunc(20*time.Millisecond, cancel)

		execution, err := engine.Execute(ctx, wf, nil, workflow.Trigger{})
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionStatusCancelled, execution.Status)
		assert.Equal(t, models.NodeStatusFailed, execution.NodeStates["wait"].Status)
	})

	t.Run("timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		execution, err := engine.Execute(ctx, wf, nil, workflow.Trigger{})
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionStatusTimeout, execution.Status)
	})

	counted, err := store.GetWorkflow(t.Context(), "wf-cancel")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counted.FailureCount)
}

func TestEngine_WorkflowTimeout(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := linear("wf-timeout",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "wait", Type: models.NodeTypeDelay, Properties: models.Properties{"duration": 10, "unit": "seconds"}},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	)
	wf.TimeoutSeconds = 1
	wf = saveWorkflow(t, store, wf)

	execution, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusTimeout, execution.Status)
	assert.Less(t, execution.DurationMs, int64(5000))
}

func TestEngine_EventsAndMetrics(t *testing.T) {
	publisher := &recordingPublisher{}
	m := metrics.New()

	engine, store, _ := newEngine(t, workflow.WithPublisher(publisher), workflow.WithMetrics(m))

	wf := saveWorkflow(t, store, linear("wf-events",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	_, err := engine.Execute(t.Context(), wf, nil, workflow.Trigger{})
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.WorkflowExecutionStartedEvent,
		events.NodeExecutionFinishedEvent,
		events.NodeExecutionFinishedEvent,
		events.WorkflowExecutionCompletedEvent,
	}, publisher.events)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var found bool

	for _, family := range families {
		if family.GetName() == "orchestrator_executions_total" {
			found = true
		}
	}

	assert.True(t, found)
}

func TestEngine_ExecuteByID(t *testing.T) {
	engine, store, _ := newEngine(t)

	saveWorkflow(t, store, linear("wf-by-id",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "end", Type: models.NodeTypeEnd},
	))

	execution, err := engine.ExecuteByID(t.Context(), "wf-by-id", nil, workflow.Trigger{Type: models.TriggerTypeAPI})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	_, err = engine.ExecuteByID(t.Context(), "missing", nil, workflow.Trigger{})
	require.Error(t, err)
}

func TestEngine_ConcurrentExecutionsAreIsolated(t *testing.T) {
	engine, store, _ := newEngine(t)

	wf := saveWorkflow(t, store, linear("wf-concurrent",
		&models.Node{ID: "start", Type: models.NodeTypeStart},
		&models.Node{ID: "shape", Type: models.NodeTypeTransform, Properties: models.Properties{
			"mappings": map[string]any{"seen": "n"},
		}},
		&models.Node{ID: "end", Type: models.NodeTypeEnd, Properties: models.Properties{
			"outputVariables": map[string]any{"seen": "seen"},
		}},
	))

	var wg sync.WaitGroup

	results := make([]*models.WorkflowExecution, 10)

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			execution, err := engine.Execute(context.Background(), wf, map[string]any{"n": float64(i)}, workflow.Trigger{})
			if err == nil {
				results[i] = execution
			}
		}()
	}

	wg.Wait()

	for i, execution := range results {
		require.NotNil(t, execution)
		assert.Equal(t, float64(i), execution.Result["outputs"].(map[string]any)["seen"])
	}

	counted, err := store.GetWorkflow(t.Context(), "wf-concurrent")
	require.NoError(t, err)
	assert.Equal(t, int64(10), counted.ExecutionCount)
}

func TestWorkflowError(t *testing.T) {
	err := &workflow.WorkflowError{Op: "execute", NodeID: "n1", NodeName: "Fetch", Err: workflow.ErrNodeFailed, Message: "HTTP 500: boom"}

	assert.Equal(t, `node "Fetch" failed: HTTP 500: boom`, err.Error())
	assert.ErrorIs(t, err, workflow.ErrNodeFailed)

	missing := &workflow.WorkflowError{Op: "traverse", Err: workflow.ErrMissingStartNode}
	assert.Equal(t, "traverse: missing start node", missing.Error())
	assert.ErrorIs(t, missing, workflow.ErrMissingStartNode)
}
