// Package workflow runs workflow graphs node by node and records the outcome.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldflow/orchestrator/pkg/eventbus"
	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/metrics"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/nodes/end"
	"github.com/fieldflow/orchestrator/pkg/otelhelper"
	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/registry"
)

// Context keys seeded by the engine before the start node runs.
const (
	WorkflowIDKey   = "workflow_id"
	WorkflowCodeKey = "workflow_code"
	ExecutionIDKey  = "execution_id"
	TriggerTypeKey  = "trigger_type"
	TriggerDataKey  = "trigger_data"
	TriggeredByKey  = "triggered_by"
)

// Trigger describes who or what started an execution.
type Trigger struct {
	Type              string
	Data              map[string]any
	TriggeredBy       string
	ExecutionID       string // optional, generated when empty
	ParentExecutionID string
}

// Engine executes workflows. It holds no per-execution state, so one Engine
// serves any number of concurrent executions.
type Engine struct {
	store     persistence.Store
	registry  *registry.Registry
	logger    *slog.Logger
	publisher eventbus.EventPublisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	maxSteps  int
	now       func() time.Time
}

func NewEngine(store persistence.Store, reg *registry.Registry, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = log.Discard()
	}

	e := &Engine{
		store:    store,
		registry: reg,
		logger:   logger.With("module", "workflow_engine"),
		tracer:   otelhelper.NoopTracer(),
		maxSteps: DefaultMaxSteps,
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// run is the state of one execution.
type run struct {
	workflow  *models.Workflow
	execution *models.WorkflowExecution
	context   models.ExecutionContext
	logger    *slog.Logger
	outputs   map[string]any
	sequence  int
	stack     string
	failedID  string
}

// ExecuteByID loads the workflow from the store and executes it.
func (e *Engine) ExecuteByID(ctx context.Context, workflowID string, input map[string]any, trigger Trigger) (*models.WorkflowExecution, error) {
	wf, err := e.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
	}

	return e.Execute(ctx, wf, input, trigger)
}

// Execute runs wf to completion and returns the finalized execution record.
// An error is returned only when the execution record cannot be created;
// every other failure is reported through the record's status.
func (e *Engine) Execute(ctx context.Context, wf *models.Workflow, input map[string]any, trigger Trigger) (*models.WorkflowExecution, error) {
	if wf == nil {
		return nil, ErrNilWorkflow
	}

	if trigger.Type == "" {
		trigger.Type = models.TriggerTypeManual
	}

	executionID := trigger.ExecutionID
	if executionID == "" {
		executionID = uuid.NewString()
	}

	execution := &models.WorkflowExecution{
		ExecutionID:       executionID,
		WorkflowID:        wf.ID,
		Status:            models.ExecutionStatusRunning,
		TriggerType:       trigger.Type,
		TriggerData:       trigger.Data,
		TriggeredBy:       trigger.TriggeredBy,
		StartedAt:         e.now(),
		NodeStates:        make(map[string]models.NodeState),
		ExecutionPath:     []string{},
		ParentExecutionID: trigger.ParentExecutionID,
	}

	if err := e.store.CreateExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution record: %w", err)
	}

	logger := e.logger.With("workflow_id", wf.ID, "execution_id", executionID)
	ctx = log.WithLogger(ctx, logger)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
		attribute.String(otelhelper.WorkflowNameKey, wf.Name),
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.TriggerTypeKey, trigger.Type),
	)
	defer span.End()

	if wf.TimeoutSeconds > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, time.Duration(wf.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	r := &run{
		workflow:  wf,
		execution: execution,
		context:   seedContext(wf, input, execution),
		logger:    logger,
		outputs:   make(map[string]any),
	}

	logger.InfoContext(ctx, "Starting workflow execution", "trigger_type", trigger.Type)
	e.publishStarted(ctx, r)

	runErr := e.traverse(ctx, r)
	e.finish(ctx, r, runErr)

	if runErr != nil {
		otelhelper.SetError(span, runErr, attribute.String(otelhelper.NodeIDKey, r.failedID))
	}

	span.SetAttributes(attribute.String(otelhelper.StatusKey, string(execution.Status)))

	return execution, nil
}

func seedContext(wf *models.Workflow, input map[string]any, execution *models.WorkflowExecution) models.ExecutionContext {
	execCtx := models.ExecutionContext(wf.Variables).Clone()
	execCtx.Merge(input)

	execCtx[WorkflowIDKey] = wf.ID
	execCtx[WorkflowCodeKey] = wf.Code
	execCtx[ExecutionIDKey] = execution.ExecutionID
	execCtx[TriggerTypeKey] = execution.TriggerType
	execCtx[TriggerDataKey] = models.ExecutionContext(execution.TriggerData).Clone()
	execCtx[TriggeredByKey] = execution.TriggeredBy

	return execCtx
}

// traverse walks the graph depth-first with an explicit stack. Successors are
// pushed in reverse so they run in connection order.
func (e *Engine) traverse(ctx context.Context, r *run) error {
	starts := r.workflow.StartNodes()
	if len(starts) == 0 {
		return &WorkflowError{Op: "traverse", Err: ErrMissingStartNode, Message: ErrMissingStartNode.Error()}
	}

	if len(starts) > 1 {
		r.logger.WarnContext(ctx, "Workflow has more than one start node, using the first", "start_node", starts[0].ID)
	}

	stack := []*models.Node{starts[0]}
	steps := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		steps++
		if steps > e.maxSteps {
			return graphError(ErrMaxStepsExceeded, "execution exceeded %d steps at node %q", e.maxSteps, node.ID)
		}

		result, err := e.runNode(ctx, r, node)
		if err != nil {
			r.failedID = node.ID

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			return &WorkflowError{Op: "execute", NodeID: node.ID, NodeName: node.DisplayName(), Err: err}
		}

		if node.Type == models.NodeTypeEnd {
			if !result.Success {
				r.failedID = node.ID

				return &WorkflowError{Op: "end", NodeID: node.ID, NodeName: node.DisplayName(), Err: ErrNodeFailed, Message: result.Error}
			}

			continue
		}

		branching := e.registry.IsBranching(node.Type)

		if !result.Success && !branching {
			r.failedID = node.ID

			return &WorkflowError{Op: "execute", NodeID: node.ID, NodeName: node.DisplayName(), Err: ErrNodeFailed, Message: result.Error}
		}

		outgoing := r.workflow.Outgoing(node.ID)
		if len(outgoing) == 0 {
			r.logger.WarnContext(ctx, "Node has no outgoing connections, stopping this path", "node_id", node.ID)

			continue
		}

		next := make([]*models.Node, 0, len(outgoing))

		for _, conn := range outgoing {
			if branching && !conn.Matches(result.Branch) {
				continue
			}

			target, ok := r.workflow.NodeByID(conn.ToNodeID)
			if !ok {
				r.failedID = node.ID

				return graphError(ErrNodeNotFound, "connection from %q references unknown node %q", node.ID, conn.ToNodeID)
			}

			next = append(next, target)
		}

		if len(next) == 0 {
			r.logger.InfoContext(ctx, "No connection matches branch", "node_id", node.ID, "branch", result.Branch)
		}

		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}

	return nil
}

// runNode executes one node and records it. A non-nil error means the
// executor itself errored or panicked.
func (e *Engine) runNode(ctx context.Context, r *run, node *models.Node) (models.NodeExecutionResult, error) {
	r.sequence++
	startedAt := e.now()
	logger := r.logger.With("node_id", node.ID, "node_type", node.Type)
	snapshot := r.context.Clone()

	record := &models.WorkflowNodeExecution{
		ID:          uuid.NewString(),
		ExecutionID: r.execution.ExecutionID,
		NodeID:      node.ID,
		NodeName:    node.DisplayName(),
		NodeType:    node.Type,
		Sequence:    r.sequence,
		Status:      models.NodeStatusRunning,
		StartedAt:   startedAt,
		InputData:   map[string]any(snapshot),
	}

	if err := e.store.CreateNodeExecution(ctx, record); err != nil {
		logger.ErrorContext(ctx, "Failed to create node execution record", "error", err)
	}

	r.execution.CurrentNodeID = node.ID

	nodeCtx, span := otelhelper.StartSpan(ctx, e.tracer, "node.execute",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.Type),
	)
	defer span.End()

	logger.DebugContext(nodeCtx, "Executing node")

	result, stack, err := e.invoke(nodeCtx, node, snapshot)

	r.context.Merge(result.Output)

	completedAt := e.now()
	duration := completedAt.Sub(startedAt)

	record.CompletedAt = &completedAt
	record.DurationMs = duration.Milliseconds()
	record.OutputData = result.Output
	record.Branch = result.Branch
	record.Status = models.NodeStatusSuccess

	switch {
	case err != nil:
		record.Status = models.NodeStatusFailed
		record.ErrorMessage = err.Error()
		record.ErrorStack = stack
		r.stack = stack
	case !result.Success:
		record.Status = models.NodeStatusFailed
		record.ErrorMessage = result.Error
	}

	if err := e.store.UpdateNodeExecution(context.WithoutCancel(ctx), record); err != nil {
		logger.ErrorContext(ctx, "Failed to update node execution record", "error", err)
	}

	r.execution.NodeStates[node.ID] = models.NodeState{
		Status:   record.Status,
		Output:   result.Output,
		Error:    record.ErrorMessage,
		Sequence: r.sequence,
	}
	r.execution.ExecutionPath = append(r.execution.ExecutionPath, node.ID)

	if outputs, ok := result.Output[end.OutputsKey].(map[string]any); ok && node.Type == models.NodeTypeEnd {
		for name, value := range outputs {
			r.outputs[name] = value
		}
	}

	if err := e.store.UpdateExecution(context.WithoutCancel(ctx), r.execution); err != nil {
		logger.ErrorContext(ctx, "Failed to persist execution progress", "error", err)
	}

	e.metrics.ObserveNode(node.Type, string(record.Status), duration)

	if record.Status == models.NodeStatusFailed {
		otelhelper.SetError(span, errors.New(record.ErrorMessage), attribute.String(otelhelper.NodeIDKey, node.ID))
		logger.WarnContext(ctx, "Node failed", "error", record.ErrorMessage, "duration_ms", record.DurationMs)
	} else {
		logger.InfoContext(ctx, "Node completed", "branch", record.Branch, "duration_ms", record.DurationMs)
	}

	e.publishNode(ctx, r, record)

	return result, err
}

// invoke calls the executor and converts a panic into an error carrying the
// goroutine stack.
func (e *Engine) invoke(ctx context.Context, node *models.Node, snapshot models.ExecutionContext) (result models.NodeExecutionResult, stack string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = models.Fail(fmt.Sprint(recovered))
			stack = string(debug.Stack())
			err = fmt.Errorf("%w: %v", ErrExecutorPanic, recovered)
		}
	}()

	executor := e.registry.Get(node.Type)

	result, err = executor.Execute(ctx, node, snapshot)
	if err != nil && result.Error == "" {
		result.Error = err.Error()
	}

	return result, "", err
}

// finish sets the terminal status and writes the record, the workflow
// counters, metrics and events exactly once.
func (e *Engine) finish(ctx context.Context, r *run, runErr error) {
	execution := r.execution
	completedAt := e.now()
	duration := completedAt.Sub(execution.StartedAt)

	execution.CompletedAt = &completedAt
	execution.DurationMs = duration.Milliseconds()
	execution.CurrentNodeID = ""
	execution.Status = statusFor(runErr)
	execution.Result = map[string]any{
		"outputs": r.outputs,
		"context": map[string]any(r.context),
	}

	if runErr != nil {
		execution.ErrorMessage = runErr.Error()
		execution.ErrorStack = r.stack
	}

	// The caller's context may already be cancelled; the outcome is still recorded.
	persistCtx := context.WithoutCancel(ctx)

	if err := e.store.UpdateExecution(persistCtx, execution); err != nil {
		r.logger.ErrorContext(ctx, "Failed to persist execution result", "error", err)
	}

	success := execution.Status == models.ExecutionStatusSuccess

	if err := e.store.RecordWorkflowRun(persistCtx, execution.WorkflowID, success, completedAt); err != nil {
		r.logger.ErrorContext(ctx, "Failed to update workflow counters", "error", err)
	}

	e.metrics.ObserveExecution(string(execution.Status), duration)

	if success {
		r.logger.InfoContext(ctx, "Workflow execution completed", "duration_ms", execution.DurationMs, "nodes", len(execution.ExecutionPath))
	} else {
		r.logger.ErrorContext(ctx, "Workflow execution did not succeed",
			"status", execution.Status, "error", execution.ErrorMessage, "duration_ms", execution.DurationMs)
	}

	e.publishFinished(persistCtx, r)
}

func statusFor(err error) models.ExecutionStatus {
	switch {
	case err == nil:
		return models.ExecutionStatusSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return models.ExecutionStatusTimeout
	case errors.Is(err, context.Canceled):
		return models.ExecutionStatusCancelled
	default:
		return models.ExecutionStatusFailed
	}
}
