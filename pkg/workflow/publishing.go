package workflow

import (
	"context"

	"github.com/fieldflow/orchestrator/pkg/eventbus"
	"github.com/fieldflow/orchestrator/pkg/events"
	"github.com/fieldflow/orchestrator/pkg/models"
)

func (e *Engine) publish(ctx context.Context, r *run, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, r.workflow.ID, event); err != nil {
		r.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) publishStarted(ctx context.Context, r *run) {
	e.publish(ctx, r, events.WorkflowExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowExecutionStartedEvent, r.workflow.ID),
		ExecutionID:  r.execution.ExecutionID,
		WorkflowName: r.workflow.Name,
		TriggerType:  r.execution.TriggerType,
		TriggerData:  r.execution.TriggerData,
		TriggeredBy:  r.execution.TriggeredBy,
	})
}

func (e *Engine) publishNode(ctx context.Context, r *run, record *models.WorkflowNodeExecution) {
	if record.Status == models.NodeStatusFailed {
		e.publish(ctx, r, events.NodeExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.NodeExecutionFailedEvent, r.workflow.ID),
			ExecutionID: record.ExecutionID,
			NodeID:      record.NodeID,
			NodeType:    record.NodeType,
			Error:       record.ErrorMessage,
			DurationMs:  record.DurationMs,
		})

		return
	}

	e.publish(ctx, r, events.NodeExecutionFinished{
		BaseEvent:   events.NewBaseEvent(events.NodeExecutionFinishedEvent, r.workflow.ID),
		ExecutionID: record.ExecutionID,
		NodeID:      record.NodeID,
		NodeType:    record.NodeType,
		Branch:      record.Branch,
		OutputData:  record.OutputData,
		DurationMs:  record.DurationMs,
	})
}

func (e *Engine) publishFinished(ctx context.Context, r *run) {
	execution := r.execution

	if execution.Status == models.ExecutionStatusSuccess {
		e.publish(ctx, r, events.WorkflowExecutionCompleted{
			BaseEvent:     events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, r.workflow.ID),
			ExecutionID:   execution.ExecutionID,
			Status:        string(execution.Status),
			DurationMs:    execution.DurationMs,
			NodesExecuted: len(execution.ExecutionPath),
			Outputs:       r.outputs,
		})

		return
	}

	e.publish(ctx, r, events.WorkflowExecutionFailed{
		BaseEvent:     events.NewBaseEvent(events.WorkflowExecutionFailedEvent, r.workflow.ID),
		ExecutionID:   execution.ExecutionID,
		Status:        string(execution.Status),
		DurationMs:    execution.DurationMs,
		NodeID:        r.failedID,
		Error:         execution.ErrorMessage,
		NodesExecuted: len(execution.ExecutionPath),
	})
}
