package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/fieldflow/orchestrator/pkg/eventbus"
	"github.com/fieldflow/orchestrator/pkg/events"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/workflow"
)

// TriggeredBy is recorded on executions started by the scheduler.
const TriggeredBy = "scheduler"

// fire runs one invocation of j. A firing overlapping a running one of the
// same job is skipped, as is a firing that starts later than the misfire
// grace allows. Nothing raised in here reaches the cron loop.
func (s *Scheduler) fire(j *job, scheduled time.Time) {
	logger := s.logger.With("job_id", j.id, "workflow_id", j.workflowID, "schedule_id", j.scheduleID)

	if !j.running.CompareAndSwap(false, true) {
		logger.Warn("Previous run still in progress, skipping")
		s.skipped(j, events.SkipReasonAlreadyRunning, ResultSkipped)

		return
	}
	defer j.running.Store(false)

	now := s.now()

	if !scheduled.IsZero() && now.Sub(scheduled) > s.grace {
		logger.Warn("Run missed its misfire grace time, skipping", "scheduled_at", scheduled, "late_by", now.Sub(scheduled))
		s.skipped(j, events.SkipReasonMisfire, ResultMisfire)

		return
	}

	ctx := s.firingContext()

	wf, err := s.store.GetWorkflow(ctx, j.workflowID)
	if err != nil || !wf.IsActive {
		logger.Debug("Workflow missing or inactive, skipping", "error", err)
		s.skipped(j, events.SkipReasonWorkflowInactive, ResultSkipped)

		return
	}

	schedule, err := s.store.GetSchedule(ctx, j.scheduleID)
	if err != nil || !schedule.IsActive {
		logger.Debug("Schedule missing or inactive, skipping", "error", err)
		s.skipped(j, events.SkipReasonScheduleInactive, ResultSkipped)

		return
	}

	execution, runErr := s.execute(ctx, wf, schedule)

	success := runErr == nil && execution != nil && execution.Status == models.ExecutionStatusSuccess
	result := ResultFailure

	if success {
		result = ResultSuccess
	}

	if runErr != nil {
		logger.Error("Scheduled run failed", "error", runErr)
	}

	if err := s.store.RecordScheduleRun(context.WithoutCancel(ctx), schedule.ID, success, now, s.nextRun(j, s.now())); err != nil {
		logger.Error("Failed to record schedule run", "error", err)
	}

	s.metrics.ScheduleRun(result)

	fired := events.ScheduleFired{
		BaseEvent:    events.NewBaseEvent(events.ScheduleFiredEvent, j.workflowID),
		ScheduleID:   j.scheduleID,
		ScheduleType: string(j.scheduleType),
		Status:       result,
	}

	if execution != nil {
		fired.ExecutionID = execution.ExecutionID
		fired.Status = string(execution.Status)
	}

	s.publish(ctx, j.workflowID, fired)

	logger.Info("Scheduled run finished", "result", result)
}

// execute runs the workflow, turning a panic into an error.
func (s *Scheduler) execute(ctx context.Context, wf *models.Workflow, schedule *models.WorkflowSchedule) (execution *models.WorkflowExecution, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("scheduled run panicked: %v\n%s", recovered, debug.Stack())
		}
	}()

	return s.runner.Execute(ctx, wf, schedule.ContextInput(), workflow.Trigger{
		Type: models.TriggerTypeScheduled,
		Data: map[string]any{
			"schedule_id":   schedule.ID,
			"schedule_type": string(schedule.ScheduleType),
		},
		TriggeredBy: TriggeredBy,
	})
}

func (s *Scheduler) firingContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ctx == nil {
		return context.Background()
	}

	return s.ctx
}

func (s *Scheduler) skipped(j *job, reason, result string) {
	s.metrics.ScheduleRun(result)

	s.publish(context.Background(), j.workflowID, events.ScheduleSkipped{
		BaseEvent:  events.NewBaseEvent(events.ScheduleSkippedEvent, j.workflowID),
		ScheduleID: j.scheduleID,
		Reason:     reason,
	})
}

func (s *Scheduler) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Warn("Failed to publish scheduler event", "event_type", event.GetType(), "error", err)
	}
}
