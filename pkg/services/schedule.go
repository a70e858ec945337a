package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/scheduler"
)

// JobScheduler is the part of *scheduler.Scheduler the service drives.
type JobScheduler interface {
	IsRunning() bool
	AddSchedule(schedule *models.WorkflowSchedule) bool
	RemoveSchedule(scheduleID, workflowID string) bool
	UpdateSchedule(schedule *models.WorkflowSchedule) bool
	GetJobInfo(workflowID, scheduleID string) (scheduler.JobInfo, bool)
	ListJobs() []scheduler.JobInfo
}

// Schedule keeps stored schedules and scheduler jobs in step.
type Schedule struct {
	store     persistence.Store
	scheduler JobScheduler
	logger    *slog.Logger
}

func NewSchedule(store persistence.Store, jobs JobScheduler, logger *slog.Logger) *Schedule {
	if logger == nil {
		logger = log.Discard()
	}

	return &Schedule{store: store, scheduler: jobs, logger: logger.With("module", "schedule_service")}
}

// ScheduleResult is a stored schedule and, when registered, its job.
type ScheduleResult struct {
	Schedule *models.WorkflowSchedule `json:"schedule"`
	Job      *scheduler.JobInfo       `json:"job,omitempty"`
}

func (s *Schedule) Get(ctx context.Context, id string) (*ScheduleResult, error) {
	schedule, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.result(schedule), nil
}

// Create stores a new schedule and registers it when active. A schedule the
// scheduler refuses, such as a once schedule in the past, is rolled back.
func (s *Schedule) Create(ctx context.Context, schedule *models.WorkflowSchedule) (*ScheduleResult, error) {
	if schedule == nil {
		return nil, NewValidationError("CreateSchedule", "invalid_schedule", "schedule is required", ErrInvalidSchedule)
	}

	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}

	if err := s.check(ctx, "CreateSchedule", schedule); err != nil {
		return nil, err
	}

	_, err := s.store.GetSchedule(ctx, schedule.ID)

	switch {
	case err == nil:
		return nil, &ServiceError{Op: "CreateSchedule", Code: "conflict", Message: "schedule " + schedule.ID + " already exists", Err: persistence.ErrAlreadyExists}
	case !persistence.IsNotFound(err):
		return nil, err
	}

	schedule.RunCount, schedule.SuccessCount, schedule.FailureCount = 0, 0, 0
	schedule.LastRunAt, schedule.NextRunAt = nil, nil

	if err := s.store.SaveSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	if schedule.IsActive && s.running() && !s.scheduler.AddSchedule(schedule) {
		if err := s.store.DeleteSchedule(ctx, schedule.ID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to roll back rejected schedule", "schedule_id", schedule.ID, "error", err)
		}

		return nil, &ServiceError{Op: "CreateSchedule", Code: "schedule_rejected", Message: "schedule " + schedule.ID + " would never fire", Err: ErrScheduleRejected}
	}

	s.logger.InfoContext(ctx, "Schedule created", "schedule_id", schedule.ID, "workflow_id", schedule.WorkflowID)

	return s.Get(ctx, schedule.ID)
}

// Update rewrites a schedule definition; its run statistics are kept.
// Deactivating a schedule removes its job.
func (s *Schedule) Update(ctx context.Context, schedule *models.WorkflowSchedule) (*ScheduleResult, error) {
	if schedule == nil {
		return nil, NewValidationError("UpdateSchedule", "invalid_schedule", "schedule is required", ErrInvalidSchedule)
	}

	stored, err := s.store.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return nil, err
	}

	if err := s.check(ctx, "UpdateSchedule", schedule); err != nil {
		return nil, err
	}

	if err := s.store.UpdateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	if s.running() {
		if stored.WorkflowID != schedule.WorkflowID {
			s.scheduler.RemoveSchedule(stored.ID, stored.WorkflowID)
		}

		if !s.scheduler.UpdateSchedule(schedule) {
			return nil, &ServiceError{Op: "UpdateSchedule", Code: "schedule_rejected", Message: "schedule " + schedule.ID + " would never fire", Err: ErrScheduleRejected}
		}
	}

	return s.Get(ctx, schedule.ID)
}

func (s *Schedule) Delete(ctx context.Context, id string) error {
	stored, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return err
	}

	if s.running() {
		s.scheduler.RemoveSchedule(stored.ID, stored.WorkflowID)
	}

	if err := s.store.DeleteSchedule(ctx, id); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	s.logger.InfoContext(ctx, "Schedule deleted", "schedule_id", id, "workflow_id", stored.WorkflowID)

	return nil
}

func (s *Schedule) Jobs() ([]scheduler.JobInfo, error) {
	if !s.running() {
		return nil, ErrSchedulerUnavailable
	}

	return s.scheduler.ListJobs(), nil
}

func (s *Schedule) Job(workflowID, scheduleID string) (scheduler.JobInfo, error) {
	if !s.running() {
		return scheduler.JobInfo{}, ErrSchedulerUnavailable
	}

	info, ok := s.scheduler.GetJobInfo(workflowID, scheduleID)
	if !ok {
		return scheduler.JobInfo{}, fmt.Errorf("job %s: %w", scheduler.JobID(workflowID, scheduleID), persistence.ErrScheduleNotFound)
	}

	return info, nil
}

// check validates the schedule shape, its trigger config and its workflow.
func (s *Schedule) check(ctx context.Context, op string, schedule *models.WorkflowSchedule) error {
	if err := schedule.Validate(); err != nil {
		return NewValidationError(op, "invalid_schedule", "id, workflow_id and a known schedule_type are required", ErrInvalidSchedule)
	}

	if _, err := scheduler.BuildTrigger(schedule.ScheduleType, schedule.ScheduleConfig, nil); err != nil {
		return NewValidationError(op, "invalid_schedule", err.Error(), errors.Join(ErrInvalidSchedule, err))
	}

	if _, err := s.store.GetWorkflow(ctx, schedule.WorkflowID); err != nil {
		return err
	}

	return nil
}

func (s *Schedule) running() bool {
	return s.scheduler != nil && s.scheduler.IsRunning()
}

func (s *Schedule) result(schedule *models.WorkflowSchedule) *ScheduleResult {
	out := &ScheduleResult{Schedule: schedule}

	if s.running() {
		if info, ok := s.scheduler.GetJobInfo(schedule.WorkflowID, schedule.ID); ok {
			out.Job = &info
		}
	}

	return out
}
