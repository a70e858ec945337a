// Package scheduler fires workflow executions from persisted schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fieldflow/orchestrator/pkg/eventbus"
	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/metrics"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/workflow"
)

// DefaultMisfireGrace is how late a firing may start before it is dropped.
const DefaultMisfireGrace = 60 * time.Second

// Results counted by the schedule_runs_total metric.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
	ResultMisfire = "misfire"
)

// Runner executes a workflow. *workflow.Engine satisfies it.
type Runner interface {
	Execute(ctx context.Context, wf *models.Workflow, input map[string]any, trigger workflow.Trigger) (*models.WorkflowExecution, error)
}

// JobInfo describes one registered job.
type JobInfo struct {
	ID           string              `json:"id"`
	WorkflowID   string              `json:"workflow_id"`
	ScheduleID   string              `json:"schedule_id"`
	ScheduleType models.ScheduleType `json:"schedule_type"`
	Trigger      string              `json:"trigger"`
	NextRunAt    *time.Time          `json:"next_run_at,omitempty"`
	PrevRunAt    *time.Time          `json:"prev_run_at,omitempty"`
	Running      bool                `json:"running"`
}

type job struct {
	id           string
	workflowID   string
	scheduleID   string
	scheduleType models.ScheduleType
	trigger      JobTrigger
	entryID      cron.EntryID
	running      atomic.Bool
}

// JobID is the key of the job table for a workflow/schedule pair.
func JobID(workflowID, scheduleID string) string {
	return fmt.Sprintf("workflow_%s_schedule_%s", workflowID, scheduleID)
}

type Option func(*Scheduler)

func WithMisfireGrace(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.grace = d
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(s *Scheduler) { s.publisher = publisher }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// Scheduler keeps one cron entry per active schedule. The job table is the
// only state shared between callers and firing goroutines; mu guards it.
type Scheduler struct {
	store     persistence.Store
	runner    Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher eventbus.EventPublisher
	location  *time.Location
	grace     time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	cron    *cron.Cron
	jobs    map[string]*job
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(store persistence.Store, runner Runner, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = log.Discard()
	}

	s := &Scheduler{
		store:    store,
		runner:   runner,
		logger:   logger.With("module", "scheduler"),
		location: time.Local,
		grace:    DefaultMisfireGrace,
		now:      time.Now,
		jobs:     make(map[string]*job),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads every active schedule and starts the cron loop. Calling Start
// on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.running {
		s.mu.Unlock()

		return nil
	}

	schedules, err := s.store.ListActiveSchedules(ctx)
	if err != nil {
		s.mu.Unlock()

		return fmt.Errorf("failed to load active schedules: %w", err)
	}

	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithParser(parser),
		cron.WithLogger(cronLogger{logger: s.logger}),
		cron.WithChain(cron.Recover(cronLogger{logger: s.logger})),
	)
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.running = true
	s.mu.Unlock()

	added := 0

	for _, schedule := range schedules {
		if s.AddSchedule(schedule) {
			added++
		}
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "schedules", len(schedules), "jobs", added)

	return nil
}

// Stop halts the cron loop and waits for in-flight firings until ctx is
// done, then cancels them. Stop is idempotent.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()

		return nil
	}

	s.running = false
	c := s.cron
	cancel := s.cancel
	s.jobs = make(map[string]*job)
	s.mu.Unlock()

	s.metrics.SetSchedulerJobs(0)

	done := c.Stop()

	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Scheduler stop deadline reached, cancelling running jobs")
	}

	cancel()
	s.logger.InfoContext(ctx, "Scheduler stopped")

	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.running
}

// AddSchedule registers or replaces the job for schedule. It returns false
// when the scheduler is not running, the schedule is inactive or invalid, or
// a once schedule lies in the past.
func (s *Scheduler) AddSchedule(schedule *models.WorkflowSchedule) bool {
	if err := schedule.Validate(); err != nil {
		s.logger.Warn("Rejecting invalid schedule", "error", err)

		return false
	}

	logger := s.logger.With("workflow_id", schedule.WorkflowID, "schedule_id", schedule.ID)

	if !schedule.IsActive {
		logger.Debug("Schedule is inactive, not adding")

		return false
	}

	trigger, err := BuildTrigger(schedule.ScheduleType, schedule.ScheduleConfig, s.location)
	if err != nil {
		logger.Error("Failed to build trigger", "schedule_type", schedule.ScheduleType, "error", err)

		return false
	}

	if trigger.Fallback {
		logger.Warn("Invalid cron expression, falling back to daily at midnight",
			"expression", cronExpression(schedule.ScheduleConfig))
	}

	if trigger.Schedule.Next(s.now()).IsZero() {
		logger.Warn("Schedule will never fire, not adding", "trigger", trigger.Description)

		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}

	j := &job{
		id:           JobID(schedule.WorkflowID, schedule.ID),
		workflowID:   schedule.WorkflowID,
		scheduleID:   schedule.ID,
		scheduleType: schedule.ScheduleType,
		trigger:      trigger,
	}

	if existing, ok := s.jobs[j.id]; ok {
		s.cron.Remove(existing.entryID)
	}

	j.entryID = s.cron.Schedule(trigger.Schedule, cron.FuncJob(func() {
		s.fire(j, s.scheduledTime(j))
	}))
	s.jobs[j.id] = j
	s.metrics.SetSchedulerJobs(len(s.jobs))

	logger.Info("Schedule added", "job_id", j.id, "trigger", trigger.Description)

	return true
}

// RemoveSchedule drops the job for the pair. It returns false when the
// scheduler is not running or no such job exists.
func (s *Scheduler) RemoveSchedule(scheduleID, workflowID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}

	id := JobID(workflowID, scheduleID)

	j, ok := s.jobs[id]
	if !ok {
		return false
	}

	s.cron.Remove(j.entryID)
	delete(s.jobs, id)
	s.metrics.SetSchedulerJobs(len(s.jobs))

	s.logger.Info("Schedule removed", "job_id", id)

	return true
}

// UpdateSchedule removes the current job and adds it again from schedule.
// Deactivating a schedule only removes it.
func (s *Scheduler) UpdateSchedule(schedule *models.WorkflowSchedule) bool {
	if schedule == nil || !s.IsRunning() {
		return false
	}

	s.RemoveSchedule(schedule.ID, schedule.WorkflowID)

	if !schedule.IsActive {
		return true
	}

	return s.AddSchedule(schedule)
}

func (s *Scheduler) GetJobInfo(workflowID, scheduleID string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[JobID(workflowID, scheduleID)]
	if !ok {
		return JobInfo{}, false
	}

	return s.info(j), true
}

// ListJobs returns every registered job ordered by id.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		infos = append(infos, s.info(j))
	}

	sort.Slice(infos, func(i, k int) bool { return infos[i].ID < infos[k].ID })

	return infos
}

func (s *Scheduler) info(j *job) JobInfo {
	info := JobInfo{
		ID:           j.id,
		WorkflowID:   j.workflowID,
		ScheduleID:   j.scheduleID,
		ScheduleType: j.scheduleType,
		Trigger:      j.trigger.Description,
		Running:      j.running.Load(),
	}

	entry := s.cron.Entry(j.entryID)
	if !entry.Next.IsZero() {
		next := entry.Next
		info.NextRunAt = &next
	} else if next := j.trigger.Schedule.Next(s.now()); !next.IsZero() {
		info.NextRunAt = &next
	}

	if !entry.Prev.IsZero() {
		prev := entry.Prev
		info.PrevRunAt = &prev
	}

	return info
}

// scheduledTime is the instant the cron loop meant to run j.
func (s *Scheduler) scheduledTime(j *job) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cron == nil {
		return time.Time{}
	}

	return s.cron.Entry(j.entryID).Prev
}

// nextRun is the following fire time of j, nil when it will not fire again.
func (s *Scheduler) nextRun(j *job, after time.Time) *time.Time {
	next := j.trigger.Schedule.Next(after)
	if next.IsZero() {
		return nil
	}

	return &next
}
