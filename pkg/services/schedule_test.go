package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/persistence/memory"
	"github.com/fieldflow/orchestrator/pkg/persistence/persistencetest"
	"github.com/fieldflow/orchestrator/pkg/scheduler"
	"github.com/fieldflow/orchestrator/pkg/services"
	"github.com/fieldflow/orchestrator/pkg/workflow"
)

func newScheduleService(t *testing.T, start bool) (*services.Schedule, *memory.Persistence, *scheduler.Scheduler) {
	t.Helper()

	store := memory.NewPersistence()
	require.NoError(t, store.SaveWorkflow(t.Context(), persistencetest.SampleWorkflow("wf-1")))

	engine := workflow.NewEngine(store, newRegistry(), log.Discard())
	s := scheduler.New(store, engine, log.Discard(), scheduler.WithLocation(time.UTC))

	if start {
		require.NoError(t, s.Start(t.Context()))
	}

	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	return services.NewSchedule(store, s, log.Discard()), store, s
}

func dailySchedule(id string) *models.WorkflowSchedule {
	return &models.WorkflowSchedule{
		ID:             id,
		WorkflowID:     "wf-1",
		ScheduleType:   models.ScheduleTypeDaily,
		ScheduleConfig: models.Properties{"hour": 6, "minute": 30},
		IsActive:       true,
	}
}

func TestSchedule_CreateRegistersJob(t *testing.T) {
	t.Parallel()

	service, store, _ := newScheduleService(t, true)
	ctx := t.Context()

	result, err := service.Create(ctx, dailySchedule("s-1"))
	require.NoError(t, err)
	require.NotNil(t, result.Job)
	assert.Equal(t, "workflow_wf-1_schedule_s-1", result.Job.ID)
	assert.Equal(t, "cron 30 6 * * *", result.Job.Trigger)

	_, err = store.GetSchedule(ctx, "s-1")
	require.NoError(t, err)

	jobs, err := service.Jobs()
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	job, err := service.Job("wf-1", "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", job.ScheduleID)

	_, err = service.Create(ctx, dailySchedule("s-1"))
	assert.True(t, services.IsConflictError(err))
}

func TestSchedule_CreateGeneratesID(t *testing.T) {
	t.Parallel()

	service, _, _ := newScheduleService(t, true)

	schedule := dailySchedule("")
	result, err := service.Create(t.Context(), schedule)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Schedule.ID)
}

func TestSchedule_CreateRejects(t *testing.T) {
	t.Parallel()

	service, store, _ := newScheduleService(t, true)
	ctx := t.Context()

	badInterval := dailySchedule("s-1")
	badInterval.ScheduleType = models.ScheduleTypeInterval
	badInterval.ScheduleConfig = models.Properties{"interval_value": 0}

	_, err := service.Create(ctx, badInterval)
	assert.True(t, services.IsValidationError(err))
	require.ErrorIs(t, err, scheduler.ErrInvalidInterval)

	unknownWorkflow := dailySchedule("s-2")
	unknownWorkflow.WorkflowID = "missing"

	_, err = service.Create(ctx, unknownWorkflow)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	past := dailySchedule("s-3")
	past.ScheduleType = models.ScheduleTypeOnce
	past.ScheduleConfig = models.Properties{"run_at": "2001-01-01 00:00:00"}

	_, err = service.Create(ctx, past)
	require.ErrorIs(t, err, services.ErrScheduleRejected)

	_, err = store.GetSchedule(ctx, "s-3")
	assert.True(t, persistence.IsNotFound(err), "rejected schedule is rolled back")

	_, err = service.Create(ctx, nil)
	assert.True(t, services.IsValidationError(err))
}

func TestSchedule_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	service, store, _ := newScheduleService(t, true)
	ctx := t.Context()

	_, err := service.Create(ctx, dailySchedule("s-1"))
	require.NoError(t, err)

	require.NoError(t, store.RecordScheduleRun(ctx, "s-1", true, time.Now(), nil))

	updated := dailySchedule("s-1")
	updated.ScheduleType = models.ScheduleTypeInterval
	updated.ScheduleConfig = models.Properties{"interval_value": 15}

	result, err := service.Update(ctx, updated)
	require.NoError(t, err)
	require.NotNil(t, result.Job)
	assert.Equal(t, "every 15m0s", result.Job.Trigger)
	assert.EqualValues(t, 1, result.Schedule.RunCount)

	updated.IsActive = false
	result, err = service.Update(ctx, updated)
	require.NoError(t, err)
	assert.Nil(t, result.Job)

	require.NoError(t, service.Delete(ctx, "s-1"))

	err = service.Delete(ctx, "s-1")
	assert.True(t, persistence.IsNotFound(err))

	_, err = service.Update(ctx, dailySchedule("missing"))
	assert.True(t, persistence.IsNotFound(err))
}

func TestSchedule_StoppedScheduler(t *testing.T) {
	t.Parallel()

	service, store, _ := newScheduleService(t, false)
	ctx := t.Context()

	result, err := service.Create(ctx, dailySchedule("s-1"))
	require.NoError(t, err)
	assert.Nil(t, result.Job)

	_, err = store.GetSchedule(ctx, "s-1")
	require.NoError(t, err)

	_, err = service.Jobs()
	require.ErrorIs(t, err, services.ErrSchedulerUnavailable)

	_, err = service.Job("wf-1", "s-1")
	require.ErrorIs(t, err, services.ErrSchedulerUnavailable)
}
