package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

const (
	fieldRunCount  = "run_count"
	fieldLastRunAt = "last_run_at"
	fieldNextRunAt = "next_run_at"
	fieldUpdatedAt = "updated_at"
)

func (p *Persistence) scheduleKey(id string) string     { return p.key("schedule", id) }
func (p *Persistence) scheduleRunsKey(id string) string { return p.key("schedule", id, "runs") }
func (p *Persistence) schedulesKey() string             { return p.key("schedules") }

func (p *Persistence) GetSchedule(ctx context.Context, id string) (*models.WorkflowSchedule, error) {
	var schedule models.WorkflowSchedule

	if err := p.getJSON(ctx, p.scheduleKey(id), &schedule); err != nil {
		if isMissing(err) {
			return nil, persistence.NewScheduleError("GetSchedule", id, persistence.ErrScheduleNotFound)
		}

		return nil, persistence.NewScheduleError("GetSchedule", id, err)
	}

	runs, err := p.client.HGetAll(ctx, p.scheduleRunsKey(id)).Result()
	if err != nil {
		return nil, persistence.NewScheduleError("GetSchedule", id, err)
	}

	applyScheduleCounters(&schedule, runs)

	return &schedule, nil
}

// SaveSchedule upserts a schedule, including its run statistics.
func (p *Persistence) SaveSchedule(ctx context.Context, schedule *models.WorkflowSchedule) error {
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}

	schedule.UpdatedAt = now

	data, err := encode(schedule)
	if err != nil {
		return persistence.NewScheduleError("SaveSchedule", schedule.ID, err)
	}

	runsKey := p.scheduleRunsKey(schedule.ID)

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.scheduleKey(schedule.ID), data, 0)
		pipe.SAdd(ctx, p.schedulesKey(), schedule.ID)
		pipe.Del(ctx, runsKey)
		pipe.HSet(ctx, runsKey,
			fieldRunCount, schedule.RunCount,
			fieldSuccessCount, schedule.SuccessCount,
			fieldFailureCount, schedule.FailureCount,
			fieldUpdatedAt, formatTime(schedule.UpdatedAt),
		)

		if schedule.LastRunAt != nil {
			pipe.HSet(ctx, runsKey, fieldLastRunAt, formatTime(*schedule.LastRunAt))
		}

		if schedule.NextRunAt != nil {
			pipe.HSet(ctx, runsKey, fieldNextRunAt, formatTime(*schedule.NextRunAt))
		}

		return nil
	})
	if err != nil {
		return persistence.NewScheduleError("SaveSchedule", schedule.ID, err)
	}

	return nil
}

// UpdateSchedule rewrites the definition; the run hash is left alone.
func (p *Persistence) UpdateSchedule(ctx context.Context, schedule *models.WorkflowSchedule) error {
	stored, err := p.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, err)
	}

	persistence.KeepScheduleRuns(schedule, stored)
	schedule.UpdatedAt = time.Now().UTC()

	data, err := encode(schedule)
	if err != nil {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, err)
	}

	updated, err := p.client.SetXX(ctx, p.scheduleKey(schedule.ID), data, 0).Result()
	if err != nil {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, err)
	}

	if !updated {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, persistence.ErrScheduleNotFound)
	}

	return p.client.HSet(ctx, p.scheduleRunsKey(schedule.ID), fieldUpdatedAt, formatTime(schedule.UpdatedAt)).Err()
}

func (p *Persistence) DeleteSchedule(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, p.scheduleKey(id))
		pipe.Del(ctx, p.scheduleRunsKey(id))
		pipe.SRem(ctx, p.schedulesKey(), id)

		return nil
	})
	if err != nil {
		return persistence.NewScheduleError("DeleteSchedule", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewScheduleError("DeleteSchedule", id, persistence.ErrScheduleNotFound)
	}

	return nil
}

// ListActiveSchedules returns active schedules ordered by id.
func (p *Persistence) ListActiveSchedules(ctx context.Context) ([]*models.WorkflowSchedule, error) {
	ids, err := p.client.SMembers(ctx, p.schedulesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	sort.Strings(ids)

	schedules := make([]*models.WorkflowSchedule, 0, len(ids))

	for _, id := range ids {
		schedule, err := p.GetSchedule(ctx, id)
		if err != nil {
			if persistence.IsNotFound(err) {
				continue
			}

			return nil, err
		}

		if schedule.IsActive {
			schedules = append(schedules, schedule)
		}
	}

	return schedules, nil
}

func (p *Persistence) RecordScheduleRun(ctx context.Context, scheduleID string, success bool, ranAt time.Time, nextRunAt *time.Time) error {
	exists, err := p.client.Exists(ctx, p.scheduleKey(scheduleID)).Result()
	if err != nil {
		return persistence.NewScheduleError("RecordScheduleRun", scheduleID, err)
	}

	if exists == 0 {
		return persistence.NewScheduleError("RecordScheduleRun", scheduleID, persistence.ErrScheduleNotFound)
	}

	outcome := fieldFailureCount
	if success {
		outcome = fieldSuccessCount
	}

	runsKey := p.scheduleRunsKey(scheduleID)

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, runsKey, fieldRunCount, 1)
		pipe.HIncrBy(ctx, runsKey, outcome, 1)
		pipe.HSet(ctx, runsKey,
			fieldLastRunAt, formatTime(ranAt),
			fieldUpdatedAt, formatTime(time.Now()),
		)

		if nextRunAt != nil {
			pipe.HSet(ctx, runsKey, fieldNextRunAt, formatTime(*nextRunAt))
		} else {
			pipe.HDel(ctx, runsKey, fieldNextRunAt)
		}

		return nil
	})
	if err != nil {
		return persistence.NewScheduleError("RecordScheduleRun", scheduleID, err)
	}

	return nil
}

func applyScheduleCounters(schedule *models.WorkflowSchedule, runs counters) {
	if len(runs) == 0 {
		return
	}

	schedule.RunCount, _ = runs.int64(fieldRunCount)
	schedule.SuccessCount, _ = runs.int64(fieldSuccessCount)
	schedule.FailureCount, _ = runs.int64(fieldFailureCount)
	schedule.LastRunAt = runs.time(fieldLastRunAt)
	schedule.NextRunAt = runs.time(fieldNextRunAt)

	if updated := runs.time(fieldUpdatedAt); updated != nil {
		schedule.UpdatedAt = *updated
	}
}
