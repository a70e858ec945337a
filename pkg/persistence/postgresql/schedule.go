package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

const scheduleColumns = `
			id
		  , workflow_id
		  , schedule_type
		  , schedule_config
		  , is_active
		  , run_count
		  , success_count
		  , failure_count
		  , last_run_at
		  , next_run_at
		  , created_at
		  , updated_at`

func (p *Persistence) GetSchedule(ctx context.Context, id string) (*models.WorkflowSchedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM workflow_schedules
		WHERE id = $1
	`

	schedule, err := scanSchedule(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewScheduleError("GetSchedule", id, persistence.ErrScheduleNotFound)
		}

		return nil, persistence.NewScheduleError("GetSchedule", id, err)
	}

	return schedule, nil
}

// SaveSchedule upserts a schedule, including its run statistics.
func (p *Persistence) SaveSchedule(ctx context.Context, schedule *models.WorkflowSchedule) error {
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}

	schedule.UpdatedAt = now

	configJSON, err := toJSONB(schedule.ScheduleConfig)
	if err != nil {
		return persistence.NewScheduleError("SaveSchedule", schedule.ID, err)
	}

	query := `
		INSERT INTO workflow_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			workflow_id = EXCLUDED.workflow_id,
			schedule_type = EXCLUDED.schedule_type,
			schedule_config = EXCLUDED.schedule_config,
			is_active = EXCLUDED.is_active,
			run_count = EXCLUDED.run_count,
			success_count = EXCLUDED.success_count,
			failure_count = EXCLUDED.failure_count,
			last_run_at = EXCLUDED.last_run_at,
			next_run_at = EXCLUDED.next_run_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = p.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.WorkflowID,
		schedule.ScheduleType,
		configJSON,
		schedule.IsActive,
		schedule.RunCount,
		schedule.SuccessCount,
		schedule.FailureCount,
		schedule.LastRunAt,
		schedule.NextRunAt,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return persistence.NewScheduleError("SaveSchedule", schedule.ID, fmt.Errorf("failed to save schedule: %w", err))
	}

	return nil
}

// UpdateSchedule rewrites the definition of an existing schedule. Run
// statistics are owned by RecordScheduleRun and left as stored.
func (p *Persistence) UpdateSchedule(ctx context.Context, schedule *models.WorkflowSchedule) error {
	configJSON, err := toJSONB(schedule.ScheduleConfig)
	if err != nil {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, err)
	}

	schedule.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE workflow_schedules SET
			workflow_id = $2,
			schedule_type = $3,
			schedule_config = $4,
			is_active = $5,
			updated_at = $6
		WHERE id = $1
	`

	result, err := p.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.WorkflowID,
		schedule.ScheduleType,
		configJSON,
		schedule.IsActive,
		schedule.UpdatedAt,
	)
	if err != nil {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, err)
	}

	return affectedOne(result, persistence.NewScheduleError("UpdateSchedule", schedule.ID, persistence.ErrScheduleNotFound))
}

func (p *Persistence) DeleteSchedule(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, "DELETE FROM workflow_schedules WHERE id = $1", id)
	if err != nil {
		return persistence.NewScheduleError("DeleteSchedule", id, err)
	}

	return affectedOne(result, persistence.NewScheduleError("DeleteSchedule", id, persistence.ErrScheduleNotFound))
}

// ListActiveSchedules returns active schedules ordered by id.
func (p *Persistence) ListActiveSchedules(ctx context.Context) ([]*models.WorkflowSchedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM workflow_schedules
		WHERE is_active
		ORDER BY id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer p.closeRows(ctx, rows)

	schedules := make([]*models.WorkflowSchedule, 0)

	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}

		schedules = append(schedules, schedule)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}

	return schedules, nil
}

// RecordScheduleRun increments the run statistics in a single statement.
func (p *Persistence) RecordScheduleRun(ctx context.Context, scheduleID string, success bool, ranAt time.Time, nextRunAt *time.Time) error {
	query := `
		UPDATE workflow_schedules SET
			run_count = run_count + 1,
			success_count = success_count + CASE WHEN $2 THEN 1 ELSE 0 END,
			failure_count = failure_count + CASE WHEN $2 THEN 0 ELSE 1 END,
			last_run_at = $3,
			next_run_at = $4,
			updated_at = $5
		WHERE id = $1
	`

	result, err := p.db.ExecContext(ctx, query, scheduleID, success, ranAt, nextRunAt, time.Now().UTC())
	if err != nil {
		return persistence.NewScheduleError("RecordScheduleRun", scheduleID, err)
	}

	return affectedOne(result, persistence.NewScheduleError("RecordScheduleRun", scheduleID, persistence.ErrScheduleNotFound))
}

func scanSchedule(row rowScanner) (*models.WorkflowSchedule, error) {
	var (
		schedule   models.WorkflowSchedule
		configJSON []byte
		lastRunAt  sql.NullTime
		nextRunAt  sql.NullTime
	)

	err := row.Scan(
		&schedule.ID,
		&schedule.WorkflowID,
		&schedule.ScheduleType,
		&configJSON,
		&schedule.IsActive,
		&schedule.RunCount,
		&schedule.SuccessCount,
		&schedule.FailureCount,
		&lastRunAt,
		&nextRunAt,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := fromJSONB(configJSON, &schedule.ScheduleConfig); err != nil {
		return nil, err
	}

	schedule.LastRunAt = nullTime(lastRunAt)
	schedule.NextRunAt = nullTime(nextRunAt)

	return &schedule, nil
}
