package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

func (p *Persistence) GetSchedule(_ context.Context, id string) (*models.WorkflowSchedule, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewScheduleError("GetSchedule", id, err)
	}

	schedule, err := p.loadSchedule(id)
	if err != nil {
		return nil, persistence.NewScheduleError("GetSchedule", id, err)
	}

	return schedule, nil
}

func (p *Persistence) loadSchedule(id string) (*models.WorkflowSchedule, error) {
	var schedule models.WorkflowSchedule

	if err := readJSON(p.path(schedulesDir, id), &schedule); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.ErrScheduleNotFound
		}

		return nil, err
	}

	return &schedule, nil
}

func (p *Persistence) SaveSchedule(_ context.Context, schedule *models.WorkflowSchedule) error {
	if err := validateID(schedule.ID); err != nil {
		return persistence.NewScheduleError("SaveSchedule", schedule.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}

	schedule.UpdatedAt = now

	if err := writeJSON(p.path(schedulesDir, schedule.ID), schedule); err != nil {
		return persistence.NewScheduleError("SaveSchedule", schedule.ID, err)
	}

	return nil
}

func (p *Persistence) UpdateSchedule(_ context.Context, schedule *models.WorkflowSchedule) error {
	if err := validateID(schedule.ID); err != nil {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.loadSchedule(schedule.ID)
	if err != nil {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, err)
	}

	persistence.KeepScheduleRuns(schedule, existing)
	schedule.UpdatedAt = time.Now().UTC()

	if err := writeJSON(p.path(schedulesDir, schedule.ID), schedule); err != nil {
		return persistence.NewScheduleError("UpdateSchedule", schedule.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteSchedule(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return persistence.NewScheduleError("DeleteSchedule", id, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.path(schedulesDir, id))
	if err != nil && os.IsNotExist(err) {
		return persistence.NewScheduleError("DeleteSchedule", id, persistence.ErrScheduleNotFound)
	}

	if err != nil {
		return persistence.NewScheduleError("DeleteSchedule", id, err)
	}

	return nil
}

// ListActiveSchedules returns active schedules ordered by id.
func (p *Persistence) ListActiveSchedules(_ context.Context) ([]*models.WorkflowSchedule, error) {
	dir := filepath.Join(p.root, schedulesDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.WorkflowSchedule{}, nil
		}

		return nil, fmt.Errorf("failed to list schedule files: %w", err)
	}

	schedules := make([]*models.WorkflowSchedule, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		var schedule models.WorkflowSchedule
		if err := readJSON(filepath.Join(dir, entry.Name()), &schedule); err != nil {
			return nil, err
		}

		if schedule.IsActive {
			schedules = append(schedules, &schedule)
		}
	}

	sort.Slice(schedules, func(i, j int) bool { return schedules[i].ID < schedules[j].ID })

	return schedules, nil
}

func (p *Persistence) RecordScheduleRun(_ context.Context, scheduleID string, success bool, ranAt time.Time, nextRunAt *time.Time) error {
	if err := validateID(scheduleID); err != nil {
		return persistence.NewScheduleError("RecordScheduleRun", scheduleID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	schedule, err := p.loadSchedule(scheduleID)
	if err != nil {
		return persistence.NewScheduleError("RecordScheduleRun", scheduleID, err)
	}

	persistence.ApplyScheduleRun(schedule, success, ranAt, nextRunAt)

	if err := writeJSON(p.path(schedulesDir, scheduleID), schedule); err != nil {
		return persistence.NewScheduleError("RecordScheduleRun", scheduleID, err)
	}

	return nil
}
