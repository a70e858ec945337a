package models

import (
	"errors"
	"time"
)

type ScheduleType string

const (
	ScheduleTypeCron     ScheduleType = "cron"
	ScheduleTypeInterval ScheduleType = "interval"
	ScheduleTypeOnce     ScheduleType = "once"
	ScheduleTypeDaily    ScheduleType = "daily"
	ScheduleTypeWeekly   ScheduleType = "weekly"
	ScheduleTypeMonthly  ScheduleType = "monthly"
)

func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleTypeCron, ScheduleTypeInterval, ScheduleTypeOnce,
		ScheduleTypeDaily, ScheduleTypeWeekly, ScheduleTypeMonthly:
		return true
	default:
		return false
	}
}

// WorkflowSchedule binds a workflow to a temporal trigger. Run statistics
// are only mutated by the scheduler after a firing.
type WorkflowSchedule struct {
	ID             string       `json:"id"              validate:"required"`
	WorkflowID     string       `json:"workflow_id"     validate:"required"`
	ScheduleType   ScheduleType `json:"schedule_type"   validate:"required,oneof=cron interval once daily weekly monthly"`
	ScheduleConfig Properties   `json:"schedule_config"`
	IsActive       bool         `json:"is_active"`

	RunCount     int64      `json:"run_count"`
	SuccessCount int64      `json:"success_count"`
	FailureCount int64      `json:"failure_count"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	NextRunAt    *time.Time `json:"next_run_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ErrInvalidSchedule is returned when schedule validation fails
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

func (s *WorkflowSchedule) Validate() error {
	if s == nil || s.ID == "" || s.WorkflowID == "" || !s.ScheduleType.Valid() {
		return ErrInvalidSchedule
	}

	return nil
}

// ContextInput is the execution input configured under schedule_config.context.
func (s *WorkflowSchedule) ContextInput() map[string]any {
	return s.ScheduleConfig.Map("context")
}

func (s *WorkflowSchedule) Copy() *WorkflowSchedule {
	if s == nil {
		return nil
	}

	out := *s
	if s.ScheduleConfig != nil {
		out.ScheduleConfig = Properties(cloneMap(s.ScheduleConfig))
	}

	out.LastRunAt = copyTime(s.LastRunAt)
	out.NextRunAt = copyTime(s.NextRunAt)

	return &out
}
