package persistence

import (
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// ApplyWorkflowRun updates the execution counters of a workflow in place.
func ApplyWorkflowRun(workflow *models.Workflow, success bool, at time.Time) {
	workflow.ExecutionCount++
	if success {
		workflow.SuccessCount++
	} else {
		workflow.FailureCount++
	}

	ranAt := at
	workflow.LastExecutedAt = &ranAt
}

// ApplyScheduleRun updates the run statistics of a schedule in place.
func ApplyScheduleRun(schedule *models.WorkflowSchedule, success bool, ranAt time.Time, nextRunAt *time.Time) {
	schedule.RunCount++
	if success {
		schedule.SuccessCount++
	} else {
		schedule.FailureCount++
	}

	last := ranAt
	schedule.LastRunAt = &last

	if nextRunAt != nil {
		next := *nextRunAt
		schedule.NextRunAt = &next
	} else {
		schedule.NextRunAt = nil
	}

	schedule.UpdatedAt = time.Now().UTC()
}

// KeepScheduleRuns copies the run statistics and creation time of stored onto
// schedule, so a definition update cannot reset them.
func KeepScheduleRuns(schedule, stored *models.WorkflowSchedule) {
	schedule.RunCount = stored.RunCount
	schedule.SuccessCount = stored.SuccessCount
	schedule.FailureCount = stored.FailureCount
	schedule.LastRunAt = stored.LastRunAt
	schedule.NextRunAt = stored.NextRunAt
	schedule.CreatedAt = stored.CreatedAt
}
