// Package web provides HTTP request and response types for the orchestrator API.
package web

import (
	"github.com/fieldflow/orchestrator/pkg/models"
)

// ExecuteWorkflowRequest is the optional body of POST /workflows/:id/execute.
type ExecuteWorkflowRequest struct {
	Input       map[string]any `json:"input"`
	TriggeredBy string         `json:"triggered_by" validate:"omitempty,max=128"`
}

// ExecuteWorkflowResponse is returned for asynchronous executions.
type ExecuteWorkflowResponse struct {
	ExecutionID string                 `json:"execution_id"`
	WorkflowID  string                 `json:"workflow_id"`
	Status      models.ExecutionStatus `json:"status"`
}

// ValidateWorkflowResponse lists the problems found in a definition.
type ValidateWorkflowResponse struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// ScheduleRequest is the body of schedule create and update calls.
// IsActive defaults to true when omitted.
type ScheduleRequest struct {
	ID             string         `json:"id"              validate:"omitempty,max=128"`
	WorkflowID     string         `json:"workflow_id"     validate:"required"`
	ScheduleType   string         `json:"schedule_type"   validate:"required,oneof=cron interval once daily weekly monthly"`
	ScheduleConfig map[string]any `json:"schedule_config"`
	IsActive       *bool          `json:"is_active"`
}

func (r ScheduleRequest) toModel(id string) *models.WorkflowSchedule {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	if id == "" {
		id = r.ID
	}

	return &models.WorkflowSchedule{
		ID:             id,
		WorkflowID:     r.WorkflowID,
		ScheduleType:   models.ScheduleType(r.ScheduleType),
		ScheduleConfig: models.Properties(r.ScheduleConfig),
		IsActive:       active,
	}
}
