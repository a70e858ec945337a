// Package web provides HTTP handlers and REST API endpoints for workflows,
// executions and schedules.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/registry"
	"github.com/fieldflow/orchestrator/pkg/services"
)

type APIHandlers struct {
	workflowService *services.Workflow
	scheduleService *services.Schedule
	validator       *validator.Validate
	registry        *registry.Registry
	logger          *slog.Logger
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	scheduleService *services.Schedule,
	validator *validator.Validate,
	registry *registry.Registry,
	logger *slog.Logger,
) *APIHandlers {
	if logger == nil {
		logger = log.Discard()
	}

	return &APIHandlers{
		workflowService: workflowService,
		scheduleService: scheduleService,
		validator:       validator,
		registry:        registry,
		logger:          logger,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	schedulerCheck := "Scheduler is running"
	if _, err := h.scheduleService.Jobs(); err != nil {
		schedulerCheck = "Scheduler is not running"
	}

	status := "unhealthy"
	message := "Orchestrator API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Orchestrator API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"scheduler":  schedulerCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) ListNodeTypes(c fiber.Ctx) error {
	return c.JSON(h.registry.Describe())
}

func (h *APIHandlers) ListWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.ListWorkflows(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows, "total_count": len(workflows)})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.GetWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

// SaveWorkflow stores the definition in the body under the id in the path.
func (h *APIHandlers) SaveWorkflow(c fiber.Ctx) error {
	var workflow models.Workflow
	if err := c.Bind().JSON(&workflow); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	workflow.ID = c.Params("id")

	if err := h.validator.Struct(workflow); err != nil {
		return badRequest(c, err.Error())
	}

	saved, err := h.workflowService.Save(c.Context(), &workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

// ValidateWorkflow reports graph and property problems of a definition
// without storing it.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	var workflow models.Workflow
	if err := c.Bind().JSON(&workflow); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err := h.workflowService.Validate(&workflow)
	if err == nil {
		return c.JSON(ValidateWorkflowResponse{Valid: true})
	}

	var verr *registry.ValidationError
	if !errors.As(err, &verr) {
		return handleServiceError(c, err)
	}

	return c.JSON(ValidateWorkflowResponse{Valid: false, Issues: verr.Issues})
}

// ExecuteWorkflow runs a stored workflow. With ?async=true the response is
// 202 and carries only the execution id.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var req ExecuteWorkflowRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	async := false

	if raw := c.Query("async"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "Invalid query parameters: async must be a boolean")
		}

		async = parsed
	}

	execution, err := h.workflowService.Execute(c.Context(), services.ExecuteRequest{
		WorkflowID:  c.Params("id"),
		Input:       req.Input,
		TriggeredBy: req.TriggeredBy,
		Async:       async,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	if async {
		return c.Status(fiber.StatusAccepted).JSON(ExecuteWorkflowResponse{
			ExecutionID: execution.ExecutionID,
			WorkflowID:  execution.WorkflowID,
			Status:      execution.Status,
		})
	}

	return c.JSON(execution)
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	limit := 50

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		limit = parsed
	}

	executions, err := h.workflowService.ListExecutions(c.Context(), c.Params("id"), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	details, err := h.workflowService.GetExecution(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(details)
}

func (h *APIHandlers) ListJobs(c fiber.Ctx) error {
	jobs, err := h.scheduleService.Jobs()
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"jobs": jobs})
}

func (h *APIHandlers) GetJob(c fiber.Ctx) error {
	job, err := h.scheduleService.Job(c.Params("workflowId"), c.Params("scheduleId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(job)
}

func (h *APIHandlers) GetSchedule(c fiber.Ctx) error {
	result, err := h.scheduleService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) CreateSchedule(c fiber.Ctx) error {
	var req ScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.scheduleService.Create(c.Context(), req.toModel(""))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) UpdateSchedule(c fiber.Ctx) error {
	var req ScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.scheduleService.Update(c.Context(), req.toModel(c.Params("id")))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) DeleteSchedule(c fiber.Ctx) error {
	if err := h.scheduleService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
