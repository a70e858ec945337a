package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, kind, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service and persistence errors onto problems.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.Is(err, services.ErrSchedulerUnavailable):
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("scheduler_unavailable").
			WithDetail(err.Error())

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow_not_found", "workflow not found")

	case errors.Is(err, persistence.ErrExecutionNotFound):
		return notFound(c, "execution_not_found", "execution not found")

	case errors.Is(err, persistence.ErrScheduleNotFound):
		return notFound(c, "schedule_not_found", "schedule not found")

	default:
		return internalError(c, err)
	}
}
