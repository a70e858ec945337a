package web

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// NewApp wires the routes. metricsHandler may be nil, in which case
// /metrics is not served.
func NewApp(handlers *APIHandlers, metricsHandler http.Handler) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())
	app.Get("/health", handlers.HealthCheck)

	if metricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metricsHandler))
	}

	app.Get("/node-types", handlers.ListNodeTypes)

	w := app.Group("/workflows")
	w.Get("/", handlers.ListWorkflows)
	w.Post("/validate", handlers.ValidateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.SaveWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Get("/:id/executions", handlers.ListExecutions)

	app.Get("/executions/:id", handlers.GetExecution)

	s := app.Group("/scheduler")
	s.Get("/jobs", handlers.ListJobs)
	s.Get("/jobs/:workflowId/:scheduleId", handlers.GetJob)
	s.Post("/schedules", handlers.CreateSchedule)
	s.Get("/schedules/:id", handlers.GetSchedule)
	s.Put("/schedules/:id", handlers.UpdateSchedule)
	s.Delete("/schedules/:id", handlers.DeleteSchedule)

	return app
}
