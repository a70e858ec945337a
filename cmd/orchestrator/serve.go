package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	pkgcmd "github.com/fieldflow/orchestrator/pkg/cmd"
	"github.com/fieldflow/orchestrator/pkg/eventbus"
	"github.com/fieldflow/orchestrator/pkg/events"
	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/metrics"
	"github.com/fieldflow/orchestrator/pkg/otelhelper"
	"github.com/fieldflow/orchestrator/pkg/scheduler"
	"github.com/fieldflow/orchestrator/pkg/services"
	"github.com/fieldflow/orchestrator/pkg/web"
	"github.com/fieldflow/orchestrator/pkg/workflow"
)

const shutdownTimeout = 30 * time.Second

func ServeCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Persistence URL (memory, file path, postgres:// or redis://)",
			Value:   "memory",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus provider (none, gochannel, kafka)",
			Value:   "none",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Value:   "localhost:9092",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.BoolFlag{
			Name:    "otel-enabled",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "scheduler-timezone",
			Usage:   "Time zone used to evaluate cron schedules",
			Value:   "UTC",
			Sources: cli.EnvVars("SCHEDULER_TIMEZONE"),
		},
		&cli.DurationFlag{
			Name:    "misfire-grace",
			Usage:   "How late a scheduled run may start before it is skipped",
			Value:   scheduler.DefaultMisfireGrace,
			Sources: cli.EnvVars("SCHEDULER_MISFIRE_GRACE"),
		},
	}

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the HTTP API and the scheduler",
		Flags:   append(flags, integrationFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, command)
		},
	}
}

func serve(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("orchestrator")
	ctx = log.WithLogger(ctx, logger)

	logger.InfoContext(ctx, "Initializing orchestrator")

	loc, err := time.LoadLocation(command.String("scheduler-timezone"))
	if err != nil {
		return fmt.Errorf("invalid scheduler timezone: %w", err)
	}

	store, err := pkgcmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	deps, closeDeps, err := pkgcmd.NewDependencies(ctx, logger, integrationConfig(command))
	if err != nil {
		return err
	}

	defer func() {
		if err := closeDeps(); err != nil {
			logger.ErrorContext(ctx, "Failed to close node dependencies", "error", err)
		}
	}()

	eventBus, err := pkgcmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		return err
	}

	if eventBus != nil {
		defer func() {
			if err := eventBus.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
			}
		}()

		if err := watchFailures(ctx, eventBus, logger); err != nil {
			return err
		}
	}

	tracer, shutdownTracer, err := newTracer(ctx, command.Bool("otel-enabled"))
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		}
	}()

	m := metrics.New()
	reg := pkgcmd.NewRegistry(deps)

	engineOpts := []workflow.Option{
		workflow.WithMetrics(m),
		workflow.WithTracer(tracer),
		workflow.WithMaxSteps(command.Int("max-steps")),
	}
	schedulerOpts := []scheduler.Option{
		scheduler.WithLocation(loc),
		scheduler.WithMisfireGrace(command.Duration("misfire-grace")),
		scheduler.WithMetrics(m),
	}

	if eventBus != nil {
		engineOpts = append(engineOpts, workflow.WithPublisher(eventBus))
		schedulerOpts = append(schedulerOpts, scheduler.WithPublisher(eventBus))
	}

	engine := workflow.NewEngine(store, reg, log.WithModule("engine"), engineOpts...)
	jobs := scheduler.New(store, engine, log.WithModule("scheduler"), schedulerOpts...)

	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	workflowService := services.NewWorkflow(store, reg, engine, logger)
	scheduleService := services.NewSchedule(store, jobs, logger)

	handlers := web.NewAPIHandlers(
		workflowService,
		scheduleService,
		validator.New(validator.WithRequiredStructEnabled()),
		reg,
		log.WithModule("api"),
	)
	app := web.NewApp(handlers, m.Handler())

	listenErr := make(chan error, 1)

	go func() {
		listenErr <- app.Listen(":"+strconv.Itoa(command.Int("port")), fiber.ListenConfig{
			DisableStartupMessage: true,
		})
	}()

	logger.InfoContext(ctx, "Orchestrator started", "port", command.Int("port"), "jobs", len(jobs.ListJobs()))

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		if err != nil {
			logger.ErrorContext(ctx, "API server stopped", "error", err)
		}
	}

	return shutdown(context.WithoutCancel(ctx), logger, app, jobs, workflowService)
}

func shutdown(ctx context.Context, logger *slog.Logger, app *fiber.App, jobs *scheduler.Scheduler, workflows *services.Workflow) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.InfoContext(ctx, "Shutting down orchestrator")

	var errs []error

	if err := app.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("api shutdown: %w", err))
	}

	if err := jobs.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
	}

	if err := workflows.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("waiting for executions: %w", err))
	}

	return errors.Join(errs...)
}

// nolint:ireturn
func newTracer(ctx context.Context, enabled bool) (trace.Tracer, otelhelper.Shutdown, error) {
	if !enabled {
		return otelhelper.NoopTracer(), func(context.Context) error { return nil }, nil
	}

	tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "orchestrator")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	return tracer, shutdownTracer, nil
}

// watchFailures logs failed executions seen on the bus, including those
// published by other orchestrator instances.
func watchFailures(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	err := bus.Handle(events.WorkflowExecutionFailedEvent, func(ctx context.Context, event any) error {
		failed, ok := event.(*events.WorkflowExecutionFailed)
		if !ok {
			return nil
		}

		logger.WarnContext(ctx, "Workflow execution failed",
			"workflow_id", failed.WorkflowID,
			"execution_id", failed.ExecutionID,
			"error", failed.Error,
		)

		return nil
	})
	if err != nil {
		return err
	}

	return bus.Subscribe(ctx)
}
