package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	cli "github.com/urfave/cli/v3"

	pkgcmd "github.com/fieldflow/orchestrator/pkg/cmd"
	"github.com/fieldflow/orchestrator/pkg/config"
	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence/memory"
	"github.com/fieldflow/orchestrator/pkg/workflow"
)

type runOptions struct {
	WorkflowFile string
	InputFile    string
	Integrations pkgcmd.IntegrationConfig
	MaxSteps     int
}

type runReport struct {
	Execution *models.WorkflowExecution       `json:"execution"`
	Nodes     []*models.WorkflowNodeExecution `json:"nodes"`
}

func RunCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Workflow definition (.json, .yaml)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Execution input document (.json, .yaml)",
		},
	}

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Execute a workflow file once and print the result",
		Flags:   append(flags, integrationFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			report, err := runWorkflowFile(ctx, log.WithModule("run"), runOptions{
				WorkflowFile: command.String("file"),
				InputFile:    command.String("input"),
				Integrations: integrationConfig(command),
				MaxSteps:     command.Int("max-steps"),
			})
			if err != nil {
				return err
			}

			if err := writeJSON(command.Root().Writer, report); err != nil {
				return err
			}

			if report.Execution.Status != models.ExecutionStatusSuccess {
				return cli.Exit("execution "+string(report.Execution.Status), 2)
			}

			return nil
		},
	}
}

func runWorkflowFile(ctx context.Context, logger *slog.Logger, opts runOptions) (*runReport, error) {
	wf, err := config.LoadWorkflowFile(opts.WorkflowFile)
	if err != nil {
		return nil, err
	}

	input, err := config.LoadInput(opts.InputFile)
	if err != nil {
		return nil, err
	}

	deps, closeDeps, err := pkgcmd.NewDependencies(ctx, logger, opts.Integrations)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := closeDeps(); err != nil {
			logger.ErrorContext(ctx, "Failed to close node dependencies", "error", err)
		}
	}()

	reg := pkgcmd.NewRegistry(deps)
	if err := reg.ValidateWorkflow(wf); err != nil {
		return nil, err
	}

	store := memory.NewPersistence()
	if err := store.SaveWorkflow(ctx, wf); err != nil {
		return nil, err
	}

	engine := workflow.NewEngine(store, reg, logger, workflow.WithMaxSteps(opts.MaxSteps))

	execution, err := engine.Execute(ctx, wf, input, workflow.Trigger{
		Type:        models.TriggerTypeManual,
		TriggeredBy: "cli",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute workflow %s: %w", wf.ID, err)
	}

	nodes, err := store.ListNodeExecutions(ctx, execution.ExecutionID)
	if err != nil {
		return nil, err
	}

	return &runReport{Execution: execution, Nodes: nodes}, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
