package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	cli "github.com/urfave/cli/v3"

	pkgcmd "github.com/fieldflow/orchestrator/pkg/cmd"
	"github.com/fieldflow/orchestrator/pkg/config"
	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/protocol"
	"github.com/fieldflow/orchestrator/pkg/registry"
)

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check a workflow file without running it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Workflow definition (.json, .yaml)",
				Required: true,
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			if err := validateWorkflowFile(command.Root().Writer, command.String("file")); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			return nil
		},
	}
}

func validateWorkflowFile(w io.Writer, path string) error {
	wf, err := config.LoadWorkflowFile(path)
	if err != nil {
		return err
	}

	reg := pkgcmd.NewRegistry(protocol.Dependencies{Logger: log.WithModule("validate")})

	err = reg.ValidateWorkflow(wf)

	var verr *registry.ValidationError
	if errors.As(err, &verr) {
		for _, issue := range verr.Issues {
			fmt.Fprintln(w, "-", issue)
		}

		return fmt.Errorf("workflow %s has %d issue(s)", wf.ID, len(verr.Issues))
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(w, "workflow %s is valid (%d nodes, %d connections)\n", wf.ID, len(wf.Nodes), len(wf.Connections))

	return nil
}
