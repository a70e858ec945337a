// Command orchestrator serves, runs and validates workflows.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/fieldflow/orchestrator/pkg/config"
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd := &cli.Command{
		Name:                  "orchestrator",
		Usage:                 "Run graph-based automation workflows",
		EnableShellCompletion: true,
		Flags:                 loggingFlags(),
		Commands: []*cli.Command{
			ServeCommand(),
			RunCommand(),
			ValidateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
