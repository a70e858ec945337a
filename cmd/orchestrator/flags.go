package main

import (
	"time"

	cli "github.com/urfave/cli/v3"

	pkgcmd "github.com/fieldflow/orchestrator/pkg/cmd"
	"github.com/fieldflow/orchestrator/pkg/workflow"
)

const defaultPort = 9091

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

func integrationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "gateway-url",
			Usage:   "Base URL of the device gateway used by device, alarm and notification nodes",
			Sources: cli.EnvVars("GATEWAY_URL"),
		},
		&cli.StringFlag{
			Name:    "gateway-token",
			Usage:   "Bearer token sent to the device gateway",
			Sources: cli.EnvVars("GATEWAY_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "data-source",
			Usage:   "PostgreSQL connection string used by database nodes",
			Sources: cli.EnvVars("DATA_SOURCE"),
		},
		&cli.DurationFlag{
			Name:    "http-timeout",
			Usage:   "Timeout of outbound HTTP calls made by nodes",
			Value:   30 * time.Second,
			Sources: cli.EnvVars("HTTP_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:    "max-steps",
			Usage:   "Maximum node visits per execution",
			Value:   workflow.DefaultMaxSteps,
			Sources: cli.EnvVars("MAX_STEPS"),
		},
	}
}

func integrationConfig(command *cli.Command) pkgcmd.IntegrationConfig {
	return pkgcmd.IntegrationConfig{
		GatewayURL:   command.String("gateway-url"),
		GatewayToken: command.String("gateway-token"),
		DataSource:   command.String("data-source"),
		HTTPTimeout:  command.Duration("http-timeout"),
	}
}
