// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldflow/orchestrator/pkg/integrations/gateway"
	"github.com/fieldflow/orchestrator/pkg/integrations/sqldb"
	"github.com/fieldflow/orchestrator/pkg/protocol"
	"github.com/fieldflow/orchestrator/pkg/registry"
)

// IntegrationConfig names the external systems built-in nodes talk to.
// Empty values leave the corresponding nodes unconfigured.
type IntegrationConfig struct {
	GatewayURL   string
	GatewayToken string
	DataSource   string
	HTTPTimeout  time.Duration
}

// NewDependencies connects the collaborators described by cfg. The returned
// closer releases them.
func NewDependencies(ctx context.Context, logger *slog.Logger, cfg IntegrationConfig) (protocol.Dependencies, func() error, error) {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = gateway.DefaultTimeout
	}

	deps := protocol.Dependencies{
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: timeout},
	}

	closer := func() error { return nil }

	if cfg.GatewayURL != "" {
		client, err := gateway.New(cfg.GatewayURL,
			gateway.WithHTTPClient(deps.HTTPClient),
			gateway.WithToken(cfg.GatewayToken),
			gateway.WithLogger(logger),
		)
		if err != nil {
			return deps, closer, err
		}

		deps.Devices = client
		deps.Alarms = client
		deps.Notifications = client
	}

	if cfg.DataSource != "" {
		db, err := sqldb.Open(ctx, logger, "postgres", cfg.DataSource)
		if err != nil {
			return deps, closer, fmt.Errorf("failed to connect database nodes: %w", err)
		}

		deps.Database = db
		closer = db.Close
	}

	return deps, closer, nil
}

func NewRegistry(deps protocol.Dependencies) *registry.Registry {
	return registry.NewDefaultRegistry(deps)
}
