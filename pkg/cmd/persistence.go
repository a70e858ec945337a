package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/persistence/file"
	"github.com/fieldflow/orchestrator/pkg/persistence/memory"
	"github.com/fieldflow/orchestrator/pkg/persistence/postgresql"
	"github.com/fieldflow/orchestrator/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"memory", "file", "postgres", "postgresql", "redis", "rediss"}

// NewPersistence opens the store named by the URL scheme. A URL without a
// scheme is treated as a file store root.
//
//nolint:ireturn
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Store, error) {
	provider := parsePersistenceProvider(databaseURL)
	logger.InfoContext(ctx, "Opening persistence", "provider", provider)

	switch provider {
	case "memory":
		return memory.NewPersistence(), nil
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis", "rediss":
		return redis.NewPersistence(ctx, logger, databaseURL)
	case "file":
		root := strings.TrimPrefix(databaseURL, "file://")
		if err := os.MkdirAll(root, 0750); err != nil {
			return nil, fmt.Errorf("failed to create file store root: %w", err)
		}

		store := file.NewPersistence(root)
		if err := store.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("file store %q is unusable: %w", databaseURL, err)
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unsupported persistence provider %q", provider)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	if databaseURL == "" || databaseURL == "memory" {
		return "memory"
	}

	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedPersistenceProviders {
		if scheme == supported {
			return scheme
		}
	}

	return scheme
}
