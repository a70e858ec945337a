package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/persistence/persistencetest"
	"github.com/fieldflow/orchestrator/pkg/persistence/postgresql"
	"github.com/fieldflow/orchestrator/pkg/persistence/sqlbase"
)

var (
	containerOnce     sync.Once
	postgresContainer *postgres.PostgresContainer
	containerErr      error
)

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Children first, parents last.
	for _, table := range []string{"workflow_node_executions", "workflow_executions", "workflow_schedules", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func databaseURL(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL tests in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	containerOnce.Do(func() {
		postgresContainer, containerErr = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("orchestrator_test"),
			postgres.WithUsername("orchestrator"),
			postgres.WithPassword("orchestrator"),
			postgres.BasicWaitStrategies(),
		)
	})
	require.NoError(t, containerErr)

	url, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	return url
}

// setupTestDB hands out a freshly migrated store. Tests share one container
// and therefore must not run in parallel.
func setupTestDB(t *testing.T) *postgresql.Persistence {
	t.Helper()

	url := databaseURL(t)
	ctx := context.Background()

	dropDb(ctx, t, url)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := postgresql.NewPersistence(ctx, logger, url)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, store.Close(ctx))
		dropDb(ctx, t, url)
	})

	return store
}

func TestPersistence_Store(t *testing.T) {
	persistencetest.RunStoreSuite(t, func(t *testing.T) persistence.Store {
		t.Helper()

		return setupTestDB(t)
	})
}

func TestNewPersistence_Migrations(t *testing.T) {
	setupTestDB(t)

	url := databaseURL(t)
	ctx := context.Background()

	db, err := sql.Open("postgres", url)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	manager := sqlbase.NewMigrationManager(logger, db, map[int]string{1: "SELECT 1"})

	version, err := manager.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	// Re-running is a no-op once the schema is current.
	require.NoError(t, manager.RunMigrations(ctx))

	for _, table := range []string{"workflows", "workflow_executions", "workflow_node_executions", "workflow_schedules"} {
		var exists bool

		err := db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)", table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table)
	}
}

func TestPersistence_DuplicateExecution(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWorkflow(ctx, persistencetest.SampleWorkflow("wf-dup")))

	execution := persistencetest.SampleExecution("exec-dup", "wf-dup")
	require.NoError(t, store.CreateExecution(ctx, execution))

	err := store.CreateExecution(ctx, execution)
	require.ErrorIs(t, err, persistence.ErrAlreadyExists)
}
