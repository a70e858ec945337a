// Package postgresql provides PostgreSQL persistence for workflows, executions and schedules.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"

	"github.com/fieldflow/orchestrator/pkg/persistence"
	"github.com/fieldflow/orchestrator/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Store on PostgreSQL. Nested structures
// are stored as JSONB columns.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ persistence.Store = (*Persistence)(nil)

// NewPersistence creates a new PostgreSQL persistence layer and migrates the schema.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{db: database, logger: logger}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func toJSONB(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb column: %w", err)
	}

	return data, nil
}

// fromJSONB decodes a JSONB column; NULL leaves out untouched.
func fromJSONB(data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal jsonb column: %w", err)
	}

	return nil
}
