// Package sqldb implements protocol.DatabaseService on database/sql.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"

	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

// DefaultMaxRows caps the rows a single query returns to a workflow.
const DefaultMaxRows = 1000

type Service struct {
	db      *sql.DB
	logger  *slog.Logger
	maxRows int
}

var _ protocol.DatabaseService = (*Service)(nil)

// Open connects with the given driver ("postgres" unless overridden) and
// verifies the connection.
func Open(ctx context.Context, logger *slog.Logger, driver, dsn string) (*Service, error) {
	if driver == "" {
		driver = "postgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db, logger), nil
}

func New(db *sql.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}

	return &Service{db: db, logger: logger.With("module", "sqldb"), maxRows: DefaultMaxRows}
}

// WithMaxRows returns s with a different row cap. n <= 0 removes the cap.
func (s *Service) WithMaxRows(n int) *Service {
	s.maxRows = n

	return s
}

func (s *Service) Query(ctx context.Context, query string, params []any) (protocol.QueryResult, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return protocol.QueryResult{}, fmt.Errorf("query failed: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	columns, err := rows.Columns()
	if err != nil {
		return protocol.QueryResult{}, fmt.Errorf("failed to read columns: %w", err)
	}

	result := protocol.QueryResult{Rows: []map[string]any{}}

	for rows.Next() {
		if s.maxRows > 0 && len(result.Rows) >= s.maxRows {
			s.logger.WarnContext(ctx, "Query result truncated", "max_rows", s.maxRows)

			break
		}

		values := make([]any, len(columns))
		pointers := make([]any, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return protocol.QueryResult{}, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalize(values[i])
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return protocol.QueryResult{}, fmt.Errorf("failed to iterate rows: %w", err)
	}

	result.RowCount = len(result.Rows)

	return result, nil
}

func (s *Service) Exec(ctx context.Context, query string, params []any) (protocol.QueryResult, error) {
	res, err := s.db.ExecContext(ctx, query, params...)
	if err != nil {
		return protocol.QueryResult{}, fmt.Errorf("exec failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return protocol.QueryResult{}, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return protocol.QueryResult{AffectedRows: affected}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// normalize turns driver values into template-friendly ones.
func normalize(v any) any {
	switch value := v.(type) {
	case []byte:
		return string(value)
	case time.Time:
		return value.UTC().Format(time.RFC3339Nano)
	default:
		return value
	}
}
