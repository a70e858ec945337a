// Package redis provides a Redis-backed persistence implementation.
//
// Records are JSON strings. Run counters live in companion hashes so they can
// be incremented atomically with HINCRBY inside a MULTI block.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldflow/orchestrator/pkg/persistence"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "orchestrator:"

// Persistence implements persistence.Store on Redis.
type Persistence struct {
	client *redis.Client
	logger *slog.Logger
	prefix string
}

var _ persistence.Store = (*Persistence)(nil)

// NewPersistence connects to the Redis server at redisURL (redis://host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewPersistenceWithClient(client, logger, DefaultPrefix), nil
}

// NewPersistenceWithClient wraps an existing client. An empty prefix selects DefaultPrefix.
func NewPersistenceWithClient(client *redis.Client, logger *slog.Logger, prefix string) *Persistence {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Persistence{client: client, logger: logger, prefix: prefix}
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) key(parts ...string) string {
	key := p.prefix

	for i, part := range parts {
		if i > 0 {
			key += ":"
		}

		key += part
	}

	return key
}

// getJSON decodes the string at key into out. A missing key returns redis.Nil.
func (p *Persistence) getJSON(ctx context.Context, key string, out any) error {
	data, err := p.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return nil
}

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	return data, nil
}

func isMissing(err error) bool {
	return errors.Is(err, redis.Nil)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// counters reads the integer and time fields of a run hash.
type counters map[string]string

func (c counters) int64(field string) (int64, bool) {
	raw, ok := c[field]
	if !ok {
		return 0, false
	}

	value, err := strconv.ParseInt(raw, 10, 64)

	return value, err == nil
}

func (c counters) time(field string) *time.Time {
	raw, ok := c[field]
	if !ok || raw == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil
	}

	return &t
}
