// Package file provides file-based persistence for workflows, executions and schedules.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fieldflow/orchestrator/pkg/persistence"
)

const (
	workflowsDir      = "workflows"
	executionsDir     = "executions"
	nodeExecutionsDir = "node_executions"
	schedulesDir      = "schedules"
)

var errInvalidID = errors.New("id contains invalid characters")

// Persistence stores every record as a JSON document below root:
//
//	workflows/<id>.json (definitions may also be written as <id>.yaml)
//	executions/<execution_id>.json
//	node_executions/<execution_id>/<node_execution_id>.json
//	schedules/<id>.json
//
// A single mutex serialises read-modify-write cycles within the process.
type Persistence struct {
	root string
	mu   sync.Mutex
}

var _ persistence.Store = (*Persistence)(nil)

// NewPersistence creates a file store rooted at root. A file:// prefix is accepted.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists and is a directory.
func (p *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("file store root %s: %w", p.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("file store root %s is not a directory", p.root)
	}

	return nil
}

// validateID rejects ids that would escape their directory.
func validateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", errInvalidID, id)
	}

	return nil
}

func (p *Persistence) path(dir, id string) string {
	return filepath.Join(p.root, dir, id+".json")
}

// readJSON decodes the document at path into out. A missing file returns
// os.ErrNotExist unwrapped so callers can map it to their own sentinel.
func readJSON(path string, out any) error {
	body, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}

		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return nil
}

// writeJSON writes value through a temporary file and a rename so readers
// never observe a partial document.
func writeJSON(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
