package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/persistence"
)

var definitionExtensions = []string{".json", ".yaml", ".yml"}

func (p *Persistence) GetWorkflow(_ context.Context, id string) (*models.Workflow, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewWorkflowError("GetWorkflow", id, err)
	}

	workflow, err := p.loadWorkflow(id)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetWorkflow", id, err)
	}

	return workflow, nil
}

// loadWorkflow prefers the JSON document, which carries run counters, over a
// hand-written YAML definition with the same id.
func (p *Persistence) loadWorkflow(id string) (*models.Workflow, error) {
	var workflow models.Workflow

	err := readJSON(p.path(workflowsDir, id), &workflow)
	if err == nil {
		return &workflow, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(p.root, workflowsDir, id+ext)

		body, err := os.ReadFile(filepath.Clean(path))
		if os.IsNotExist(err) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		if err := yaml.Unmarshal(body, &workflow); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
		}

		if workflow.ID == "" {
			workflow.ID = id
		}

		return &workflow, nil
	}

	return nil, persistence.ErrWorkflowNotFound
}

// ListWorkflows returns every stored workflow ordered by id.
func (p *Persistence) ListWorkflows(_ context.Context) ([]*models.Workflow, error) {
	entries, err := os.ReadDir(filepath.Join(p.root, workflowsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Workflow{}, nil
		}

		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	seen := make(map[string]bool)

	var ids []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := filepath.Ext(name)

		if !isDefinition(ext) {
			continue
		}

		id := strings.TrimSuffix(name, ext)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := p.loadWorkflow(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	if err := validateID(workflow.ID); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return p.writeWorkflow(workflow)
}

func (p *Persistence) RecordWorkflowRun(_ context.Context, workflowID string, success bool, at time.Time) error {
	if err := validateID(workflowID); err != nil {
		return persistence.NewWorkflowError("RecordWorkflowRun", workflowID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	workflow, err := p.loadWorkflow(workflowID)
	if err != nil {
		return persistence.NewWorkflowError("RecordWorkflowRun", workflowID, err)
	}

	persistence.ApplyWorkflowRun(workflow, success, at)

	return p.writeWorkflow(workflow)
}

func (p *Persistence) writeWorkflow(workflow *models.Workflow) error {
	if err := writeJSON(p.path(workflowsDir, workflow.ID), workflow); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

func isDefinition(ext string) bool {
	for _, candidate := range definitionExtensions {
		if strings.EqualFold(ext, candidate) {
			return true
		}
	}

	return false
}
