// Package registry maps node types to their executors.
package registry

import (
	"log/slog"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

// Registry is populated at startup and read-only afterwards, so lookups
// take no lock.
type Registry struct {
	logger    *slog.Logger
	executors map[string]protocol.Executor
	schemas   map[string]*gojsonschema.Schema
	fallback  protocol.Executor
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = log.Discard()
	}

	return &Registry{
		logger:    logger.With("module", "registry"),
		executors: make(map[string]protocol.Executor),
		schemas:   make(map[string]*gojsonschema.Schema),
		fallback:  PassThrough{},
	}
}

// Register adds or replaces the executor for executor.Type(). A schema that
// does not compile is logged and skipped; the executor is still usable.
func (r *Registry) Register(executor protocol.Executor) {
	nodeType := executor.Type()

	if _, exists := r.executors[nodeType]; exists {
		r.logger.Warn("Replacing registered executor", "node_type", nodeType)
	}

	r.executors[nodeType] = executor
	delete(r.schemas, nodeType)

	describer, ok := executor.(protocol.Describer)
	if !ok || describer.Schema() == nil {
		return
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(describer.Schema()))
	if err != nil {
		r.logger.Error("Invalid executor schema", "node_type", nodeType, "error", err)

		return
	}

	r.schemas[nodeType] = schema
}

// Get returns the executor for nodeType. Unknown types resolve to the
// pass-through executor so a run never fails on dispatch.
func (r *Registry) Get(nodeType string) protocol.Executor {
	if executor, ok := r.executors[nodeType]; ok {
		return executor
	}

	r.logger.Warn("No executor registered for node type, using pass-through", "node_type", nodeType)

	return r.fallback
}

func (r *Registry) Lookup(nodeType string) (protocol.Executor, bool) {
	executor, ok := r.executors[nodeType]

	return executor, ok
}

func (r *Registry) Has(nodeType string) bool {
	_, ok := r.executors[nodeType]

	return ok
}

// IsBranching reports whether results of nodeType select connections by branch.
func (r *Registry) IsBranching(nodeType string) bool {
	executor, ok := r.executors[nodeType]
	if !ok {
		return false
	}

	brancher, ok := executor.(protocol.Brancher)

	return ok && brancher.Branching()
}

// Types returns the registered node types in lexical order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.executors))
	for nodeType := range r.executors {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// Describe lists metadata for every registered executor.
func (r *Registry) Describe() []models.ExecutorInfo {
	infos := make([]models.ExecutorInfo, 0, len(r.executors))

	for _, nodeType := range r.Types() {
		executor := r.executors[nodeType]
		info := models.ExecutorInfo{
			Type:      nodeType,
			Name:      nodeType,
			Branching: r.IsBranching(nodeType),
		}

		if describer, ok := executor.(protocol.Describer); ok {
			info.Name = describer.Name()
			info.Description = describer.Description()
			info.Schema = describer.Schema()
		}

		infos = append(infos, info)
	}

	return infos
}
