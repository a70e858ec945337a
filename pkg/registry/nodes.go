package registry

import (
	"github.com/fieldflow/orchestrator/pkg/expression"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/nodes/alarm"
	"github.com/fieldflow/orchestrator/pkg/nodes/conditional"
	"github.com/fieldflow/orchestrator/pkg/nodes/database"
	"github.com/fieldflow/orchestrator/pkg/nodes/delay"
	"github.com/fieldflow/orchestrator/pkg/nodes/device"
	"github.com/fieldflow/orchestrator/pkg/nodes/end"
	"github.com/fieldflow/orchestrator/pkg/nodes/httprequest"
	lognode "github.com/fieldflow/orchestrator/pkg/nodes/log"
	"github.com/fieldflow/orchestrator/pkg/nodes/notification"
	"github.com/fieldflow/orchestrator/pkg/nodes/script"
	"github.com/fieldflow/orchestrator/pkg/nodes/start"
	switchnode "github.com/fieldflow/orchestrator/pkg/nodes/switch"
	"github.com/fieldflow/orchestrator/pkg/nodes/transform"
	"github.com/fieldflow/orchestrator/pkg/nodes/unsupported"
	"github.com/fieldflow/orchestrator/pkg/nodes/webhook"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

// RegisterDefaultNodes registers every built-in executor.
func (r *Registry) RegisterDefaultNodes(deps protocol.Dependencies) {
	evaluator := expression.NewEvaluator()

	r.Register(start.NewExecutor())
	r.Register(end.NewExecutor())
	r.Register(conditional.NewExecutor(evaluator))
	r.Register(switchnode.NewExecutor())
	r.Register(httprequest.NewExecutor(models.NodeTypeAPI, deps.HTTPClient))
	r.Register(httprequest.NewExecutor(models.NodeTypeHTTP, deps.HTTPClient))
	r.Register(webhook.NewExecutor(deps.HTTPClient))
	r.Register(delay.NewExecutor())
	r.Register(script.NewExecutor(evaluator))
	r.Register(transform.NewExecutor())
	r.Register(lognode.NewExecutor(nil))
	r.Register(database.NewExecutor(deps.Database))

	for _, nodeType := range device.Types {
		r.Register(device.NewExecutor(nodeType, deps.Devices))
	}

	for _, nodeType := range alarm.Types {
		r.Register(alarm.NewExecutor(nodeType, deps.Alarms))
	}

	for _, nodeType := range notification.Types {
		r.Register(notification.NewExecutor(nodeType, deps.Notifications))
	}

	r.Register(unsupported.NewExecutor(models.NodeTypeParallel))
	r.Register(unsupported.NewExecutor(models.NodeTypeLoop))
}

// NewDefaultRegistry returns a registry with every built-in executor.
func NewDefaultRegistry(deps protocol.Dependencies) *Registry {
	r := NewRegistry(deps.Logger)
	r.RegisterDefaultNodes(deps)

	return r
}
