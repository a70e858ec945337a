package delay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// Execute sleeps for the configured duration or until ctx is done.
func (e *Executor) Execute(ctx context.Context, node *models.Node, _ models.ExecutionContext) (models.NodeExecutionResult, error) {
	unit := strings.ToLower(node.Properties.String("unit", "seconds"))

	multiplier, ok := unitMultipliers[unit]
	if !ok {
		return models.Fail(fmt.Sprintf("unsupported delay unit %q", unit)), nil
	}

	amount := node.Properties.Float("duration", 0)
	if amount < 0 {
		return models.Fail("delay duration must not be negative"), nil
	}

	wait := time.Duration(amount * float64(multiplier))
	started := time.Now()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return models.Fail("delay interrupted: " + ctx.Err().Error()), ctx.Err()
	}

	return models.Succeed(map[string]any{
		"delayed_ms": time.Since(started).Milliseconds(),
	}), nil
}
