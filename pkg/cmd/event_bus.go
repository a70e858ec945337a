package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/fieldflow/orchestrator/pkg/channels/gochannel"
	"github.com/fieldflow/orchestrator/pkg/channels/kafka"
	"github.com/fieldflow/orchestrator/pkg/eventbus"
)

const serviceName = "orchestrator"

// NewEventBus returns the bus for provider: "gochannel" or "kafka". The
// "none" provider (or an empty one) returns a nil bus.
//
//nolint:ireturn
func NewEventBus(provider, kafkaBrokers string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "none":
		return nil, nil
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.ParseBrokers(kafkaBrokers), serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q", provider)
	}
}
