package bus

import (
	"fmt"

	"github.com/opensource-climate/petrel/internal/domain"
)

// New creates a new event bus based on configuration.
// The standalone profile uses an in-process channel bus; the cluster
// profile uses NATS.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
