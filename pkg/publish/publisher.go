// Package publish delivers rendered announcement values to their
// consumers. Publishing is one-way: failures are logged, never fed back
// to the refresh scheduler.
package publish

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/announce/pkg/db"
)

// Publisher exposes a rendered value under a device state key.
type Publisher interface {
	Publish(ctx context.Context, deviceID int64, stateKey, value string) error
}

// Registry writes published values into the plugin registry, where the
// REST API and the substitution resolver read them back.
type Registry struct {
	states db.StateStore
}

// NewRegistry creates a registry-backed publisher.
func NewRegistry(states db.StateStore) *Registry {
	return &Registry{states: states}
}

func (p *Registry) Publish(ctx context.Context, deviceID int64, stateKey, value string) error {
	return p.states.Set(ctx, deviceID, stateKey, value)
}

// Multi fans out to several publishers. Individual failures are logged
// and do not stop the remaining sinks.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, deviceID int64, stateKey, value string) error {
	for _, p := range m {
		if err := p.Publish(ctx, deviceID, stateKey, value); err != nil {
			log.Warn().Err(err).Int64("device", deviceID).Str("state", stateKey).Msg("Publish failed")
		}
	}
	return nil
}
