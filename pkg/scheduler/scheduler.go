// Package scheduler drives the periodic recomputation of announcement
// state values. Each tick walks every device group, recomputes the
// records that are due, and persists the advanced refresh timestamps in
// a single store save.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/publish"
	"github.com/urmzd/announce/pkg/template"
)

// Resolver replaces host substitution markers in announcement text
// before the template engine runs.
type Resolver interface {
	Resolve(ctx context.Context, text string) string
}

// DeviceSource lists the plugin devices whose announcements are
// refreshed.
type DeviceSource interface {
	List(ctx context.Context, profileID int64) ([]*db.Device, error)
}

// StateReader reads back previously published values, used to publish
// salutations only when they change.
type StateReader interface {
	Get(ctx context.Context, deviceID int64, key string) (string, error)
}

// Scheduler owns the refresh loop.
type Scheduler struct {
	store     *announce.Store
	devices   DeviceSource
	states    StateReader
	resolver  Resolver
	engine    *template.Engine
	publisher publish.Publisher
	profileID int64
	interval  time.Duration
	now       func() time.Time
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithInterval sets the poll interval for Run. Defaults to 15 seconds.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithClock overrides the wall-clock source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a scheduler over the given collaborators.
func New(store *announce.Store, devices DeviceSource, states StateReader, resolver Resolver,
	engine *template.Engine, publisher publish.Publisher, profileID int64, opts ...Option) *Scheduler {

	s := &Scheduler{
		store:     store,
		devices:   devices,
		states:    states,
		resolver:  resolver,
		engine:    engine,
		publisher: publisher,
		profileID: profileID,
		interval:  15 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks the scheduler at its poll interval until ctx is cancelled.
// Intended to be called as a goroutine. Ticks never overlap.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("Refresh scheduler started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Refresh scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Tick(ctx, false); err != nil {
				log.Error().Err(err).Msg("Scheduler tick failed")
			}
		}
	}
}

// Tick recomputes every due announcement and updates every enabled
// salutation device. With force set, not-yet-due announcements are also
// recomputed, without touching their refresh schedule. The store is
// saved once, after all groups are processed.
func (s *Scheduler) Tick(ctx context.Context, force bool) error {
	log.Debug().Bool("force", force).Msg("Updating announcement states")

	devices, err := s.devices.List(ctx, s.profileID)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	return s.store.Mutate(ctx, func(col announce.Collection) error {
		for _, dev := range devices {
			if !dev.Enabled {
				continue
			}

			switch dev.Type {
			case db.DeviceTypeSalutations:
				s.updateSalutations(ctx, dev)
			case db.DeviceTypeAnnouncements:
				s.updateAnnouncements(ctx, dev.ID, col[dev.ID], force)
			}
		}
		return nil
	})
}

// updateAnnouncements walks one device group. A record that fails is
// logged and skipped so it cannot block the refresh of the others.
func (s *Scheduler) updateAnnouncements(ctx context.Context, deviceID int64, group map[int64]*announce.Record, force bool) {
	now := s.now()

	for _, rec := range group {
		due, ok := rec.DueAt()
		if !ok {
			log.Warn().Int64("device", deviceID).Str("name", rec.Name).
				Msg("Error coercing announcement update time")
			due = now.Add(-time.Minute)
		}

		switch {
		case !now.Before(due):
			s.render(ctx, deviceID, rec)
			next := now.Add(time.Duration(rec.RefreshMinutes * float64(time.Minute)))
			rec.NextRefresh = next.Format(announce.NextRefreshLayout)
			log.Debug().Str("name", rec.Name).Str("next", rec.NextRefresh).Msg("Announcement updated")

		case force:
			// Forced while not due: fresh value, untouched schedule.
			s.render(ctx, deviceID, rec)
		}
	}
}

func (s *Scheduler) render(ctx context.Context, deviceID int64, rec *announce.Record) {
	text := s.resolver.Resolve(ctx, rec.Text)
	result := s.engine.Render(text)
	if err := s.publisher.Publish(ctx, deviceID, rec.StateKey(), result); err != nil {
		log.Warn().Err(err).Int64("device", deviceID).Str("state", rec.StateKey()).Msg("Publish failed")
	}
}

// updateSalutations publishes the intro/outro pair for the bucket
// containing now, skipping values that have not changed.
func (s *Scheduler) updateSalutations(ctx context.Context, dev *db.Device) {
	cfg := SalutationConfigFor(dev)
	intro, outro := cfg.Select(s.now())

	for key, value := range map[string]string{"intro": intro, "outro": outro} {
		current, err := s.states.Get(ctx, dev.ID, key)
		if err == nil && current == value {
			continue
		}
		if err != nil && !errors.Is(err, db.ErrStateNotFound) {
			log.Warn().Err(err).Int64("device", dev.ID).Str("state", key).Msg("Failed to read salutation state")
		}

		log.Debug().Int64("device", dev.ID).Str("state", key).Str("value", value).Msg("Updating salutation")
		if err := s.publisher.Publish(ctx, dev.ID, key, value); err != nil {
			log.Warn().Err(err).Int64("device", dev.ID).Str("state", key).Msg("Publish failed")
		}
	}
}

// RefreshOne forces a recomputation of a single announcement identified
// by its state name, returning the rendered value. The refresh schedule
// is not touched.
func (s *Scheduler) RefreshOne(ctx context.Context, deviceID int64, stateName string) (string, error) {
	col, err := s.store.All(ctx)
	if err != nil {
		return "", err
	}

	wanted := strings.ReplaceAll(stateName, "_", " ")
	for _, rec := range col[deviceID] {
		if rec.Name != wanted && rec.StateKey() != stateName {
			continue
		}

		text := s.resolver.Resolve(ctx, rec.Text)
		result := s.engine.Render(text)
		if err := s.publisher.Publish(ctx, deviceID, rec.StateKey(), result); err != nil {
			return "", err
		}
		log.Info().Str("name", rec.Name).Msg("Refreshed announcement")
		return result, nil
	}

	return "", fmt.Errorf("announcement %q on device %d: %w", stateName, deviceID, announce.ErrNotFound)
}

// Render resolves and renders free-form announcement text without
// touching the store, for previews and ad-hoc speech.
func (s *Scheduler) Render(ctx context.Context, text string) string {
	return s.engine.Render(s.resolver.Resolve(ctx, text))
}

// SalutationConfigFor decodes a salutation device's config, falling
// back to defaults for missing fields or an unset config.
func SalutationConfigFor(dev *db.Device) announce.SalutationConfig {
	cfg := announce.DefaultSalutationConfig()
	if len(dev.Config) == 0 || string(dev.Config) == "{}" || string(dev.Config) == "null" {
		return cfg
	}
	if err := json.Unmarshal(dev.Config, &cfg); err != nil {
		log.Warn().Err(err).Int64("device", dev.ID).Msg("Bad salutation config, using defaults")
		return announce.DefaultSalutationConfig()
	}
	return cfg
}
