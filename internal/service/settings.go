package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

// SettingsService owns the UI settings.
type SettingsService struct {
	mu       sync.RWMutex
	settings atlas.Settings

	storage *Storage
	bus     *EventBus
	logger  *slog.Logger
}

// NewSettingsService loads stored settings merged over the defaults.
func NewSettingsService(ctx context.Context, storage *Storage, bus *EventBus, logger *slog.Logger) *SettingsService {
	if bus == nil {
		bus = NewEventBus()
	}
	return &SettingsService{
		settings: storage.LoadSettings(ctx),
		storage:  storage,
		bus:      bus,
		logger:   logger.With(slog.String("component", "settings")),
	}
}

// Get returns the current settings.
func (s *SettingsService) Get() atlas.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Patch merges the top-level keys of a partial JSON object over the current
// settings, then persists the result.
func (s *SettingsService) Patch(ctx context.Context, partial []byte) (atlas.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := atlas.MergeSettings(s.settings, partial)
	if err != nil {
		return s.settings, &atlas.ValidationError{Field: "settings", Message: fmt.Sprintf("malformed patch: %v", err)}
	}
	if err := next.Validate(); err != nil {
		return s.settings, err
	}

	s.settings = next
	s.storage.SaveSettings(ctx, next)
	s.logger.Info("settings_updated")
	s.bus.Publish(Event{Resource: ResourceSettings, Action: "updated"})
	return next, nil
}

// Reset restores the defaults.
func (s *SettingsService) Reset(ctx context.Context) atlas.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = atlas.DefaultSettings()
	s.storage.SaveSettings(ctx, s.settings)
	s.bus.Publish(Event{Resource: ResourceSettings, Action: "cleared"})
	return s.settings
}
