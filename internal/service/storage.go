package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/joeblew999/plat-atlas/internal/atlas"
	"github.com/joeblew999/plat-atlas/internal/metrics"
	"github.com/joeblew999/plat-atlas/internal/store"
)

// Storage keys. They match the keys the browser build used so exported
// local-storage dumps load unchanged.
const (
	CitiesKey   = "world-visited-cities"
	SettingsKey = "world-visited-cities-settings"
)

// Storage mirrors the city collection and settings into a key-value store.
// Failures are logged and swallowed: the in-memory state stays
// authoritative for the session.
type Storage struct {
	kv     store.KV
	logger *slog.Logger
}

// NewStorage creates a storage adapter over kv.
func NewStorage(kv store.KV, logger *slog.Logger) *Storage {
	return &Storage{kv: kv, logger: logger.With(slog.String("component", "storage"))}
}

// LoadCities returns the saved collection, or an empty one when nothing is
// stored or the stored value does not parse.
func (s *Storage) LoadCities(ctx context.Context) []atlas.City {
	data, err := s.kv.Get(ctx, CitiesKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.fail("load_cities", err)
		}
		return []atlas.City{}
	}
	var cities []atlas.City
	if err := json.Unmarshal(data, &cities); err != nil {
		s.fail("load_cities", err)
		return []atlas.City{}
	}
	if cities == nil {
		cities = []atlas.City{}
	}
	return cities
}

// SaveCities overwrites the stored collection.
func (s *Storage) SaveCities(ctx context.Context, cities []atlas.City) {
	if cities == nil {
		cities = []atlas.City{}
	}
	s.save(ctx, CitiesKey, "save_cities", cities)
}

// LoadSettings returns stored settings merged over the defaults. A missing
// or corrupt value yields the defaults.
func (s *Storage) LoadSettings(ctx context.Context) atlas.Settings {
	defaults := atlas.DefaultSettings()
	data, err := s.kv.Get(ctx, SettingsKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.fail("load_settings", err)
		}
		return defaults
	}
	merged, err := atlas.MergeSettings(defaults, data)
	if err != nil {
		s.fail("load_settings", err)
		return defaults
	}
	return merged
}

// SaveSettings overwrites the stored settings.
func (s *Storage) SaveSettings(ctx context.Context, settings atlas.Settings) {
	s.save(ctx, SettingsKey, "save_settings", settings)
}

// ClearAll removes both stored values.
func (s *Storage) ClearAll(ctx context.Context) {
	for _, key := range []string{CitiesKey, SettingsKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.fail("clear", err)
		}
	}
}

func (s *Storage) save(ctx context.Context, key, op string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.fail(op, err)
		return
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		s.fail(op, err)
		return
	}
	metrics.StorageWritesTotal.WithLabelValues(key).Inc()
}

func (s *Storage) fail(op string, err error) {
	metrics.StorageErrorsTotal.WithLabelValues(op).Inc()
	s.logger.Error("storage_"+op+"_failed", slog.Any("error", err))
}
