// Package service contains the stateful core of the atlas: the owner of
// the city collection and settings, and the adapter that persists them.
package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/joeblew999/plat-atlas/internal/atlas"
	"github.com/joeblew999/plat-atlas/internal/filter"
	"github.com/joeblew999/plat-atlas/internal/metrics"
	"github.com/joeblew999/plat-atlas/internal/stats"
)

// ErrCityNotFound is returned for unknown city IDs.
var ErrCityNotFound = errors.New("city not found")

//go:embed seed.json
var seedCities []byte

// SeedCities returns the sample collection used on first start.
func SeedCities() []atlas.City {
	var cities []atlas.City
	if err := json.Unmarshal(seedCities, &cities); err != nil {
		panic(fmt.Sprintf("embedded seed cities: %v", err))
	}
	return cities
}

// CityService owns the city collection for the life of the process. Every
// mutation replaces the whole slice, is written through to storage and is
// announced on the bus, so readers never observe a partial edit.
type CityService struct {
	mu       sync.RWMutex
	cities   []atlas.City
	revision uint64

	storage  *Storage
	bus      *EventBus
	resolver *atlas.Resolver
	logger   *slog.Logger
	stats    *cache.Cache
}

// CityServiceConfig wires a CityService.
type CityServiceConfig struct {
	Storage  *Storage
	Bus      *EventBus
	Resolver *atlas.Resolver
	Logger   *slog.Logger
	// Seed is stored when the loaded collection is empty.
	Seed []atlas.City
}

// NewCityService loads the stored collection, seeding it when empty.
func NewCityService(ctx context.Context, cfg CityServiceConfig) *CityService {
	if cfg.Bus == nil {
		cfg.Bus = NewEventBus()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = atlas.DefaultResolver()
	}
	s := &CityService{
		storage:  cfg.Storage,
		bus:      cfg.Bus,
		resolver: cfg.Resolver,
		logger:   cfg.Logger.With(slog.String("component", "cities")),
		stats:    cache.New(10*time.Minute, 20*time.Minute),
	}

	s.cities = s.storage.LoadCities(ctx)
	if len(s.cities) == 0 && len(cfg.Seed) > 0 {
		s.cities = append([]atlas.City(nil), cfg.Seed...)
		s.storage.SaveCities(ctx, s.cities)
		s.logger.Info("cities_seeded", slog.Int("count", len(s.cities)))
	}
	metrics.CitiesGauge.Set(float64(len(s.cities)))
	s.logger.Info("cities_loaded", slog.Int("count", len(s.cities)))
	return s
}

// Resolver returns the continent resolver shared with filters and stats.
func (s *CityService) Resolver() *atlas.Resolver {
	return s.resolver
}

// Bus returns the event bus mutations are published on.
func (s *CityService) Bus() *EventBus {
	return s.bus
}

// List returns a copy of the collection.
func (s *CityService) List() []atlas.City {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]atlas.City(nil), s.cities...)
}

// Revision increases with every mutation.
func (s *CityService) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Get returns a city by ID.
func (s *CityService) Get(id string) (atlas.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.cities[i], nil
	}
	return atlas.City{}, fmt.Errorf("%w: %s", ErrCityNotFound, id)
}

// Filter returns the cities passing opts.
func (s *CityService) Filter(opts atlas.FilterOptions) []atlas.City {
	return filter.Cities(s.List(), opts, s.resolver)
}

// Create validates and appends a city under a fresh ID.
func (s *CityService) Create(ctx context.Context, c atlas.City) (atlas.City, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return atlas.City{}, err
	}
	c.ID = atlas.NewID()

	s.mu.Lock()
	next := make([]atlas.City, len(s.cities), len(s.cities)+1)
	copy(next, s.cities)
	next = append(next, c)
	s.commit(ctx, next, "created", c.ID)
	s.mu.Unlock()

	return c, nil
}

// Update replaces a city's fields. The ID never changes.
func (s *CityService) Update(ctx context.Context, id string, c atlas.City) (atlas.City, error) {
	c = c.Normalize()
	c.ID = id
	if err := c.Validate(); err != nil {
		return atlas.City{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return atlas.City{}, fmt.Errorf("%w: %s", ErrCityNotFound, id)
	}
	next := append([]atlas.City(nil), s.cities...)
	next[i] = c
	s.commit(ctx, next, "updated", id)
	return c, nil
}

// Delete removes a city by ID.
func (s *CityService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCityNotFound, id)
	}
	next := make([]atlas.City, 0, len(s.cities)-1)
	next = append(next, s.cities[:i]...)
	next = append(next, s.cities[i+1:]...)
	s.commit(ctx, next, "deleted", id)
	return nil
}

// Replace swaps in an imported collection.
func (s *CityService) Replace(ctx context.Context, cities []atlas.City) {
	next := append([]atlas.City{}, cities...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, next, "imported", "")
}

// Import parses an exported collection and, when every record is valid,
// replaces the current one with it.
func (s *CityService) Import(ctx context.Context, r io.Reader) ([]atlas.City, error) {
	cities, err := ImportCitiesJSON(ctx, r)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("rejected").Inc()
		s.logger.Warn("cities_import_rejected", slog.Any("error", err))
		return nil, err
	}
	s.Replace(ctx, cities)
	metrics.ImportsTotal.WithLabelValues("accepted").Inc()
	return cities, nil
}

// Clear empties the collection.
func (s *CityService) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, []atlas.City{}, "cleared", "")
}

// Stats returns statistics for the full collection, memoized per revision.
func (s *CityService) Stats() stats.Stats {
	s.mu.RLock()
	key := strconv.FormatUint(s.revision, 10)
	cities := s.cities
	s.mu.RUnlock()

	if v, ok := s.stats.Get(key); ok {
		metrics.StatsCacheTotal.WithLabelValues("hit").Inc()
		return v.(stats.Stats)
	}
	metrics.StatsCacheTotal.WithLabelValues("miss").Inc()
	st := stats.Calculate(cities, s.resolver, s.logger)
	s.stats.SetDefault(key, st)
	return st
}

// commit must be called with mu held.
func (s *CityService) commit(ctx context.Context, next []atlas.City, action, id string) {
	s.cities = next
	s.revision++
	s.stats.Flush()
	s.storage.SaveCities(ctx, next)

	metrics.CityMutationsTotal.WithLabelValues(action).Inc()
	metrics.CitiesGauge.Set(float64(len(next)))
	s.logger.Info("city_"+action, slog.String("id", id), slog.Int("count", len(next)))
	s.bus.Publish(Event{Resource: ResourceCities, Action: action, ID: id, Revision: s.revision})
}

func (s *CityService) index(id string) int {
	for i, c := range s.cities {
		if c.ID == id {
			return i
		}
	}
	return -1
}
