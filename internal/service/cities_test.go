package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-atlas/internal/atlas"
	"github.com/joeblew999/plat-atlas/internal/logging"
	"github.com/joeblew999/plat-atlas/internal/store"
)

func newTestCityService(t *testing.T, seed []atlas.City) (*CityService, *Storage) {
	t.Helper()
	storage := NewStorage(store.NewMemoryStore(), logging.Discard())
	svc := NewCityService(context.Background(), CityServiceConfig{
		Storage: storage,
		Logger:  logging.Discard(),
		Seed:    seed,
	})
	return svc, storage
}

func TestSeedCities(t *testing.T) {
	seed := SeedCities()
	require.NotEmpty(t, seed)
	for _, c := range seed {
		assert.NoError(t, c.Validate(), c.Name)
	}
}

func TestCityServiceSeedsEmptyStore(t *testing.T) {
	svc, storage := newTestCityService(t, SeedCities())
	assert.Len(t, svc.List(), len(SeedCities()))
	assert.Len(t, storage.LoadCities(context.Background()), len(SeedCities()))
}

func TestCityServiceDoesNotSeedOverData(t *testing.T) {
	ctx := context.Background()
	storage := NewStorage(store.NewMemoryStore(), logging.Discard())
	storage.SaveCities(ctx, testCities())

	svc := NewCityService(ctx, CityServiceConfig{Storage: storage, Logger: logging.Discard(), Seed: SeedCities()})
	assert.Equal(t, testCities(), svc.List())
}

func TestCityServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestCityService(t, nil)
	events := svc.Bus().Subscribe()
	defer svc.Bus().Unsubscribe(events)

	c, err := svc.Create(ctx, atlas.City{
		ID:          "ignored",
		Name:        " Lisbon ",
		Country:     "Portugal",
		Coordinates: atlas.Coordinates{-9.14, 38.72},
		Category:    atlas.Planned,
		VisitDate:   "2020-01-01",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", c.ID)
	assert.Equal(t, "Lisbon", c.Name)
	assert.Empty(t, c.VisitDate)

	assert.Equal(t, []atlas.City{c}, storage.LoadCities(ctx))
	assert.Equal(t, uint64(1), svc.Revision())

	ev := <-events
	assert.Equal(t, Event{Resource: ResourceCities, Action: "created", ID: c.ID, Revision: 1}, ev)
}

func TestCityServiceCreateRejectsInvalid(t *testing.T) {
	svc, _ := newTestCityService(t, nil)
	_, err := svc.Create(context.Background(), atlas.City{
		Name: "Monaco", Country: "Monaco", Coordinates: atlas.Coordinates{7.42, 43.73}, Category: atlas.Visited,
	})
	assert.ErrorIs(t, err, atlas.ErrInvalidCity)
	assert.Empty(t, svc.List())
	assert.Zero(t, svc.Revision())
}

func TestCityServiceUpdateKeepsID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCityService(t, testCities())

	edited := testCities()[1]
	edited.ID = "other"
	edited.Notes = "museums"
	got, err := svc.Update(ctx, "b", edited)
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	stored, err := svc.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "museums", stored.Notes)
	assert.Len(t, svc.List(), 2)

	_, err = svc.Update(ctx, "nope", edited)
	assert.ErrorIs(t, err, ErrCityNotFound)
}

func TestCityServiceDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestCityService(t, testCities())

	require.NoError(t, svc.Delete(ctx, "a"))
	assert.Len(t, svc.List(), 1)
	_, err := svc.Get("a")
	assert.ErrorIs(t, err, ErrCityNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "a"), ErrCityNotFound)

	svc.Clear(ctx)
	assert.Empty(t, svc.List())
	assert.Empty(t, storage.LoadCities(ctx))
}

func TestCityServiceReplace(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestCityService(t, testCities())
	imported := []atlas.City{{ID: "rome-italy", Name: "Rome", Country: "Italy", Coordinates: atlas.Coordinates{12.5, 41.9}, Category: atlas.Wishlist}}

	svc.Replace(ctx, imported)
	assert.Equal(t, imported, svc.List())
	assert.Equal(t, imported, storage.LoadCities(ctx))
}

func TestCityServiceListIsCopy(t *testing.T) {
	svc, _ := newTestCityService(t, testCities())
	list := svc.List()
	list[0].Name = "changed"
	got, err := svc.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Beijing", got.Name)
}

func TestCityServiceStatsFollowRevision(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCityService(t, testCities())

	st := svc.Stats()
	assert.Equal(t, 2, st.TotalCities)
	assert.Equal(t, st, svc.Stats())

	require.NoError(t, svc.Delete(ctx, "b"))
	assert.Equal(t, 1, svc.Stats().TotalCities)
}

func TestSettingsServicePatch(t *testing.T) {
	ctx := context.Background()
	storage := NewStorage(store.NewMemoryStore(), logging.Discard())
	svc := NewSettingsService(ctx, storage, nil, logging.Discard())
	assert.Equal(t, atlas.DefaultSettings(), svc.Get())

	got, err := svc.Patch(ctx, []byte(`{"theme":{"darkMode":true},"defaultZoom":3}`))
	require.NoError(t, err)
	assert.True(t, got.Theme.DarkMode)
	assert.Equal(t, atlas.MapStyleDefault, got.Theme.MapStyle)
	assert.Equal(t, 3.0, got.DefaultZoom)
	assert.True(t, got.ShowSidebar)
	assert.Equal(t, got, storage.LoadSettings(ctx))

	_, err = svc.Patch(ctx, []byte(`{"theme":{"mapStyle":"neon"}}`))
	var verr *atlas.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "theme.mapStyle", verr.Field)
	_, err = svc.Patch(ctx, []byte(`{"defaultZoom":"far"}`))
	assert.Error(t, err)
	assert.Equal(t, got, svc.Get())

	assert.Equal(t, atlas.DefaultSettings(), svc.Reset(ctx))
}

func TestTileServiceList(t *testing.T) {
	svc := NewTileService(t.TempDir() + "/missing")
	files, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "12 B", formatSize(12))
}

func TestCityServiceImport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCityService(t, testCities())

	_, err := svc.Import(ctx, strings.NewReader(`[{"name":"Rome","country":"Italy"}]`))
	assert.ErrorIs(t, err, ErrInvalidImport)
	assert.Equal(t, testCities(), svc.List())

	_, err = svc.Import(ctx, strings.NewReader(`null`))
	assert.ErrorIs(t, err, ErrInvalidImport)
	assert.Equal(t, testCities(), svc.List())

	got, err := svc.Import(ctx, strings.NewReader(`[{"name":"Rome","country":"Italy","coordinates":[12.5,41.9]}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, got, svc.List())
	assert.Equal(t, "rome-italy", svc.List()[0].ID)
}
