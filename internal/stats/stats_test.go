package stats

import (
	"bytes"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

func city(id, name, country string, cat atlas.Category, date string, lon, lat float64) atlas.City {
	return atlas.City{
		ID: id, Name: name, Country: country, Category: cat, VisitDate: date,
		Coordinates: atlas.Coordinates{lon, lat},
	}
}

func TestCalculateCountsCountries(t *testing.T) {
	cities := []atlas.City{
		city("1", "Beijing", "China", atlas.Visited, "", 116.4, 39.9),
		city("2", "Shanghai", "China", atlas.Planned, "", 121.5, 31.2),
		city("3", "Tokyo", "Japan", atlas.Visited, "", 139.7, 35.7),
	}
	s := Calculate(cities, atlas.DefaultResolver(), nil)

	assert.Equal(t, 3, s.TotalCities)
	assert.Equal(t, 2, s.TotalCountries)
	assert.Equal(t, 1, s.TotalContinents)
	assert.Equal(t, map[string]int{"Asia": 3}, s.ContinentBreakdown)

	sum := 0
	for _, n := range s.CategoryBreakdown {
		sum += n
	}
	assert.Equal(t, s.TotalCities, sum)
}

func TestCalculateUnknownContinent(t *testing.T) {
	cities := []atlas.City{
		city("1", "Atlantis City", "Atlantis", atlas.Wishlist, "", 0, 0),
		city("2", "Vladivostok", "Russia", atlas.Visited, "", 131.9, 43.1),
	}
	cities[1].Continent = "Asia"

	s := Calculate(cities, atlas.DefaultResolver(), nil)
	assert.Equal(t, map[string]int{"Unknown": 1, "Asia": 1}, s.ContinentBreakdown)
	assert.Equal(t, 2, s.TotalContinents)
}

func TestCalculateYearlySkipsBadDates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cities := []atlas.City{
		city("1", "Paris", "France", atlas.Visited, "2019-04-01", 2.35, 48.85),
		city("2", "Rome", "Italy", atlas.Visited, "2019-09-12", 12.5, 41.9),
		city("3", "Berlin", "Germany", atlas.Visited, "sometime", 13.4, 52.5),
		city("4", "Madrid", "Spain", atlas.Planned, "2020-01-01", -3.7, 40.4),
		city("5", "Vienna", "Austria", atlas.Visited, "2021-07-30", 16.4, 48.2),
	}
	s := Calculate(cities, atlas.DefaultResolver(), logger)

	assert.Equal(t, map[string]int{"2019": 2, "2021": 1}, s.YearlyBreakdown)
	assert.Equal(t, 5, s.TotalCities)
	assert.Equal(t, 5, s.TotalCountries)
	assert.Contains(t, buf.String(), "stats_skip_visit_date")
	assert.Contains(t, buf.String(), "Berlin")
}

func TestHaversineQuarterCircle(t *testing.T) {
	d := Haversine(atlas.Coordinates{0, 0}, atlas.Coordinates{0, 90})
	assert.InDelta(t, 10007, d, 1)
	assert.InDelta(t, 0, Haversine(atlas.Coordinates{10, 10}, atlas.Coordinates{10, 10}), 1e-9)
}

func TestTotalDistanceChronological(t *testing.T) {
	// Collection order differs from date order; legs follow the dates.
	cities := []atlas.City{
		city("c", "C", "X", atlas.Visited, "2020-03-01", 0, 90),
		city("a", "A", "X", atlas.Visited, "2020-01-01", 0, 0),
		city("b", "B", "X", atlas.Visited, "2020-02-01", 0, 45),
		city("p", "P", "X", atlas.Planned, "2020-01-15", 180, 0),
		city("n", "N", "X", atlas.Visited, "", 90, 0),
	}
	want := Haversine(atlas.Coordinates{0, 0}, atlas.Coordinates{0, 45}) +
		Haversine(atlas.Coordinates{0, 45}, atlas.Coordinates{0, 90})
	assert.Equal(t, int(want+0.5), TotalDistance(cities))
}

func TestTotalDistanceNeedsTwoVisits(t *testing.T) {
	assert.Equal(t, 0, TotalDistance(nil))
	assert.Equal(t, 0, TotalDistance([]atlas.City{
		city("a", "A", "X", atlas.Visited, "2020-01-01", 0, 0),
		city("b", "B", "X", atlas.Planned, "2020-01-02", 50, 0),
	}))
}

func TestTimelineMostRecentFirst(t *testing.T) {
	cities := []atlas.City{
		city("old", "Old", "X", atlas.Visited, "2018-01-01", 0, 0),
		city("new", "New", "X", atlas.Visited, "2022-01-01", 0, 0),
		city("tie1", "Tie1", "X", atlas.Visited, "2020-01-01", 0, 0),
		city("tie2", "Tie2", "X", atlas.Visited, "2020-01-01", 0, 0),
		city("plan", "Plan", "X", atlas.Planned, "2023-01-01", 0, 0),
		city("nodate", "NoDate", "X", atlas.Visited, "", 0, 0),
	}
	got := Timeline(cities)
	require.Len(t, got, 4)

	ids := []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID}
	assert.Equal(t, []string{"new", "tie1", "tie2", "old"}, ids)
}

func TestRecommend(t *testing.T) {
	_, ok := Recommend([]atlas.City{city("a", "A", "X", atlas.Visited, "", 0, 0)}, nil)
	assert.False(t, ok)

	cities := []atlas.City{
		city("a", "A", "X", atlas.Visited, "", 0, 0),
		city("b", "B", "X", atlas.Planned, "", 0, 0),
		city("c", "C", "X", atlas.Planned, "", 0, 0),
	}
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		got, ok := Recommend(cities, rng)
		require.True(t, ok)
		assert.Equal(t, atlas.Planned, got.Category)
	}
}
