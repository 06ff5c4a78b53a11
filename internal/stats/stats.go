// Package stats computes aggregate metrics over a city collection.
package stats

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

// EarthRadiusKm is the mean Earth radius used for travel distances.
const EarthRadiusKm = 6371.0

// Stats is the derived summary shown next to the map.
type Stats struct {
	TotalCities        int            `json:"totalCities" doc:"Number of cities"`
	TotalCountries     int            `json:"totalCountries" doc:"Distinct countries"`
	TotalContinents    int            `json:"totalContinents" doc:"Distinct resolved continents"`
	CategoryBreakdown  map[string]int `json:"categoryBreakdown" doc:"Cities per category"`
	ContinentBreakdown map[string]int `json:"continentBreakdown" doc:"Cities per resolved continent"`
	YearlyBreakdown    map[string]int `json:"yearlyBreakdown" doc:"Dated visits per year"`
	TotalDistance      int            `json:"totalDistance" doc:"Chronological travel path length in km"`
}

// Calculate aggregates cities. A visit date that fails to parse is logged
// and left out of the yearly breakdown and distance; every other aggregate
// still counts the city.
func Calculate(cities []atlas.City, resolver *atlas.Resolver, logger *slog.Logger) Stats {
	s := Stats{
		TotalCities:        len(cities),
		CategoryBreakdown:  make(map[string]int),
		ContinentBreakdown: make(map[string]int),
		YearlyBreakdown:    make(map[string]int),
	}
	countries := make(map[string]struct{})
	continents := make(map[string]struct{})

	for _, c := range cities {
		s.CategoryBreakdown[string(c.Category)]++
		countries[c.Country] = struct{}{}

		continent := resolver.Resolve(c)
		continents[continent] = struct{}{}
		s.ContinentBreakdown[continent]++

		if !c.HasVisit() {
			continue
		}
		d, err := atlas.ParseVisitDate(c.VisitDate)
		if err != nil {
			if logger != nil {
				logger.Warn("stats_skip_visit_date", "city", c.Name, "visitDate", c.VisitDate, "error", err)
			}
			continue
		}
		s.YearlyBreakdown[d.Format("2006")]++
	}

	s.TotalCountries = len(countries)
	s.TotalContinents = len(continents)
	s.TotalDistance = TotalDistance(cities)
	return s
}

type datedCity struct {
	city atlas.City
	date time.Time
}

// datedVisits returns Visited cities with a parseable date, oldest first.
// Equal dates keep their collection order.
func datedVisits(cities []atlas.City) []datedCity {
	var visits []datedCity
	for _, c := range cities {
		if !c.HasVisit() {
			continue
		}
		d, err := atlas.ParseVisitDate(c.VisitDate)
		if err != nil {
			continue
		}
		visits = append(visits, datedCity{city: c, date: d})
	}
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].date.Before(visits[j].date)
	})
	return visits
}

// TotalDistance sums great-circle legs between consecutive dated visits in
// chronological order, rounded to the nearest kilometer. It is a path
// length, not an optimized tour.
func TotalDistance(cities []atlas.City) int {
	visits := datedVisits(cities)
	if len(visits) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(visits); i++ {
		total += Haversine(visits[i-1].city.Coordinates, visits[i].city.Coordinates)
	}
	return int(math.Round(total))
}

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b atlas.Coordinates) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLon := (b.Lon() - a.Lon()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Timeline returns dated visits, most recent first. Equal dates keep their
// collection order.
func Timeline(cities []atlas.City) []atlas.City {
	var visits []datedCity
	for _, c := range cities {
		if !c.HasVisit() {
			continue
		}
		if d, err := atlas.ParseVisitDate(c.VisitDate); err == nil {
			visits = append(visits, datedCity{city: c, date: d})
		}
	}
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].date.After(visits[j].date)
	})
	out := make([]atlas.City, len(visits))
	for i, v := range visits {
		out[i] = v.city
	}
	return out
}

// Recommend picks a random Planned city. ok is false when there is none.
func Recommend(cities []atlas.City, rng *rand.Rand) (city atlas.City, ok bool) {
	var planned []atlas.City
	for _, c := range cities {
		if c.Category == atlas.Planned {
			planned = append(planned, c)
		}
	}
	if len(planned) == 0 {
		return atlas.City{}, false
	}
	if rng == nil {
		return planned[rand.IntN(len(planned))], true
	}
	return planned[rng.IntN(len(planned))], true
}
