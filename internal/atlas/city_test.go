package atlas

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCity() City {
	return City{
		ID:          "paris-france",
		Name:        "Paris",
		Country:     "France",
		Coordinates: Coordinates{2.3522, 48.8566},
		Category:    Visited,
		VisitDate:   "2023-05-14",
	}
}

func TestCoordinateBounds(t *testing.T) {
	accepted := []Coordinates{{180, 90}, {-180, -90}, {180, -90}, {-180, 90}, {0, 0}}
	for _, c := range accepted {
		assert.NoError(t, c.Validate(), "%v should be accepted", c)
	}

	rejected := []Coordinates{{181, 0}, {-181, 0}, {0, 91}, {0, -91}, {math.NaN(), 0}, {0, math.Inf(1)}}
	for _, c := range rejected {
		err := c.Validate()
		require.Error(t, err, "%v should be rejected", c)
		assert.True(t, errors.Is(err, ErrInvalidCity))
	}
}

func TestCoordinatesKeepLongitudeFirst(t *testing.T) {
	c := Coordinates{2.35, 48.85}
	assert.Equal(t, 2.35, c.Lon())
	assert.Equal(t, 48.85, c.Lat())
	assert.Equal(t, 2.35, c.Point().Lon())
	assert.Equal(t, 48.85, c.Point().Lat())
}

func TestValidateRejectsCountryEqualToName(t *testing.T) {
	c := validCity()
	c.Country = "paris "
	err := c.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "country", verr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*City)
		field string
	}{
		{"missing name", func(c *City) { c.Name = "  " }, "name"},
		{"missing country", func(c *City) { c.Country = "" }, "country"},
		{"bad category", func(c *City) { c.Category = "Lived" }, "category"},
		{"bad date", func(c *City) { c.VisitDate = "last summer" }, "visitDate"},
		{"latitude out of range", func(c *City) { c.Coordinates = Coordinates{0, 90.5} }, "coordinates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCity()
			tt.edit(&c)
			var verr *ValidationError
			require.ErrorAs(t, c.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.NoError(t, validCity().Validate())
}

func TestNormalizeDropsDateOnNonVisited(t *testing.T) {
	c := validCity()
	c.Category = Planned
	c.Name = "  Paris "
	n := c.Normalize()
	assert.Equal(t, "Paris", n.Name)
	assert.Empty(t, n.VisitDate)
	assert.False(t, n.HasVisit())
}

func TestImportID(t *testing.T) {
	assert.Equal(t, "paris-france", ImportID("Paris", "France"))
	assert.Equal(t, "new-york-united-states", ImportID("New  York", "United States"))
}

func TestNewIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}

func TestParseVisitDate(t *testing.T) {
	d, err := ParseVisitDate("2021-03-04")
	require.NoError(t, err)
	assert.Equal(t, 2021, d.Year())

	d, err = ParseVisitDate("2021-03-04T22:10:00Z")
	require.NoError(t, err)
	assert.Equal(t, 4, d.Day())

	_, err = ParseVisitDate("04/03/2021")
	assert.Error(t, err)
}

func TestCategoryColor(t *testing.T) {
	assert.Equal(t, "#52c41a", Visited.Color())
	assert.Equal(t, UnknownColor, Category("Lived").Color())
}
