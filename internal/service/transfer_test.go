package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "world-cities-2024-03-07.json", ExportFilename(now))

	tokyo := time.FixedZone("JST", 9*60*60)
	late := time.Date(2024, 3, 8, 2, 0, 0, 0, tokyo)
	assert.Equal(t, "world-cities-2024-03-07.json", ExportFilename(late))
}

func TestExportImportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCitiesJSON(&buf, testCities()))
	assert.Contains(t, buf.String(), "\n  {")

	got, err := ImportCitiesJSON(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, testCities(), got)
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCitiesJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestImportAssignsSlugID(t *testing.T) {
	in := `[{"name":"Paris","country":"France","coordinates":[2.35,48.85]}]`
	got, err := ImportCitiesJSON(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "paris-france", got[0].ID)
	assert.Equal(t, atlas.Visited, got[0].Category)

	in = `[{"name":"New York","country":"United States","coordinates":[-74,40.7],"category":"Planned"}]`
	got, err = ImportCitiesJSON(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "new-york-united-states", got[0].ID)
}

func TestImportRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object", `{"name":"Paris"}`, "expected an array"},
		{"null", `null`, "expected an array"},
		{"blank name", `[{"name":"   ","country":"France","coordinates":[2.35,48.85]}]`, "index 0"},
		{"blank country", `[{"name":"Paris","country":"\t","coordinates":[2.35,48.85]}]`, "index 0"},
		{"garbage", `not json`, "invalid import"},
		{"missing coordinates", `[{"name":"Paris","country":"France","coordinates":[2,48]},{"name":"Rome","country":"Italy"}]`, "index 1"},
		{"short coordinates", `[{"name":"Rome","country":"Italy","coordinates":[12]}]`, "index 0"},
		{"string coordinates", `[{"name":"Rome","country":"Italy","coordinates":["12","41"]}]`, "index 0"},
		{"missing name", `[{"country":"Italy","coordinates":[12,41]}]`, "index 0"},
		{"country equals name", `[{"name":"Singapore","country":"Singapore","coordinates":[103.8,1.35]}]`, "index 0"},
		{"bad category", `[{"name":"Rome","country":"Italy","coordinates":[12,41],"category":"Lived"}]`, "index 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImportCitiesJSON(context.Background(), strings.NewReader(tt.in))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidImport)
			assert.Contains(t, err.Error(), tt.want)
			assert.Nil(t, got)
		})
	}
}

func TestImportTrimsFields(t *testing.T) {
	in := `[{"name":"  Paris ","country":"France ","coordinates":[2.35,48.85],"notes":" cafe "}]`
	got, err := ImportCitiesJSON(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Paris", got[0].Name)
	assert.Equal(t, "France", got[0].Country)
	assert.Equal(t, "cafe", got[0].Notes)
	assert.Equal(t, "paris-france", got[0].ID)
	assert.NoError(t, got[0].Validate())
}

func TestImportDisambiguatesSlugIDs(t *testing.T) {
	in := `[
		{"name":"Paris","country":"France","coordinates":[2.35,48.85]},
		{"id":"paris-france-2","name":"Lyon","country":"France","coordinates":[4.83,45.76]},
		{"name":"Paris","country":"France","coordinates":[2.35,48.85],"category":"Favorite"}
	]`
	got, err := ImportCitiesJSON(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "paris-france", got[0].ID)
	assert.Equal(t, "paris-france-2", got[1].ID)
	assert.Equal(t, "paris-france-3", got[2].ID)
}

func TestImportKeepsLegacyVisitDate(t *testing.T) {
	in := `[{"id":"x","name":"Rome","country":"Italy","coordinates":[12,41],"category":"Visited","visitDate":"sometime in 2010"}]`
	got, err := ImportCitiesJSON(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "sometime in 2010", got[0].VisitDate)
	assert.Equal(t, "x", got[0].ID)
}

func TestImportCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ImportCitiesJSON(ctx, strings.NewReader(`[]`))
	assert.ErrorIs(t, err, context.Canceled)
}
