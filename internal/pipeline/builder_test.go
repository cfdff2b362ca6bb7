package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	csvadapter "github.com/couchcryptid/volcano-map/internal/adapter/csv"
	"github.com/couchcryptid/volcano-map/internal/adapter/geojson"
	"github.com/couchcryptid/volcano-map/internal/adapter/leaflet"
	"github.com/couchcryptid/volcano-map/internal/adapter/tiles"
	"github.com/couchcryptid/volcano-map/internal/domain"
	"github.com/couchcryptid/volcano-map/internal/observability"
	"github.com/couchcryptid/volcano-map/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockTiles struct {
	failing map[string]error
	calls   []string
}

func (m *mockTiles) Resolve(_ context.Context, style string) (domain.TileLayer, error) {
	m.calls = append(m.calls, style)
	if err, ok := m.failing[style]; ok {
		return domain.TileLayer{}, err
	}
	return domain.TileLayer{Name: style, URLTemplate: "https://tiles.test/{z}/{x}/{y}.png"}, nil
}

type mockVolcanoes struct {
	records []domain.VolcanoRecord
	err     error
}

func (m *mockVolcanoes) LoadVolcanoes(string) ([]domain.VolcanoRecord, error) {
	return m.records, m.err
}

type mockCountries struct {
	features []domain.CountryFeature
	err      error
}

func (m *mockCountries) LoadCountries(string) ([]domain.CountryFeature, error) {
	return m.features, m.err
}

type mockRenderer struct {
	rendered []domain.MapDocument
	err      error
}

func (m *mockRenderer) Render(w io.Writer, doc domain.MapDocument) error {
	if m.err != nil {
		return m.err
	}
	m.rendered = append(m.rendered, doc)
	_, err := io.WriteString(w, "<html></html>")
	return err
}

func ptr[T any](v T) *T { return &v }

func testConfig() domain.MapConfig {
	return domain.MapConfig{
		Center:            domain.LatLon{Lat: 10, Lon: 20},
		Zoom:              3,
		PrimaryTileStyle:  "Cartodb Positron",
		FallbackTileStyle: "OpenStreetMap",
		VolcanoSourcePath: "volcanoes.csv",
		CountrySourcePath: "countries.json",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func frozenClock(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// --- tests ---

func TestBuild_HappyPath(t *testing.T) {
	at := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	frozenClock(t, at)

	vol := &mockVolcanoes{records: []domain.VolcanoRecord{
		{Name: ptr("Fuji"), Elevation: ptr(3776.0), Lat: 35.36, Lon: 138.73},
		{Name: ptr("Taal"), Elevation: ptr(311.0), Lat: 14.0, Lon: 121.0},
	}}
	cty := &mockCountries{features: []domain.CountryFeature{
		{Name: "Iceland", Population: 300_000, Geometry: json.RawMessage(`{"type":"Polygon","coordinates":[]}`)},
	}}
	metrics := observability.NewMetricsForTesting()
	b := pipeline.New(&mockTiles{}, vol, cty, &mockRenderer{}, discardLogger(), metrics)

	doc, err := b.Build(context.Background(), testConfig())
	require.NoError(t, err)

	assert.Equal(t, domain.LatLon{Lat: 10, Lon: 20}, doc.Center)
	assert.Equal(t, 3, doc.Zoom)
	assert.Equal(t, "Cartodb Positron", doc.Tiles.Name)
	assert.True(t, doc.LayerControl)
	assert.Equal(t, at, doc.GeneratedAt)

	require.Len(t, doc.Layers, 2)
	assert.Equal(t, domain.VolcanoLayerName, doc.Layers[0].Name)
	assert.Equal(t, domain.CountryLayerName, doc.Layers[1].Name)

	markers, _ := doc.Layers[0].Counts()
	_, polygons := doc.Layers[1].Counts()
	assert.Equal(t, 2, markers)
	assert.Equal(t, 1, polygons)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MarkersRendered), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PolygonsRendered), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.TileFallbacks), 0)
}

func TestBuild_TileFallbackLogsOnce(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	tl := &mockTiles{failing: map[string]error{"Cartodb Positron": errors.New("connection refused")}}
	metrics := observability.NewMetricsForTesting()

	b := pipeline.New(tl, &mockVolcanoes{}, &mockCountries{}, &mockRenderer{}, logger, metrics)

	doc, err := b.Build(context.Background(), testConfig())
	require.NoError(t, err)

	assert.Equal(t, "OpenStreetMap", doc.Tiles.Name)
	assert.Equal(t, []string{"Cartodb Positron", "OpenStreetMap"}, tl.calls)
	assert.Equal(t, domain.LatLon{Lat: 10, Lon: 20}, doc.Center)
	assert.Equal(t, 3, doc.Zoom)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TileFallbacks), 0)

	var warnings []string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if strings.Contains(line, "level=WARN") {
			warnings = append(warnings, line)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `style="Cartodb Positron"`)
	assert.Contains(t, warnings[0], "fallback=OpenStreetMap")
	assert.Contains(t, warnings[0], "connection refused")
}

func TestBuild_BothTileStylesFail(t *testing.T) {
	tl := &mockTiles{failing: map[string]error{
		"Cartodb Positron": tiles.ErrUnknownStyle,
		"OpenStreetMap":    errors.New("timeout"),
	}}
	vol := &mockVolcanoes{}
	b := pipeline.New(tl, vol, &mockCountries{}, &mockRenderer{}, discardLogger(), observability.NewMetricsForTesting())

	_, err := b.Build(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `resolve fallback tiles "OpenStreetMap"`)
	assert.Contains(t, err.Error(), "timeout")
	assert.Len(t, tl.calls, 2)
}

func TestBuild_NoFallbackConfigured(t *testing.T) {
	tl := &mockTiles{failing: map[string]error{"Cartodb Positron": tiles.ErrUnknownStyle}}
	cfg := testConfig()
	cfg.FallbackTileStyle = ""

	b := pipeline.New(tl, &mockVolcanoes{}, &mockCountries{}, &mockRenderer{}, discardLogger(), observability.NewMetricsForTesting())

	_, err := b.Build(context.Background(), cfg)
	require.ErrorIs(t, err, tiles.ErrUnknownStyle)
	assert.Len(t, tl.calls, 1)
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Zoom = -1
	tl := &mockTiles{}

	b := pipeline.New(tl, &mockVolcanoes{}, &mockCountries{}, &mockRenderer{}, discardLogger(), observability.NewMetricsForTesting())

	_, err := b.Build(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid map config")
	assert.Empty(t, tl.calls)
}

func TestBuild_DataSourceErrorPropagates(t *testing.T) {
	srcErr := &domain.DataSourceError{Path: "volcanoes.csv", Err: os.ErrNotExist}

	tests := []struct {
		name string
		vol  *mockVolcanoes
		cty  *mockCountries
	}{
		{name: "volcanoes", vol: &mockVolcanoes{err: srcErr}, cty: &mockCountries{}},
		{name: "countries", vol: &mockVolcanoes{}, cty: &mockCountries{err: srcErr}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := pipeline.New(&mockTiles{}, tt.vol, tt.cty, &mockRenderer{}, discardLogger(), observability.NewMetricsForTesting())

			_, err := b.Build(context.Background(), testConfig())
			var dsErr *domain.DataSourceError
			require.ErrorAs(t, err, &dsErr)
			assert.Same(t, srcErr, dsErr)
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestBuildVolcanoLayer_MarkersInFileOrder(t *testing.T) {
	vol := &mockVolcanoes{records: []domain.VolcanoRecord{
		{Name: ptr("Low"), Elevation: ptr(999.0), Lat: 1, Lon: 1},
		{Name: ptr("Mid"), Elevation: ptr(1000.0), Lat: 2, Lon: 2},
		{Name: ptr("High"), Elevation: ptr(2000.0), Lat: 3, Lon: 3},
		{Name: nil, Elevation: nil, Lat: 4, Lon: 4},
	}}
	b := pipeline.New(&mockTiles{}, vol, &mockCountries{}, &mockRenderer{}, discardLogger(), observability.NewMetricsForTesting())

	layer, err := b.BuildVolcanoLayer("volcanoes.csv")
	require.NoError(t, err)

	assert.Equal(t, domain.VolcanoLayerName, layer.Name)
	require.Len(t, layer.Features, 4)

	var got []domain.VisualCategory
	var positions []domain.LatLon
	for _, f := range layer.Features {
		require.NotNil(t, f.Marker)
		got = append(got, f.Marker.Category)
		positions = append(positions, f.Marker.Position)
	}
	want := []domain.VisualCategory{domain.CategoryGreen, domain.CategoryOrange, domain.CategoryRed, domain.CategoryGray}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.LatLon{Lat: 1, Lon: 1}, positions[0])
	assert.Equal(t, domain.LatLon{Lat: 4, Lon: 4}, positions[3])

	assert.Equal(t, domain.FormatPopup(ptr("Mid"), ptr(1000.0)), layer.Features[1].Marker.PopupHTML)
	assert.Contains(t, layer.Features[3].Marker.PopupHTML, "Unknown")
	assert.Contains(t, layer.Features[3].Marker.PopupHTML, "N/A")
}

func TestBuildCountryLayer_PopulationBoundaries(t *testing.T) {
	geom := json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)
	cty := &mockCountries{features: []domain.CountryFeature{
		{Name: "A", Population: 9_999_999, Geometry: geom},
		{Name: "B", Population: 10_000_000, Geometry: geom},
		{Name: "C", Population: 19_999_999, Geometry: geom},
		{Name: "D", Population: 20_000_000, Geometry: geom},
	}}
	b := pipeline.New(&mockTiles{}, &mockVolcanoes{}, cty, &mockRenderer{}, discardLogger(), observability.NewMetricsForTesting())

	layer, err := b.BuildCountryLayer("countries.json")
	require.NoError(t, err)
	assert.Equal(t, domain.CountryLayerName, layer.Name)

	want := []domain.VisualCategory{domain.CategoryGreen, domain.CategoryOrange, domain.CategoryOrange, domain.CategoryRed}
	require.Len(t, layer.Features, len(want))
	for i, f := range layer.Features {
		require.NotNil(t, f.Polygon)
		assert.Equal(t, want[i], f.Polygon.FillColor, f.Polygon.Name)
		assert.JSONEq(t, string(geom), string(f.Polygon.Geometry))
	}
}

func TestSave_WritesRenderedDocument(t *testing.T) {
	rnd := &mockRenderer{}
	metrics := observability.NewMetricsForTesting()
	b := pipeline.New(&mockTiles{}, &mockVolcanoes{}, &mockCountries{}, rnd, discardLogger(), metrics)

	path := filepath.Join(t.TempDir(), "map.html")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer"), 0o600))

	doc := domain.MapDocument{Zoom: 5}
	require.NoError(t, b.Save(doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
	require.Len(t, rnd.rendered, 1)
	assert.Equal(t, 5, rnd.rendered[0].Zoom)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DocumentsSaved), 0)
}

func TestSave_Errors(t *testing.T) {
	b := pipeline.New(&mockTiles{}, &mockVolcanoes{}, &mockCountries{}, &mockRenderer{}, discardLogger(), observability.NewMetricsForTesting())
	err := b.Save(domain.MapDocument{}, filepath.Join(t.TempDir(), "missing", "map.html"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create output")

	failing := pipeline.New(&mockTiles{}, &mockVolcanoes{}, &mockCountries{}, &mockRenderer{err: errors.New("boom")}, discardLogger(), observability.NewMetricsForTesting())
	err = failing.Save(domain.MapDocument{}, filepath.Join(t.TempDir(), "map.html"))
	require.EqualError(t, err, "boom")
}

func TestEndToEnd_CSVAndEmptyCollection(t *testing.T) {
	dir := t.TempDir()
	volcanoes := filepath.Join(dir, "volcanoes.csv")
	countries := filepath.Join(dir, "countries.json")
	output := filepath.Join(dir, "map.html")

	require.NoError(t, os.WriteFile(volcanoes, []byte("VOLCANX020,NAME,LOCATION,ELEV,LAT,LON\n"+
		"1,Alpha,Somewhere,500,10.5,20.5\n"+
		"2,Beta,Elsewhere,,11.5,21.5\n"+
		"3,Gamma,Nowhere,NAN,12.5,22.5\n"), 0o600))
	require.NoError(t, os.WriteFile(countries, []byte(`{"type":"FeatureCollection","features":[]}`), 0o600))

	cfg := testConfig()
	cfg.PrimaryTileStyle = "OpenStreetMap"
	cfg.VolcanoSourcePath = volcanoes
	cfg.CountrySourcePath = countries

	b := pipeline.New(
		tiles.NewResolver("", nil, discardLogger()),
		csvadapter.NewVolcanoReader(),
		geojson.NewCountryReader(),
		leaflet.NewRenderer(),
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	doc, err := b.Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, b.Save(doc, output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	out := string(data)

	assert.Equal(t, 3, strings.Count(out, "L.marker("))
	assert.Equal(t, 1, strings.Count(out, `markerColor: "green"`))
	assert.Equal(t, 2, strings.Count(out, `markerColor: "gray"`))
	assert.NotContains(t, out, `markerColor: "red"`)
	assert.Equal(t, 0, strings.Count(out, "L.geoJSON("))
	assert.Equal(t, 1, strings.Count(out, "L.control.layers("))
}

func TestEndToEnd_MissingVolcanoFile(t *testing.T) {
	dir := t.TempDir()
	countries := filepath.Join(dir, "countries.json")
	require.NoError(t, os.WriteFile(countries, []byte(`{"type":"FeatureCollection","features":[]}`), 0o600))

	cfg := testConfig()
	cfg.PrimaryTileStyle = "OpenStreetMap"
	cfg.VolcanoSourcePath = filepath.Join(dir, "nope.csv")
	cfg.CountrySourcePath = countries

	b := pipeline.New(
		tiles.NewResolver("", nil, discardLogger()),
		csvadapter.NewVolcanoReader(),
		geojson.NewCountryReader(),
		leaflet.NewRenderer(),
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	_, err := b.Build(context.Background(), cfg)
	var dsErr *domain.DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, cfg.VolcanoSourcePath, dsErr.Path)
}
