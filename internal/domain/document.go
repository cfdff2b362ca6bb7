package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Fixed overlay names shown in the layer control.
const (
	VolcanoLayerName = "Volcanoes"
	CountryLayerName = "Population"
)

// MapConfig describes what to render and where the input data lives.
type MapConfig struct {
	Center            LatLon
	Zoom              int
	PrimaryTileStyle  string
	FallbackTileStyle string
	VolcanoSourcePath string
	CountrySourcePath string
}

// Validate reports the first invalid field, if any.
func (c MapConfig) Validate() error {
	if c.Zoom < 0 {
		return fmt.Errorf("zoom must be >= 0, got %d", c.Zoom)
	}
	if c.Center.Lat < -90 || c.Center.Lat > 90 {
		return fmt.Errorf("center latitude out of range: %g", c.Center.Lat)
	}
	if c.Center.Lon < -180 || c.Center.Lon > 180 {
		return fmt.Errorf("center longitude out of range: %g", c.Center.Lon)
	}
	if c.PrimaryTileStyle == "" {
		return errors.New("primary tile style is required")
	}
	if c.VolcanoSourcePath == "" || c.CountrySourcePath == "" {
		return errors.New("volcano and country source paths are required")
	}
	return nil
}

// TileLayer is a resolved base tile provider.
type TileLayer struct {
	Name        string
	URLTemplate string // Leaflet template, e.g. https://{s}.tile.example/{z}/{x}/{y}.png
	Attribution string
	Subdomains  []string
	MaxZoom     int
}

// Marker is a point feature with a popup and a category-colored icon.
type Marker struct {
	Position  LatLon
	PopupHTML string
	Category  VisualCategory
}

// Polygon is an area feature filled with a category color.
type Polygon struct {
	Name       string
	Population float64
	Geometry   json.RawMessage
	FillColor  VisualCategory
}

// Feature holds exactly one of Marker or Polygon.
type Feature struct {
	Marker  *Marker
	Polygon *Polygon
}

// MarkerFeature wraps m as a Feature.
func MarkerFeature(m Marker) Feature { return Feature{Marker: &m} }

// PolygonFeature wraps p as a Feature.
func PolygonFeature(p Polygon) Feature { return Feature{Polygon: &p} }

// Layer is a named, toggleable collection of features.
type Layer struct {
	Name     string
	Features []Feature
}

// Counts returns the number of markers and polygons in the layer.
func (l Layer) Counts() (markers, polygons int) {
	for _, f := range l.Features {
		switch {
		case f.Marker != nil:
			markers++
		case f.Polygon != nil:
			polygons++
		}
	}
	return markers, polygons
}

// MapDocument is the fully composed map, ready to serialize.
type MapDocument struct {
	Center       LatLon
	Zoom         int
	Tiles        TileLayer
	Layers       []Layer
	LayerControl bool
	GeneratedAt  time.Time
}
