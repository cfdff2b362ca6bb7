// Package tiles resolves tile style names to Leaflet tile layer settings and
// optionally checks that the tile server answers.
package tiles

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/couchcryptid/volcano-map/internal/domain"
)

// ErrUnknownStyle is returned for names that are neither a known provider nor
// a URL template.
var ErrUnknownStyle = errors.New("unknown tile style")

// ErrMissingAttribution is returned for a custom URL template when no
// attribution is configured.
var ErrMissingAttribution = errors.New("custom tile template requires an attribution")

const (
	osmAttribution   = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	cartoAttribution = osmAttribution + ` &copy; <a href="https://carto.com/attributions">CARTO</a>`
)

var (
	openStreetMap = domain.TileLayer{
		Name:        "OpenStreetMap",
		URLTemplate: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: osmAttribution,
		MaxZoom:     19,
	}
	cartoPositron = domain.TileLayer{
		Name:        "CartoDB Positron",
		URLTemplate: "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: cartoAttribution,
		Subdomains:  []string{"a", "b", "c", "d"},
		MaxZoom:     20,
	}
	cartoVoyager = domain.TileLayer{
		Name:        "CartoDB Voyager",
		URLTemplate: "https://{s}.basemaps.cartocdn.com/rastertiles/voyager/{z}/{x}/{y}{r}.png",
		Attribution: cartoAttribution,
		Subdomains:  []string{"a", "b", "c", "d"},
		MaxZoom:     20,
	}
	cartoDarkMatter = domain.TileLayer{
		Name:        "CartoDB DarkMatter",
		URLTemplate: "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		Attribution: cartoAttribution,
		Subdomains:  []string{"a", "b", "c", "d"},
		MaxZoom:     20,
	}
	openTopoMap = domain.TileLayer{
		Name:        "OpenTopoMap",
		URLTemplate: "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: `Map data: ` + osmAttribution + `, <a href="http://viewfinderpanoramas.org">SRTM</a> | Map style: &copy; <a href="https://opentopomap.org">OpenTopoMap</a> (<a href="https://creativecommons.org/licenses/by-sa/3.0/">CC-BY-SA</a>)`,
		Subdomains:  []string{"a", "b", "c"},
		MaxZoom:     17,
	}
	esriWorldImagery = domain.TileLayer{
		Name:        "Esri WorldImagery",
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri &mdash; Source: Esri, i-cubed, USDA, USGS, AEX, GeoEye, Getmapping, Aerogrid, IGN, IGP, UPR-EGP, and the GIS User Community",
		MaxZoom:     18,
	}
)

// providers is keyed by normalized name; see normalize.
var providers = map[string]domain.TileLayer{
	"openstreetmap":       openStreetMap,
	"openstreetmapmapnik": openStreetMap,
	"osm":                 openStreetMap,
	"cartodbpositron":     cartoPositron,
	"cartodbvoyager":      cartoVoyager,
	"cartodbdarkmatter":   cartoDarkMatter,
	"opentopomap":         openTopoMap,
	"esriworldimagery":    esriWorldImagery,
}

// Lookup returns the provider registered under style. Matching ignores case,
// spaces and punctuation, so "Cartodb Positron" and "CartoDB.Positron" agree.
func Lookup(style string) (domain.TileLayer, error) {
	layer, ok := providers[normalize(style)]
	if !ok {
		return domain.TileLayer{}, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	// Copy the subdomain slice so callers cannot mutate the registry.
	layer.Subdomains = append([]string(nil), layer.Subdomains...)
	return layer, nil
}

// IsURLTemplate reports whether style is a raw {z}/{x}/{y} tile URL template.
func IsURLTemplate(style string) bool {
	return strings.Contains(style, "{z}") &&
		strings.Contains(style, "{x}") &&
		strings.Contains(style, "{y}")
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
