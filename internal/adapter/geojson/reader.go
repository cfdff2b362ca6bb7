// Package geojson loads country population features from a GeoJSON
// FeatureCollection.
package geojson

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/volcano-map/internal/adapter/textfile"
	"github.com/couchcryptid/volcano-map/internal/domain"
	geojson "github.com/paulmach/go.geojson"
)

// Property keys read from each feature.
const (
	PropPopulation = "POP2005"
	PropName       = "NAME"
)

// CountryReader implements pipeline.CountrySource.
type CountryReader struct{}

// NewCountryReader creates a CountryReader.
func NewCountryReader() *CountryReader {
	return &CountryReader{}
}

// LoadCountries reads the FeatureCollection at path. A leading byte-order mark
// is tolerated. Any failure is returned as a *domain.DataSourceError.
func (r *CountryReader) LoadCountries(path string) ([]domain.CountryFeature, error) {
	data, err := textfile.ReadAll(path)
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: err}
	}

	countries, err := parseCountries(data)
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: err}
	}
	return countries, nil
}

func parseCountries(data []byte) ([]domain.CountryFeature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", fc.Type)
	}

	countries := make([]domain.CountryFeature, 0, len(fc.Features))
	for i, f := range fc.Features {
		c, err := toCountry(f)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		countries = append(countries, c)
	}
	return countries, nil
}

func toCountry(f *geojson.Feature) (domain.CountryFeature, error) {
	if f == nil {
		return domain.CountryFeature{}, errors.New("null feature")
	}
	if f.Geometry == nil {
		return domain.CountryFeature{}, errors.New("missing geometry")
	}

	pop, err := f.PropertyFloat64(PropPopulation)
	if err != nil {
		return domain.CountryFeature{}, fmt.Errorf("invalid %s: %w", PropPopulation, err)
	}

	geometry, err := json.Marshal(f.Geometry)
	if err != nil {
		return domain.CountryFeature{}, fmt.Errorf("encode geometry: %w", err)
	}

	return domain.CountryFeature{
		Name:       f.PropertyMustString(PropName, ""),
		Population: pop,
		Geometry:   geometry,
	}, nil
}
