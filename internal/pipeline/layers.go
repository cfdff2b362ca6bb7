package pipeline

import (
	"github.com/couchcryptid/volcano-map/internal/domain"
)

// BuildVolcanoLayer emits one marker per volcano row, in file order. A
// *domain.DataSourceError from the source is returned unchanged.
func (b *Builder) BuildVolcanoLayer(path string) (domain.Layer, error) {
	records, err := b.volcanoes.LoadVolcanoes(path)
	if err != nil {
		return domain.Layer{}, err
	}

	layer := domain.Layer{
		Name:     domain.VolcanoLayerName,
		Features: make([]domain.Feature, 0, len(records)),
	}
	for _, r := range records {
		layer.Features = append(layer.Features, domain.MarkerFeature(domain.Marker{
			Position:  domain.LatLon{Lat: r.Lat, Lon: r.Lon},
			PopupHTML: domain.FormatPopup(r.Name, r.Elevation),
			Category:  domain.ClassifyElevation(r.Elevation),
		}))
	}

	b.logger.Debug("volcano layer built", "path", path, "markers", len(layer.Features))
	return layer, nil
}

// BuildCountryLayer emits one population-colored polygon per country feature.
func (b *Builder) BuildCountryLayer(path string) (domain.Layer, error) {
	countries, err := b.countries.LoadCountries(path)
	if err != nil {
		return domain.Layer{}, err
	}

	layer := domain.Layer{
		Name:     domain.CountryLayerName,
		Features: make([]domain.Feature, 0, len(countries)),
	}
	for _, c := range countries {
		layer.Features = append(layer.Features, domain.PolygonFeature(domain.Polygon{
			Name:       c.Name,
			Population: c.Population,
			Geometry:   c.Geometry,
			FillColor:  domain.ClassifyPopulation(c.Population),
		}))
	}

	b.logger.Debug("country layer built", "path", path, "polygons", len(layer.Features))
	return layer, nil
}
