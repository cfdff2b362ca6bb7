package domain

import (
	"encoding/json"
	"fmt"
)

// LatLon represents a WGS-84 latitude/longitude coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// VolcanoRecord is one row of the volcano CSV. Name and Elevation are nil
// when the source cell is empty.
type VolcanoRecord struct {
	Name      *string
	Elevation *float64 // meters
	Lat       float64
	Lon       float64
}

// CountryFeature is one feature of the country population collection.
type CountryFeature struct {
	Name       string
	Population float64
	Geometry   json.RawMessage // GeoJSON geometry object, passed through as-is
}

// DataSourceError reports that an input file could not be loaded.
// It is never recovered internally; the whole run aborts.
type DataSourceError struct {
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s: %v", e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}
