// Package domain models volcano reference records, country population
// polygons and the map document they are rendered into.
//
// # Data Sources
//
// Volcano records come from a flat CSV file with one row per volcano. The
// columns used are fixed by header name:
//
//	NAME  volcano name, may be empty
//	ELEV  elevation in meters, may be empty or an NA marker ("NaN", "N/A", ...)
//	LAT   latitude in decimal degrees (WGS-84)
//	LON   longitude in decimal degrees (WGS-84)
//
// Country polygons come from a GeoJSON FeatureCollection. Each feature carries
// a POP2005 property (2005 population estimate) and a Polygon or MultiPolygon
// geometry. Geometry is passed through to the rendered map unmodified.
//
// # Visual Encoding
//
// Markers are colored by elevation, evaluated in ascending order:
//
//	absent        gray
//	< 1000 m      green
//	< 2000 m      orange
//	>= 2000 m     red
//
// Country polygons are filled by population:
//
//	< 10,000,000  green
//	< 20,000,000  orange
//	otherwise     red
//
// The 1000 m / 2000 m and 10M / 20M boundaries are fixed presentation choices,
// not geographic classifications. A boundary value always lands in the upper
// bucket.
//
// # Popups
//
// Each marker popup is a small HTML fragment holding the volcano name (linked
// to a web search for "<name> volcano") and its elevation. See [FormatPopup].
// Names are trusted reference data and are substituted without escaping.
package domain
