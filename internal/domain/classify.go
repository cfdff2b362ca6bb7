package domain

import "math"

// VisualCategory is the discrete color bucket a record is drawn with.
type VisualCategory string

const (
	CategoryGray   VisualCategory = "gray"
	CategoryGreen  VisualCategory = "green"
	CategoryOrange VisualCategory = "orange"
	CategoryRed    VisualCategory = "red"
)

// Bucket boundaries. Each boundary value belongs to the upper bucket.
const (
	elevationLow  = 1000.0
	elevationHigh = 2000.0

	populationLow  = 10_000_000.0
	populationHigh = 20_000_000.0
)

// ClassifyElevation maps an elevation in meters to a marker category.
// A nil or non-finite elevation is always gray.
func ClassifyElevation(elev *float64) VisualCategory {
	if !knownElevation(elev) {
		return CategoryGray
	}
	switch e := *elev; {
	case e < elevationLow:
		return CategoryGreen
	case e < elevationHigh:
		return CategoryOrange
	default:
		return CategoryRed
	}
}

// ClassifyPopulation maps a country population to a polygon fill category.
func ClassifyPopulation(pop float64) VisualCategory {
	switch {
	case pop < populationLow:
		return CategoryGreen
	case pop < populationHigh:
		return CategoryOrange
	default:
		return CategoryRed
	}
}

// knownElevation reports whether elev holds a finite value.
func knownElevation(elev *float64) bool {
	return elev != nil && !math.IsNaN(*elev) && !math.IsInf(*elev, 0)
}
