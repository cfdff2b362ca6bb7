// Package csv loads volcano records from a header-driven CSV file.
package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/volcano-map/internal/adapter/textfile"
	"github.com/couchcryptid/volcano-map/internal/domain"
)

// Required column names.
const (
	ColName      = "NAME"
	ColElevation = "ELEV"
	ColLat       = "LAT"
	ColLon       = "LON"
)

// naValues are cell contents treated as missing, matching what spreadsheet
// and dataframe exports write for empty numeric cells. Keys are lowercase.
var naValues = map[string]struct{}{
	"": {}, "#n/a": {}, "#n/a n/a": {}, "#na": {}, "-1.#ind": {}, "-1.#qnan": {},
	"-nan": {}, "1.#ind": {}, "1.#qnan": {}, "<na>": {}, "n/a": {},
	"na": {}, "null": {}, "nan": {}, "none": {},
}

// VolcanoReader implements pipeline.VolcanoSource.
type VolcanoReader struct{}

// NewVolcanoReader creates a VolcanoReader.
func NewVolcanoReader() *VolcanoReader {
	return &VolcanoReader{}
}

// LoadVolcanoes reads every row of the CSV at path, in file order.
// Any failure is returned as a *domain.DataSourceError.
func (r *VolcanoReader) LoadVolcanoes(path string) ([]domain.VolcanoRecord, error) {
	f, err := textfile.Open(path)
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: err}
	}
	defer f.Close()

	records, err := parseVolcanoes(f)
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: err}
	}
	return records, nil
}

func parseVolcanoes(src io.Reader) ([]domain.VolcanoRecord, error) {
	reader := stdcsv.NewReader(src)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.VolcanoRecord //nolint:prealloc // row count unknown until EOF
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

type columns struct {
	name, elev, lat, lon int
}

func indexColumns(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	lookup := func(name string) (int, error) {
		i, ok := idx[name]
		if !ok {
			return 0, fmt.Errorf("missing required column %q", name)
		}
		return i, nil
	}

	var c columns
	var err error
	if c.name, err = lookup(ColName); err != nil {
		return c, err
	}
	if c.elev, err = lookup(ColElevation); err != nil {
		return c, err
	}
	if c.lat, err = lookup(ColLat); err != nil {
		return c, err
	}
	if c.lon, err = lookup(ColLon); err != nil {
		return c, err
	}
	return c, nil
}

func parseRow(row []string, c columns) (domain.VolcanoRecord, error) {
	var rec domain.VolcanoRecord

	if name := strings.TrimSpace(row[c.name]); !isNA(name) {
		rec.Name = &name
	}

	elev, err := parseOptionalFloat(row[c.elev])
	if err != nil {
		return rec, fmt.Errorf("invalid %s: %w", ColElevation, err)
	}
	rec.Elevation = elev

	if rec.Lat, err = parseRequiredFloat(row[c.lat]); err != nil {
		return rec, fmt.Errorf("invalid %s: %w", ColLat, err)
	}
	if rec.Lon, err = parseRequiredFloat(row[c.lon]); err != nil {
		return rec, fmt.Errorf("invalid %s: %w", ColLon, err)
	}
	return rec, nil
}

func isNA(s string) bool {
	_, ok := naValues[strings.ToLower(s)]
	return ok
}

// parseOptionalFloat returns nil for NA and NaN cells. Infinities are
// rejected.
func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if isNA(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	if math.IsInf(v, 0) {
		return nil, fmt.Errorf("value %q is not finite", s)
	}
	return &v, nil
}

func parseRequiredFloat(s string) (float64, error) {
	v, err := parseOptionalFloat(s)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, errors.New("value is required")
	}
	return *v, nil
}
