package main

import (
	"log/slog"

	csvadapter "github.com/couchcryptid/volcano-map/internal/adapter/csv"
	"github.com/couchcryptid/volcano-map/internal/adapter/geojson"
	"github.com/couchcryptid/volcano-map/internal/domain"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check both data sources and report records per color bucket",
		Long: `Load the volcano CSV and the country GeoJSON exactly as a build would and log
how many records fall into each color bucket. Exits non-zero if either file is
missing or malformed. No map is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}
}

func runValidate(cmd *cobra.Command, opts *options) error {
	cfg, logger, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	volcanoes, err := csvadapter.NewVolcanoReader().LoadVolcanoes(cfg.VolcanoDataPath)
	if err != nil {
		return err
	}
	elevations := make(categoryCounts)
	for _, v := range volcanoes {
		elevations[domain.ClassifyElevation(v.Elevation)]++
	}
	elevations.log(logger, "volcanoes valid", cfg.VolcanoDataPath, len(volcanoes))

	countries, err := geojson.NewCountryReader().LoadCountries(cfg.CountryDataPath)
	if err != nil {
		return err
	}
	populations := make(categoryCounts)
	for _, c := range countries {
		populations[domain.ClassifyPopulation(c.Population)]++
	}
	populations.log(logger, "countries valid", cfg.CountryDataPath, len(countries))

	return nil
}

type categoryCounts map[domain.VisualCategory]int

func (c categoryCounts) log(logger *slog.Logger, msg, path string, total int) {
	logger.Info(msg,
		"path", path,
		"total", total,
		string(domain.CategoryGreen), c[domain.CategoryGreen],
		string(domain.CategoryOrange), c[domain.CategoryOrange],
		string(domain.CategoryRed), c[domain.CategoryRed],
		string(domain.CategoryGray), c[domain.CategoryGray],
	)
}
