package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/volcano-map/internal/domain"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	CenterLat         float64
	CenterLon         float64
	Zoom              int
	TileStyle         string
	FallbackTileStyle string
	TileAttribution   string
	VolcanoDataPath   string
	CountryDataPath   string
	OutputPath        string

	// Tile reachability probe.
	TileProbe        bool
	TileProbeTimeout time.Duration

	// Preview server, disabled when ServeAddr is empty.
	ServeAddr       string
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	centerLat, err := parseFloat("MAP_CENTER_LAT", "0")
	if err != nil {
		return nil, err
	}
	centerLon, err := parseFloat("MAP_CENTER_LON", "0")
	if err != nil {
		return nil, err
	}

	zoom, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAP_ZOOM", "3"))
	if err != nil || zoom < 0 {
		return nil, errors.New("invalid MAP_ZOOM")
	}

	probeTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("TILE_PROBE_TIMEOUT", "5s"))
	if err != nil || probeTimeout <= 0 {
		return nil, errors.New("invalid TILE_PROBE_TIMEOUT")
	}

	tileProbe, err := parseBool("TILE_PROBE")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CenterLat:         centerLat,
		CenterLon:         centerLon,
		Zoom:              zoom,
		TileStyle:         sharedcfg.EnvOrDefault("TILE_STYLE", "Cartodb Positron"),
		FallbackTileStyle: sharedcfg.EnvOrDefault("TILE_FALLBACK_STYLE", "OpenStreetMap"),
		TileAttribution:   os.Getenv("TILE_ATTRIBUTION"),
		VolcanoDataPath:   sharedcfg.EnvOrDefault("VOLCANO_DATA_PATH", "data/volcanoes-data.csv"),
		CountryDataPath:   sharedcfg.EnvOrDefault("COUNTRY_DATA_PATH", "data/countries-geodata.json"),
		OutputPath:        sharedcfg.EnvOrDefault("OUTPUT_PATH", "map.html"),
		TileProbe:         tileProbe,
		TileProbeTimeout:  probeTimeout,
		ServeAddr:         os.Getenv("SERVE_ADDR"),
		ShutdownTimeout:   shutdownTimeout,
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
	}

	if err := cfg.Map().Validate(); err != nil {
		return nil, fmt.Errorf("invalid map config: %w", err)
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}

	return cfg, nil
}

// Map returns the immutable map settings the builder consumes.
func (c *Config) Map() domain.MapConfig {
	return domain.MapConfig{
		Center:            domain.LatLon{Lat: c.CenterLat, Lon: c.CenterLon},
		Zoom:              c.Zoom,
		PrimaryTileStyle:  c.TileStyle,
		FallbackTileStyle: c.FallbackTileStyle,
		VolcanoSourcePath: c.VolcanoDataPath,
		CountrySourcePath: c.CountryDataPath,
	}
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
