package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/volcano-map/internal/domain"
	"github.com/couchcryptid/volcano-map/internal/observability"
)

// TileResolver turns a tile style name into a usable base layer.
type TileResolver interface {
	Resolve(ctx context.Context, style string) (domain.TileLayer, error)
}

// VolcanoSource loads volcano rows from a tabular file.
type VolcanoSource interface {
	LoadVolcanoes(path string) ([]domain.VolcanoRecord, error)
}

// CountrySource loads country features from a GeoJSON file.
type CountrySource interface {
	LoadCountries(path string) ([]domain.CountryFeature, error)
}

// Renderer serializes a map document.
type Renderer interface {
	Render(w io.Writer, doc domain.MapDocument) error
}

// Builder assembles a map document from its data sources and writes it out.
type Builder struct {
	tiles     TileResolver
	volcanoes VolcanoSource
	countries CountrySource
	renderer  Renderer
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Builder with the given collaborators and observability.
func New(t TileResolver, v VolcanoSource, c CountrySource, r Renderer, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{
		tiles:     t,
		volcanoes: v,
		countries: c,
		renderer:  r,
		logger:    logger,
		metrics:   metrics,
	}
}

// Build resolves the base tiles, generates the volcano and country layers in
// that order and enables the layer control. Any data source failure aborts
// the build.
func (b *Builder) Build(ctx context.Context, cfg domain.MapConfig) (domain.MapDocument, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return domain.MapDocument{}, fmt.Errorf("invalid map config: %w", err)
	}

	tiles, err := b.resolveTiles(ctx, cfg.PrimaryTileStyle, cfg.FallbackTileStyle)
	if err != nil {
		return domain.MapDocument{}, err
	}

	doc := domain.MapDocument{
		Center: cfg.Center,
		Zoom:   cfg.Zoom,
		Tiles:  tiles,
	}

	volcanoes, err := b.BuildVolcanoLayer(cfg.VolcanoSourcePath)
	if err != nil {
		return domain.MapDocument{}, err
	}
	doc.Layers = append(doc.Layers, volcanoes)

	countries, err := b.BuildCountryLayer(cfg.CountrySourcePath)
	if err != nil {
		return domain.MapDocument{}, err
	}
	doc.Layers = append(doc.Layers, countries)

	doc.LayerControl = true
	doc.GeneratedAt = domain.Now()

	markers, _ := volcanoes.Counts()
	_, polygons := countries.Counts()
	b.metrics.MarkersRendered.Add(float64(markers))
	b.metrics.PolygonsRendered.Add(float64(polygons))
	b.metrics.BuildDuration.Observe(time.Since(start).Seconds())

	b.logger.Info("map built",
		"tiles", tiles.Name,
		"markers", markers,
		"polygons", polygons,
	)
	return doc, nil
}

// resolveTiles tries the primary style and, on any failure, exactly one
// fallback style.
func (b *Builder) resolveTiles(ctx context.Context, primary, fallback string) (domain.TileLayer, error) {
	tiles, err := b.tiles.Resolve(ctx, primary)
	if err == nil {
		return tiles, nil
	}
	if fallback == "" {
		return domain.TileLayer{}, fmt.Errorf("resolve tiles %q: %w", primary, err)
	}

	b.logger.Warn("tile style unavailable, using fallback",
		"style", primary,
		"fallback", fallback,
		"error", err,
	)
	b.metrics.TileFallbacks.Inc()

	tiles, err = b.tiles.Resolve(ctx, fallback)
	if err != nil {
		return domain.TileLayer{}, fmt.Errorf("resolve fallback tiles %q: %w", fallback, err)
	}
	return tiles, nil
}

// Save writes doc to path, creating or truncating the file.
func (b *Builder) Save(doc domain.MapDocument, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	if err := b.renderer.Render(f, doc); err != nil {
		return err
	}

	b.metrics.DocumentsSaved.Inc()
	b.logger.Info("map saved", "path", path)
	return nil
}
