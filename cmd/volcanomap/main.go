// Command volcanomap renders volcano locations and country populations into a
// single self-contained HTML map.
//
// Usage:
//
//	volcanomap --volcanoes data/volcanoes-data.csv --countries data/countries-geodata.json --output map.html
//	volcanomap --serve :8080
//	volcanomap validate
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	csvadapter "github.com/couchcryptid/volcano-map/internal/adapter/csv"
	"github.com/couchcryptid/volcano-map/internal/adapter/geojson"
	"github.com/couchcryptid/volcano-map/internal/adapter/httpadapter"
	"github.com/couchcryptid/volcano-map/internal/adapter/leaflet"
	"github.com/couchcryptid/volcano-map/internal/adapter/tiles"
	"github.com/couchcryptid/volcano-map/internal/config"
	"github.com/couchcryptid/volcano-map/internal/observability"
	"github.com/couchcryptid/volcano-map/internal/pipeline"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(observability.NewMetrics()).Execute(); err != nil {
		slog.Error("volcanomap failed", "error", err)
		os.Exit(1)
	}
}

// options holds flag values that override the environment.
type options struct {
	output    string
	volcanoes string
	countries string
	tiles     string
	serve     string
}

// apply copies every flag the user set onto cfg.
func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputPath = o.output
	}
	if flags.Changed("volcanoes") {
		cfg.VolcanoDataPath = o.volcanoes
	}
	if flags.Changed("countries") {
		cfg.CountryDataPath = o.countries
	}
	if flags.Changed("tiles") {
		cfg.TileStyle = o.tiles
	}
	if flags.Changed("serve") {
		cfg.ServeAddr = o.serve
	}
}

func newRootCmd(metrics *observability.Metrics) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "volcanomap",
		Short: "Render volcanoes and country populations as an interactive map",
		Long: `volcanomap reads a volcano CSV and a country GeoJSON file and writes one
self-contained HTML page with two toggleable layers: elevation-colored volcano
markers and population-colored country polygons.

Settings come from the environment (MAP_ZOOM, TILE_STYLE, ...); flags override them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts, metrics)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.volcanoes, "volcanoes", "", "Volcano CSV path (VOLCANO_DATA_PATH)")
	cmd.PersistentFlags().StringVar(&opts.countries, "countries", "", "Country GeoJSON path (COUNTRY_DATA_PATH)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output HTML path (OUTPUT_PATH)")
	cmd.Flags().StringVar(&opts.tiles, "tiles", "", "Base tile style name or {z}/{x}/{y} URL template (TILE_STYLE)")
	cmd.Flags().StringVar(&opts.serve, "serve", "", "Serve the map on this address after saving (SERVE_ADDR)")

	cmd.AddCommand(newValidateCmd(opts))

	return cmd
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	opts.apply(cmd, cfg)
	return cfg, observability.NewLogger(cmd.OutOrStdout(), cfg.LogLevel, cfg.LogFormat), nil
}

func runBuild(cmd *cobra.Command, opts *options, metrics *observability.Metrics) error {
	cfg, logger, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	var prober *tiles.Prober
	if cfg.TileProbe {
		prober = tiles.NewProber(cfg.TileProbeTimeout, metrics, logger)
		logger.Info("tile probe enabled", "timeout", cfg.TileProbeTimeout)
	}

	builder := pipeline.New(
		tiles.NewResolver(cfg.TileAttribution, prober, logger),
		csvadapter.NewVolcanoReader(),
		geojson.NewCountryReader(),
		leaflet.NewRenderer(),
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	doc, err := builder.Build(ctx, cfg.Map())
	if err != nil {
		return err
	}
	if err := builder.Save(doc, cfg.OutputPath); err != nil {
		return err
	}

	if cfg.ServeAddr == "" {
		return nil
	}
	return serve(ctx, cfg, metrics, logger)
}

// serve publishes the saved page and blocks until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) error {
	page, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("read saved map: %w", err)
	}

	srv := httpadapter.NewServer(cfg.ServeAddr, metrics, logger)
	srv.Publish(page)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
