package tiles

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/volcano-map/internal/domain"
	"github.com/couchcryptid/volcano-map/internal/observability"
)

const customMaxZoom = 18

// Resolver implements pipeline.TileResolver.
type Resolver struct {
	customAttribution string
	prober            *Prober
	logger            *slog.Logger
}

// NewResolver creates a Resolver. customAttribution is required for raw URL
// template styles. Pass a nil prober to skip the reachability check.
func NewResolver(customAttribution string, prober *Prober, logger *slog.Logger) *Resolver {
	return &Resolver{
		customAttribution: customAttribution,
		prober:            prober,
		logger:            logger,
	}
}

// Resolve turns a style name or URL template into a tile layer. When probing
// is enabled the tile server must also answer for tile 0/0/0.
func (r *Resolver) Resolve(ctx context.Context, style string) (domain.TileLayer, error) {
	var layer domain.TileLayer
	if IsURLTemplate(style) {
		if strings.TrimSpace(r.customAttribution) == "" {
			return domain.TileLayer{}, ErrMissingAttribution
		}
		layer = domain.TileLayer{
			Name:        "Custom",
			URLTemplate: style,
			Attribution: r.customAttribution,
			MaxZoom:     customMaxZoom,
		}
	} else {
		var err error
		if layer, err = Lookup(style); err != nil {
			return domain.TileLayer{}, err
		}
	}

	if r.prober != nil {
		if err := r.prober.Probe(ctx, layer); err != nil {
			return domain.TileLayer{}, err
		}
	}

	r.logger.Debug("tile style resolved", "style", style, "url", layer.URLTemplate)
	return layer, nil
}

// Prober checks that a tile server answers.
type Prober struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewProber creates a Prober with the given request timeout.
func NewProber(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Prober {
	return &Prober{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Probe fetches tile z=0/x=0/y=0 and fails unless the server returns 200.
func (p *Prober) Probe(ctx context.Context, layer domain.TileLayer) error {
	u := TileURL(layer, 0, 0, 0)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	req.Header.Set("User-Agent", "volcano-map/1.0")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	p.metrics.TileProbeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.TileProbeRequests.WithLabelValues("error").Inc()
		return fmt.Errorf("probe %s: %w", layer.Name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		p.metrics.TileProbeRequests.WithLabelValues("status").Inc()
		return fmt.Errorf("probe %s: tile server returned status %d", layer.Name, resp.StatusCode)
	}

	p.metrics.TileProbeRequests.WithLabelValues("success").Inc()
	p.logger.Debug("tile probe ok", "style", layer.Name, "url", u)
	return nil
}

// TileURL expands a layer's URL template for one tile. The first subdomain is
// used for {s} and {r} is dropped (no retina tiles).
func TileURL(layer domain.TileLayer, z, x, y int) string {
	sub := ""
	if len(layer.Subdomains) > 0 {
		sub = layer.Subdomains[0]
	}
	r := strings.NewReplacer(
		"{s}", sub,
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
		"{r}", "",
	)
	return r.Replace(layer.URLTemplate)
}
