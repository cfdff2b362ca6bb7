// Package leaflet serializes a map document into a self-contained HTML page
// driven by Leaflet. Library assets load from public CDNs.
package leaflet

import (
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/volcano-map/internal/domain"
	"github.com/google/uuid"
)

// Popup iframe size in pixels.
const (
	popupWidth  = 180
	popupHeight = 80
)

//go:embed map.html.tmpl
var pageTemplate string

var page = template.Must(template.New("map").Parse(pageTemplate))

// Renderer implements pipeline.Renderer.
type Renderer struct {
	newID func() string
}

// NewRenderer creates a Renderer that gives each page a random element id.
func NewRenderer() *Renderer {
	return &Renderer{newID: randomID}
}

// Render writes doc to w as a complete HTML page.
func (r *Renderer) Render(w io.Writer, doc domain.MapDocument) error {
	if err := page.Execute(w, r.view(doc)); err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	return nil
}

type pageView struct {
	ID           string
	GeneratedAt  string
	Center       domain.LatLon
	Zoom         int
	Tiles        domain.TileLayer
	Layers       []layerView
	LayerControl bool
}

type layerView struct {
	Name     string
	Features []featureView
}

type featureView struct {
	Marker  *markerView
	Polygon *polygonView
}

type markerView struct {
	Lat   float64
	Lon   float64
	Color domain.VisualCategory
	Popup string
}

type polygonView struct {
	Geometry  json.RawMessage
	FillColor domain.VisualCategory
}

func (r *Renderer) view(doc domain.MapDocument) pageView {
	v := pageView{
		ID:           r.newID(),
		Center:       doc.Center,
		Zoom:         doc.Zoom,
		Tiles:        doc.Tiles,
		LayerControl: doc.LayerControl,
		Layers:       make([]layerView, 0, len(doc.Layers)),
	}
	if !doc.GeneratedAt.IsZero() {
		v.GeneratedAt = doc.GeneratedAt.UTC().Format(time.RFC3339)
	}

	for _, l := range doc.Layers {
		lv := layerView{Name: l.Name, Features: make([]featureView, 0, len(l.Features))}
		for _, f := range l.Features {
			switch {
			case f.Marker != nil:
				lv.Features = append(lv.Features, featureView{Marker: &markerView{
					Lat:   f.Marker.Position.Lat,
					Lon:   f.Marker.Position.Lon,
					Color: f.Marker.Category,
					Popup: popupIFrame(f.Marker.PopupHTML),
				}})
			case f.Polygon != nil:
				lv.Features = append(lv.Features, featureView{Polygon: &polygonView{
					Geometry:  f.Polygon.Geometry,
					FillColor: f.Polygon.FillColor,
				}})
			}
		}
		v.Layers = append(v.Layers, lv)
	}
	return v
}

// popupIFrame embeds html as a base64 data URI so its <style> block cannot
// leak into the host page.
func popupIFrame(html string) string {
	src := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(html))
	return fmt.Sprintf(`<iframe src="%s" width="%d" height="%d" style="border:none !important;"></iframe>`,
		src, popupWidth, popupHeight)
}

func randomID() string {
	return "map_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
