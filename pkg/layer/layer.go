// Package layer defines map layer configurations and the registry that maps
// a layer identifier to its data source, render sub-layers, style and draw
// priority. The registry is populated once at startup and read-only after
// the application's initialization phase.
package layer

// GeomType is a render sub-layer geometry kind.
type GeomType string

const (
	GeomFill   GeomType = "fill"
	GeomLine   GeomType = "line"
	GeomCircle GeomType = "circle"
	GeomSymbol GeomType = "symbol"
)

// Source describes where a layer's data comes from. It is a closed set:
// RasterSource, StyleSource or GeoJSONSource.
type Source interface {
	sourceType() string
}

// RasterSource is a tiled raster source.
type RasterSource struct {
	Tiles    []string `json:"tiles" yaml:"tiles"`
	TileSize int      `json:"tileSize,omitempty" yaml:"tileSize,omitempty"`
}

func (RasterSource) sourceType() string { return "raster" }

// StyleSource is a composite vector style: its own sources, glyphs, sprite
// and sub-layers, all re-parented under the owning layer id at add time.
type StyleSource struct {
	Style *StyleDoc `json:"style" yaml:"style"`
}

func (StyleSource) sourceType() string { return "style" }

// GeoJSONSource is computed geometry; its data is set later by a viewport
// data controller.
type GeoJSONSource struct{}

func (GeoJSONSource) sourceType() string { return "geojson" }

// StyleDoc is the subset of a vector style document the engine re-parents.
type StyleDoc struct {
	Glyphs  string                    `json:"glyphs,omitempty" yaml:"glyphs,omitempty"`
	Sprite  string                    `json:"sprite,omitempty" yaml:"sprite,omitempty"`
	Sources map[string]map[string]any `json:"sources" yaml:"sources"`
	Layers  []StyleLayer              `json:"layers" yaml:"layers"`
}

// StyleLayer is a single sub-layer declaration inside a StyleDoc.
type StyleLayer struct {
	ID          string         `json:"id" yaml:"id"`
	Type        string         `json:"type" yaml:"type"`
	Source      string         `json:"source" yaml:"source"`
	SourceLayer string         `json:"source-layer,omitempty" yaml:"source-layer,omitempty"`
	Paint       map[string]any `json:"paint,omitempty" yaml:"paint,omitempty"`
	Layout      map[string]any `json:"layout,omitempty" yaml:"layout,omitempty"`
	Filter      []any          `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// Config is a static layer configuration. Immutable after registration;
// the only live mutation is paint/layout overrides applied at add time.
type Config struct {
	ID   string `json:"id" doc:"Canonical layer identifier" example:"standard"`
	Name string `json:"name" doc:"Display name" example:"Standard"`

	// Code is the compact single-character form used in shared URLs.
	// Empty marks the default base layer.
	Code string `json:"code,omitempty" doc:"Compact URL code" example:"C"`

	// Aliases are legacy identifiers that still resolve to this layer.
	Aliases []string `json:"aliases,omitempty" doc:"Legacy identifiers"`

	// Base layers are mutually exclusive; exactly one is active at a time.
	Base bool `json:"base,omitempty" doc:"Whether this is a base layer"`

	// Priority orders drawing, ascending; lower draws first.
	Priority int `json:"priority" doc:"Draw priority" example:"130"`

	Source Source `json:"-" yaml:"-"`

	// Types declares one concrete drawable per geometry kind for
	// GeoJSON-sourced layers.
	Types []GeomType `json:"types,omitempty" doc:"Render sub-layer geometry types"`

	Paint  map[string]any `json:"paint,omitempty"`
	Layout map[string]any `json:"layout,omitempty"`

	// DarkTiles is an alternate raster tile set used under the dark
	// color scheme, when available.
	DarkTiles []string `json:"darkTiles,omitempty"`

	MaxZoom     int    `json:"maxZoom,omitempty" doc:"Maximum tile zoom" example:"19"`
	Attribution string `json:"attribution,omitempty"`
}
