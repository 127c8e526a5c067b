// Package mapview drives a map rendering surface: it composes drawable
// layers from registry configurations in priority order, manages their
// lifecycle, and notifies observers so viewport data controllers can start
// and stop with their layers. The package never renders pixels itself; all
// drawing goes through the Surface collaborator.
package mapview

import (
	"github.com/paulmach/orb/geojson"

	"github.com/osmview/osmview/pkg/geobox"
)

// Drawable is one concrete drawable layer handed to the surface.
type Drawable struct {
	ID          string
	Type        string // fill | line | circle | symbol | raster
	Source      string
	SourceLayer string
	Paint       map[string]any
	Layout      map[string]any
	Filter      []any
}

// FitBoundsOptions tunes a camera fit.
type FitBoundsOptions struct {
	// MaxZoom caps how far the camera zooms in while fitting.
	MaxZoom float64
}

// PointerEvent is a pointer interaction with a rendered feature.
type PointerEvent struct {
	LayerID   string
	FeatureID int64
	Lon, Lat  float64
}

// Surface is the rendering collaborator: any MapLibre-compatible binding.
// Implementations must not call back into the engine synchronously from
// these methods; event callbacks are delivered on the caller's goroutine.
type Surface interface {
	AddSource(id string, spec map[string]any)
	RemoveSource(id string)
	SetSourceData(id string, fc *geojson.FeatureCollection)

	// AddLayerBefore inserts a drawable before the layer with beforeID,
	// or appends when beforeID is empty.
	AddLayerBefore(d Drawable, beforeID string)
	RemoveLayer(id string)
	// LayersOrder returns current drawable ids in draw order.
	LayersOrder() []string

	SetPaintProperty(layerID, key string, value any)
	SetLayoutProperty(layerID, key string, value any)

	GetBounds() geobox.Bounds
	GetZoom() float64
	FitBounds(b geobox.Bounds, opts FitBoundsOptions)

	SetFeatureState(sourceID string, featureID int64, state map[string]any)
	RemoveFeatureState(sourceID string, featureID int64)

	SetGlyphs(url string)
	AddSprite(id, url string)
	RemoveSprite(id string)

	OpenPopup(lon, lat float64, text string)
	ClosePopup()

	// Event subscriptions return an unsubscribe handle.
	OnMoveEnd(fn func(geobox.Bounds)) (unsubscribe func())
	OnPointerMove(layerIDs []string, fn func(PointerEvent)) (unsubscribe func())
	OnPointerLeave(layerIDs []string, fn func()) (unsubscribe func())
	OnClick(layerIDs []string, fn func(PointerEvent)) (unsubscribe func())
}

// PrefStore is the persisted preference collaborator: a plain key to string
// map. Implementations live in internal/prefstore.
type PrefStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
}
