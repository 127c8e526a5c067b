package mapview

import (
	"fmt"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/osmview/osmview/pkg/geobox"
)

// Headless is an in-memory Surface: it keeps the full layer/source/feature
// state a real rendering binding would hold, without drawing anything. It
// backs the engine tests and the `osmview watch` session.
type Headless struct {
	mu sync.Mutex

	bounds geobox.Bounds
	zoom   float64

	order      []string
	drawables  map[string]Drawable
	sources    map[string]map[string]any
	sourceData map[string]*geojson.FeatureCollection
	paint      map[string]map[string]any
	layout     map[string]map[string]any
	features   map[string]map[int64]map[string]any
	glyphs     string
	sprites    map[string]string

	popupOpen bool
	popupText string

	nextSub      int
	moveEnd      map[int]func(geobox.Bounds)
	pointerMove  map[int]subscription[func(PointerEvent)]
	pointerLeave map[int]subscription[func()]
	click        map[int]subscription[func(PointerEvent)]

	// calls records every mutating surface call in order; read it through
	// CallLog.
	calls []string
}

type subscription[F any] struct {
	layers []string
	fn     F
}

// NewHeadless creates a headless surface showing the given viewport.
func NewHeadless(view geobox.Bounds, zoom float64) *Headless {
	return &Headless{
		bounds:       view,
		zoom:         zoom,
		drawables:    make(map[string]Drawable),
		sources:      make(map[string]map[string]any),
		sourceData:   make(map[string]*geojson.FeatureCollection),
		paint:        make(map[string]map[string]any),
		layout:       make(map[string]map[string]any),
		features:     make(map[string]map[int64]map[string]any),
		sprites:      make(map[string]string),
		moveEnd:      make(map[int]func(geobox.Bounds)),
		pointerMove:  make(map[int]subscription[func(PointerEvent)]),
		pointerLeave: make(map[int]subscription[func()]),
		click:        make(map[int]subscription[func(PointerEvent)]),
	}
}

func (h *Headless) record(format string, args ...any) {
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
}

func (h *Headless) AddSource(id string, spec map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sources[id] = spec
	h.record("addSource %s", id)
}

func (h *Headless) RemoveSource(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sources, id)
	delete(h.sourceData, id)
	delete(h.features, id)
	h.record("removeSource %s", id)
}

func (h *Headless) SetSourceData(id string, fc *geojson.FeatureCollection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sourceData[id] = fc
	n := 0
	if fc != nil {
		n = len(fc.Features)
	}
	h.record("setSourceData %s features=%d", id, n)
}

func (h *Headless) AddLayerBefore(d Drawable, beforeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drawables[d.ID] = d
	inserted := false
	for i, id := range h.order {
		if id == beforeID {
			h.order = append(h.order[:i], append([]string{d.ID}, h.order[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		h.order = append(h.order, d.ID)
	}
	h.record("addLayer %s before=%s", d.ID, beforeID)
}

func (h *Headless) RemoveLayer(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.drawables, id)
	delete(h.paint, id)
	delete(h.layout, id)
	for i, l := range h.order {
		if l == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.record("removeLayer %s", id)
}

func (h *Headless) LayersOrder() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

func (h *Headless) SetPaintProperty(layerID, key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.paint[layerID] == nil {
		h.paint[layerID] = make(map[string]any)
	}
	h.paint[layerID][key] = value
	h.record("setPaintProperty %s %s", layerID, key)
}

func (h *Headless) SetLayoutProperty(layerID, key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.layout[layerID] == nil {
		h.layout[layerID] = make(map[string]any)
	}
	h.layout[layerID][key] = value
	h.record("setLayoutProperty %s %s", layerID, key)
}

func (h *Headless) GetBounds() geobox.Bounds {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bounds
}

func (h *Headless) GetZoom() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.zoom
}

// FitBounds frames the given bounds and fires move-end, matching the real
// binding's behavior where a programmatic fit ends a camera movement.
func (h *Headless) FitBounds(b geobox.Bounds, opts FitBoundsOptions) {
	h.mu.Lock()
	h.bounds = b
	if opts.MaxZoom > 0 && h.zoom > opts.MaxZoom {
		h.zoom = opts.MaxZoom
	}
	h.record("fitBounds %s", b)
	h.mu.Unlock()
	h.fireMoveEnd()
}

func (h *Headless) SetFeatureState(sourceID string, featureID int64, state map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.features[sourceID] == nil {
		h.features[sourceID] = make(map[int64]map[string]any)
	}
	h.features[sourceID][featureID] = state
	h.record("setFeatureState %s %d", sourceID, featureID)
}

func (h *Headless) RemoveFeatureState(sourceID string, featureID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.features[sourceID], featureID)
	h.record("removeFeatureState %s %d", sourceID, featureID)
}

func (h *Headless) SetGlyphs(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.glyphs = url
	h.record("setGlyphs")
}

func (h *Headless) AddSprite(id, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sprites[id] = url
	h.record("addSprite %s", id)
}

func (h *Headless) RemoveSprite(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sprites, id)
	h.record("removeSprite %s", id)
}

func (h *Headless) OpenPopup(lon, lat float64, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.popupOpen = true
	h.popupText = text
	h.record("openPopup %q", text)
}

func (h *Headless) ClosePopup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.popupOpen = false
	h.popupText = ""
	h.record("closePopup")
}

func (h *Headless) OnMoveEnd(fn func(geobox.Bounds)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.moveEnd[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.moveEnd, id)
	}
}

func (h *Headless) OnPointerMove(layerIDs []string, fn func(PointerEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.pointerMove[id] = subscription[func(PointerEvent)]{layers: layerIDs, fn: fn}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.pointerMove, id)
	}
}

func (h *Headless) OnPointerLeave(layerIDs []string, fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.pointerLeave[id] = subscription[func()]{layers: layerIDs, fn: fn}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.pointerLeave, id)
	}
}

func (h *Headless) OnClick(layerIDs []string, fn func(PointerEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.click[id] = subscription[func(PointerEvent)]{layers: layerIDs, fn: fn}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.click, id)
	}
}

// PanTo moves the viewport and fires move-end, simulating a user pan.
func (h *Headless) PanTo(b geobox.Bounds) {
	h.mu.Lock()
	h.bounds = b
	h.mu.Unlock()
	h.fireMoveEnd()
}

func (h *Headless) fireMoveEnd() {
	h.mu.Lock()
	b := h.bounds
	fns := make([]func(geobox.Bounds), 0, len(h.moveEnd))
	for _, fn := range h.moveEnd {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(b)
	}
}

// EmitPointerMove delivers a pointer-move to subscribers watching the
// event's layer.
func (h *Headless) EmitPointerMove(ev PointerEvent) {
	for _, fn := range h.pointerSubs(ev.LayerID) {
		fn(ev)
	}
}

// EmitClick delivers a click to subscribers watching the event's layer.
func (h *Headless) EmitClick(ev PointerEvent) {
	h.mu.Lock()
	var fns []func(PointerEvent)
	for _, sub := range h.click {
		if watches(sub.layers, ev.LayerID) {
			fns = append(fns, sub.fn)
		}
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// EmitPointerLeave delivers a pointer-leave to subscribers watching the
// layer.
func (h *Headless) EmitPointerLeave(layerID string) {
	h.mu.Lock()
	var fns []func()
	for _, sub := range h.pointerLeave {
		if watches(sub.layers, layerID) {
			fns = append(fns, sub.fn)
		}
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (h *Headless) pointerSubs(layerID string) []func(PointerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var fns []func(PointerEvent)
	for _, sub := range h.pointerMove {
		if watches(sub.layers, layerID) {
			fns = append(fns, sub.fn)
		}
	}
	return fns
}

func watches(layers []string, id string) bool {
	for _, l := range layers {
		if l == id {
			return true
		}
	}
	return false
}

// SourceData returns the last feature collection set on a source.
func (h *Headless) SourceData(id string) *geojson.FeatureCollection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sourceData[id]
}

// PaintProperty returns a paint property applied to a drawable.
func (h *Headless) PaintProperty(layerID, key string) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.paint[layerID][key]
	return v, ok
}

// Drawable returns a drawable by id.
func (h *Headless) Drawable(id string) (Drawable, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.drawables[id]
	return d, ok
}

// FeatureState returns the feature state set on a source feature.
func (h *Headless) FeatureState(sourceID string, featureID int64) (map[string]any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.features[sourceID][featureID]
	return s, ok
}

// HasSource reports whether a source is present.
func (h *Headless) HasSource(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sources[id]
	return ok
}

// HasSprite reports whether a sprite is loaded.
func (h *Headless) HasSprite(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sprites[id]
	return ok
}

// Popup returns the open popup text, if any.
func (h *Headless) Popup() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.popupText, h.popupOpen
}

// CallLog returns a copy of the recorded call log.
func (h *Headless) CallLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.calls))
	copy(out, h.calls)
	return out
}
