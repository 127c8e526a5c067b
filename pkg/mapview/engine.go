package mapview

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/osmview/osmview/pkg/layer"
)

// Preference keys.
const (
	prefBase          = "base"
	prefOpacityPrefix = "opacity:"
)

// Event is a layer lifecycle notification.
type Event struct {
	Added   bool
	LayerID string
	Config  layer.Config
}

type observer struct {
	id int
	fn func(Event)
}

// Engine composes drawable layers on a Surface from registry
// configurations. Add and remove are synchronous and form a critical
// section with respect to the surface's layer-order list.
type Engine struct {
	mu       sync.Mutex
	surface  Surface
	registry *layer.Registry
	prefs    PrefStore

	// drawableTypes maps a drawable id to its geometry/render type, needed
	// to pick the right *-opacity paint key later.
	drawableTypes map[string]string

	observers []observer
	nextObs   int

	base string // active base layer id, "" when none
	dark bool
}

// New wires an engine to a surface, a layer registry and a preference
// store.
func New(surface Surface, registry *layer.Registry, prefs PrefStore) *Engine {
	return &Engine{
		surface:       surface,
		registry:      registry,
		prefs:         prefs,
		drawableTypes: make(map[string]string),
	}
}

// Surface returns the rendering surface.
func (e *Engine) Surface() Surface { return e.surface }

// Registry returns the layer registry.
func (e *Engine) Registry() *layer.Registry { return e.registry }

// Subscribe registers a lifecycle observer and returns its unsubscribe
// handle. Observers are invoked in subscription order.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers = append(e.observers, observer{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, o := range e.observers {
			if o.id == id {
				e.observers = append(e.observers[:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

// emit invokes observers on a snapshot taken under the lock, so an observer
// may subscribe, unsubscribe or call back into the engine.
func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), len(e.observers))
	for i, o := range e.observers {
		fns[i] = o.fn
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// AddLayer adds the layer's drawables to the surface in priority position.
// An unknown reference is reported and ignored; this path is reachable
// from user-controlled UI toggles and must never fail hard.
func (e *Engine) AddLayer(ref string) {
	cfg, ok := e.registry.Resolve(ref)
	if !ok {
		slog.Warn("add of unknown layer ignored", "layer", ref)
		return
	}

	e.mu.Lock()
	if len(e.drawablesOf(cfg.ID)) > 0 {
		e.mu.Unlock()
		slog.Debug("layer already added", "layer", cfg.ID)
		return
	}

	switch src := cfg.Source.(type) {
	case layer.RasterSource:
		e.addRasterLocked(cfg, src)
	case layer.StyleSource:
		e.addStyleLocked(cfg, src)
	case layer.GeoJSONSource:
		e.addGeoJSONLocked(cfg)
	default:
		e.mu.Unlock()
		slog.Warn("layer has no usable source", "layer", cfg.ID)
		return
	}
	if cfg.Base {
		e.base = cfg.ID
	}
	e.applyStoredOpacityLocked(cfg)
	e.mu.Unlock()

	e.emit(Event{Added: true, LayerID: cfg.ID, Config: cfg})
}

// RemoveLayer removes every drawable whose namespace prefix matches the
// layer, releasing composite-source resources when any removal occurred.
// Removing a layer that was never added is a no-op.
func (e *Engine) RemoveLayer(ref string) {
	cfg, ok := e.registry.Resolve(ref)
	if !ok {
		slog.Warn("remove of unknown layer ignored", "layer", ref)
		return
	}

	e.mu.Lock()
	ids := e.drawablesOf(cfg.ID)
	for _, id := range ids {
		e.surface.RemoveLayer(id)
		delete(e.drawableTypes, id)
	}
	if len(ids) > 0 {
		e.releaseSourcesLocked(cfg)
		if cfg.Base && e.base == cfg.ID {
			e.base = ""
		}
	}
	e.mu.Unlock()

	if len(ids) == 0 {
		slog.Debug("remove of layer that was never added", "layer", cfg.ID)
		return
	}
	e.emit(Event{Added: false, LayerID: cfg.ID, Config: cfg})
}

// SetBaseLayer swaps the active base layer; base layers are mutually
// exclusive. The choice is persisted.
func (e *Engine) SetBaseLayer(ref string) {
	cfg, ok := e.registry.Resolve(ref)
	if !ok || !cfg.Base {
		slog.Warn("not a base layer", "layer", ref)
		return
	}
	e.mu.Lock()
	prev := e.base
	e.mu.Unlock()
	if prev == cfg.ID {
		return
	}
	if prev != "" {
		e.RemoveLayer(prev)
	}
	e.AddLayer(cfg.ID)
	e.prefs.Set(prefBase, cfg.ID)
}

// ActiveBase returns the currently added base layer id.
func (e *Engine) ActiveBase() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.base
}

// StoredBase returns the persisted base layer preference, falling back to
// the registry default.
func (e *Engine) StoredBase() (string, bool) {
	if id, ok := e.prefs.Get(prefBase); ok {
		if _, known := e.registry.Resolve(id); known {
			return id, true
		}
	}
	def, ok := e.registry.Default()
	return def.ID, ok
}

// SetLayerOpacity applies and persists an opacity override for every
// drawable of the layer, using the paint key appropriate to its type.
func (e *Engine) SetLayerOpacity(ref string, opacity float64) {
	cfg, ok := e.registry.Resolve(ref)
	if !ok {
		slog.Warn("opacity for unknown layer ignored", "layer", ref)
		return
	}
	e.mu.Lock()
	e.setOpacityLocked(cfg, opacity)
	e.mu.Unlock()
	e.prefs.Set(prefOpacityPrefix+cfg.ID, strconv.FormatFloat(opacity, 'f', -1, 64))
}

// SetColorScheme switches between the light and dark presentation. The
// active base layer is re-added when it carries an alternate dark tile set.
func (e *Engine) SetColorScheme(dark bool) {
	e.mu.Lock()
	if e.dark == dark {
		e.mu.Unlock()
		return
	}
	e.dark = dark
	base := e.base
	e.mu.Unlock()

	if base == "" {
		return
	}
	cfg, ok := e.registry.Get(base)
	if !ok || len(cfg.DarkTiles) == 0 {
		return
	}
	e.RemoveLayer(base)
	e.AddLayer(base)
}

// drawablesOf returns the surface drawables owned by a layer, in draw
// order. Caller holds the lock.
func (e *Engine) drawablesOf(layerID string) []string {
	var out []string
	for _, id := range e.surface.LayersOrder() {
		if id == layerID || strings.HasPrefix(id, layerID+":") {
			out = append(out, id)
		}
	}
	return out
}

// insertBeforeLocked finds the first existing drawable whose registry
// priority exceeds the new layer's priority; inserting before it keeps the
// draw order consistent with declared priority regardless of add/remove
// order. Drawables not owned by a registered layer are skipped.
func (e *Engine) insertBeforeLocked(priority int) string {
	for _, id := range e.surface.LayersOrder() {
		p, ok := e.registry.PriorityOf(id)
		if ok && p > priority {
			return id
		}
	}
	return ""
}

func (e *Engine) addDrawableLocked(d Drawable, before string) {
	e.surface.AddLayerBefore(d, before)
	e.drawableTypes[d.ID] = d.Type
}

func (e *Engine) addRasterLocked(cfg layer.Config, src layer.RasterSource) {
	tiles := src.Tiles
	if e.dark && len(cfg.DarkTiles) > 0 {
		tiles = cfg.DarkTiles
	}
	spec := map[string]any{"type": "raster", "tiles": tiles}
	if src.TileSize > 0 {
		spec["tileSize"] = src.TileSize
	}
	if cfg.MaxZoom > 0 {
		spec["maxzoom"] = cfg.MaxZoom
	}
	if cfg.Attribution != "" {
		spec["attribution"] = cfg.Attribution
	}
	e.surface.AddSource(cfg.ID, spec)
	e.addDrawableLocked(Drawable{
		ID:     cfg.ID,
		Type:   "raster",
		Source: cfg.ID,
		Paint:  cfg.Paint,
		Layout: cfg.Layout,
	}, e.insertBeforeLocked(cfg.Priority))
}

func (e *Engine) addGeoJSONLocked(cfg layer.Config) {
	e.surface.AddSource(cfg.ID, map[string]any{
		"type": "geojson",
		"data": geojson.NewFeatureCollection(),
	})
	before := e.insertBeforeLocked(cfg.Priority)
	for _, t := range cfg.Types {
		id := cfg.ID
		if len(cfg.Types) > 1 {
			id = cfg.ID + ":" + string(t)
		}
		e.addDrawableLocked(Drawable{
			ID:     id,
			Type:   string(t),
			Source: cfg.ID,
			Paint:  scopedProperties(cfg.Paint, t),
			Layout: scopedProperties(cfg.Layout, t),
		}, before)
	}
}

// addStyleLocked imports a composite vector style, re-parenting every
// sub-source and sub-layer under the layer id so that multiple composite
// layers never collide.
func (e *Engine) addStyleLocked(cfg layer.Config, src layer.StyleSource) {
	style := src.Style
	if style == nil {
		slog.Warn("style layer without style document", "layer", cfg.ID)
		return
	}
	if style.Glyphs != "" {
		e.surface.SetGlyphs(style.Glyphs)
	}
	if style.Sprite != "" {
		e.surface.AddSprite(cfg.ID, style.Sprite)
	}

	names := make([]string, 0, len(style.Sources))
	for name := range style.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.surface.AddSource(cfg.ID+":"+name, style.Sources[name])
	}

	before := e.insertBeforeLocked(cfg.Priority)
	for _, sl := range style.Layers {
		e.addDrawableLocked(Drawable{
			ID:          cfg.ID + ":" + sl.ID,
			Type:        sl.Type,
			Source:      cfg.ID + ":" + sl.Source,
			SourceLayer: sl.SourceLayer,
			Paint:       sl.Paint,
			Layout:      sl.Layout,
			Filter:      sl.Filter,
		}, before)
	}
}

func (e *Engine) releaseSourcesLocked(cfg layer.Config) {
	switch src := cfg.Source.(type) {
	case layer.StyleSource:
		e.surface.RemoveSprite(cfg.ID)
		if src.Style != nil {
			for name := range src.Style.Sources {
				e.surface.RemoveSource(cfg.ID + ":" + name)
			}
		}
	default:
		e.surface.RemoveSource(cfg.ID)
	}
}

func (e *Engine) applyStoredOpacityLocked(cfg layer.Config) {
	raw, ok := e.prefs.Get(prefOpacityPrefix + cfg.ID)
	if !ok {
		return
	}
	opacity, err := strconv.ParseFloat(raw, 64)
	if err != nil || opacity < 0 || opacity > 1 {
		return
	}
	e.setOpacityLocked(cfg, opacity)
}

func (e *Engine) setOpacityLocked(cfg layer.Config, opacity float64) {
	for _, id := range e.drawablesOf(cfg.ID) {
		key, ok := opacityKey(e.drawableTypes[id])
		if !ok {
			continue
		}
		e.surface.SetPaintProperty(id, key, opacity)
	}
}

func opacityKey(drawType string) (string, bool) {
	switch drawType {
	case "raster":
		return "raster-opacity", true
	case "fill":
		return "fill-opacity", true
	case "line":
		return "line-opacity", true
	case "circle":
		return "circle-opacity", true
	case "symbol":
		return "icon-opacity", true
	}
	return "", false
}

// scopedProperties filters style properties down to those whose key is
// legitimately scoped to the geometry type: circle-* reaches circle, and
// symbol additionally accepts icon-* and text-*.
func scopedProperties(props map[string]any, t layer.GeomType) map[string]any {
	if len(props) == 0 {
		return nil
	}
	prefixes := []string{string(t) + "-"}
	if t == layer.GeomSymbol {
		prefixes = append(prefixes, "icon-", "text-")
	}
	out := make(map[string]any)
	for k, v := range props {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				out[k] = v
				break
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
