package datalayer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/osmview/osmview/internal/metrics"
	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/mapview"
)

// Advisory describes an admission-control rejection: the requested fetch
// area exceeded the configured maximum, or the server's element-count cap
// truncated the result. It carries the user's two ways out.
type Advisory struct {
	LayerID string
	// Area is the rejected fetch area, square degrees.
	Area float64
	// Limit is the configured maximum area.
	Limit float64
	// Hide removes the layer.
	Hide func()
	// LoadAnyway bypasses the caps for exactly the next fetch.
	LoadAnyway func()
}

// AdvisoryFunc receives admission-control advisories for display.
type AdvisoryFunc func(Advisory)

// Navigator routes to a feature's detail view on click; the only point
// where a controller calls into the surrounding application.
type Navigator func(path string)

// Options configures a viewport data controller.
type Options struct {
	Limits     Limits
	OnAdvisory AdvisoryFunc
	Navigate   Navigator
}

// fetchResult is what a layer-specific fetch hands back to the shared
// loader: renderable features, the server's truncation signal, and an
// optional bookkeeping hook run under the loader lock on success.
type fetchResult struct {
	fc      *geojson.FeatureCollection
	tooMuch bool
	after   func()
}

// loader is the state machine shared by the data and notes controllers:
// enabled/disabled mirroring layer lifecycle, a single in-flight fetch
// with synchronous cancellation replacement, reload-avoidance, admission
// control, and hover/popup feature state.
//
// All state transitions hold mu. A completing fetch re-checks its
// generation under mu before applying, so a stale response can never
// overwrite newer data: last viewport wins.
type loader struct {
	mu      sync.Mutex
	engine  *mapview.Engine
	layerID string
	limits  Limits
	advise  AdvisoryFunc

	// layer-specific behavior
	areaLimit   float64
	countLimit  int
	fetch       func(ctx context.Context, b geobox.Bounds, limit int) (*fetchResult, error)
	popupText   func(featureID int64) string
	featurePath func(featureID int64) string
	navigate    Navigator

	enabled bool
	fetched *geobox.Bounds
	cancel  context.CancelFunc
	gen     uint64
	noLimit bool

	hovered    int64
	hoveredSet bool
	popupTimer *time.Timer

	unsubs []func()
}

// attach wires the loader to engine lifecycle events, viewport move-end,
// and pointer interaction on the given drawable ids.
func (l *loader) attach(pointerLayers []string) {
	surface := l.engine.Surface()
	l.unsubs = append(l.unsubs,
		l.engine.Subscribe(l.onLifecycle),
		surface.OnMoveEnd(func(geobox.Bounds) { l.maybeFetch(false) }),
	)
	if len(pointerLayers) > 0 {
		l.unsubs = append(l.unsubs,
			surface.OnPointerMove(pointerLayers, l.pointerMove),
			surface.OnPointerLeave(pointerLayers, l.pointerLeave),
			surface.OnClick(pointerLayers, l.click),
		)
	}
}

func (l *loader) onLifecycle(ev mapview.Event) {
	if ev.LayerID != l.layerID {
		return
	}
	if ev.Added {
		l.enable()
	} else {
		l.disable()
	}
}

func (l *loader) enable() {
	l.mu.Lock()
	if l.enabled {
		l.mu.Unlock()
		return
	}
	l.enabled = true
	l.mu.Unlock()
	l.maybeFetch(false)
}

func (l *loader) disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++ // orphan any completion still in flight
	l.fetched = nil
	l.noLimit = false
	l.clearHoverLocked()
	l.clearDataLocked()
}

// Reload forces a fetch, skipping reload-avoidance. Used when the
// underlying data changed, e.g. after a note edit.
func (l *loader) Reload() {
	l.maybeFetch(true)
}

// Enabled reports whether the controller's layer is currently added.
func (l *loader) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// FetchedBounds returns the viewport of the last successful fetch.
func (l *loader) FetchedBounds() (geobox.Bounds, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fetched == nil {
		return geobox.Bounds{}, false
	}
	return *l.fetched, true
}

// Close detaches the controller from the engine and surface.
func (l *loader) Close() {
	for _, unsub := range l.unsubs {
		unsub()
	}
	l.unsubs = nil
	l.disable()
}

// maybeFetch runs the admission pipeline and, when a fetch is warranted,
// replaces the in-flight cancellation token and starts the request.
func (l *loader) maybeFetch(force bool) {
	l.mu.Lock()
	if !l.enabled {
		l.mu.Unlock()
		return
	}
	view := l.engine.Surface().GetBounds()

	// Reload-avoidance: panning slightly inside already-loaded data does
	// not re-trigger network traffic.
	if !force && l.fetched != nil {
		overlap := geobox.Size(geobox.Intersection(*l.fetched, view))
		larger := math.Max(geobox.Size(*l.fetched), geobox.Size(view))
		if larger > 0 && overlap/larger > l.limits.ReloadThreshold {
			l.mu.Unlock()
			metrics.Fetches.WithLabelValues(l.layerID, "skipped").Inc()
			return
		}
	}

	// Fetch the padded viewport so the next small pan is already covered.
	box := view.Pad(l.limits.FetchPadRatio)
	noLimit := l.noLimit
	l.noLimit = false

	if !noLimit {
		if area := geobox.Size(box); area > l.areaLimit {
			l.fetched = nil
			l.clearDataLocked()
			l.mu.Unlock()
			metrics.Fetches.WithLabelValues(l.layerID, "rejected").Inc()
			l.sendAdvisory(area)
			return
		}
	}

	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.gen++
	gen := l.gen
	limit := l.countLimit
	if noLimit {
		limit = 0
	}
	l.mu.Unlock()

	go l.run(ctx, gen, view, box, limit, noLimit)
}

func (l *loader) run(ctx context.Context, gen uint64, view, box geobox.Bounds, limit int, noLimit bool) {
	res, err := l.fetch(ctx, box, limit)

	l.mu.Lock()
	if gen != l.gen {
		// A newer fetch superseded this one while it was in flight.
		l.mu.Unlock()
		metrics.Fetches.WithLabelValues(l.layerID, "aborted").Inc()
		return
	}
	l.cancel = nil

	if err != nil {
		if errors.Is(err, context.Canceled) {
			l.mu.Unlock()
			slog.Debug("fetch superseded", "layer", l.layerID)
			metrics.Fetches.WithLabelValues(l.layerID, "aborted").Inc()
			return
		}
		// Clear rather than keep stale or partial data; the layer stays
		// enabled so the next viewport move retries.
		l.clearDataLocked()
		l.mu.Unlock()
		slog.Warn("fetch failed, clearing layer", "layer", l.layerID, "error", err)
		metrics.Fetches.WithLabelValues(l.layerID, "error").Inc()
		return
	}

	if res.tooMuch && !noLimit {
		// The server's cap truncated the result; showing a partial layer
		// would be misleading.
		l.fetched = nil
		l.clearDataLocked()
		l.mu.Unlock()
		metrics.Fetches.WithLabelValues(l.layerID, "rejected").Inc()
		l.sendAdvisory(geobox.Size(box))
		return
	}

	if res.after != nil {
		res.after()
	}
	// Record the unpadded viewport: the reload-avoidance ratio compares
	// like with like, while the padded fetch region still means the next
	// small pan renders from data already on hand.
	b := view
	l.fetched = &b
	l.engine.Surface().SetSourceData(l.layerID, res.fc)
	l.mu.Unlock()
	metrics.Fetches.WithLabelValues(l.layerID, "ok").Inc()
}

func (l *loader) clearDataLocked() {
	l.engine.Surface().SetSourceData(l.layerID, geojson.NewFeatureCollection())
}

func (l *loader) sendAdvisory(area float64) {
	metrics.Advisories.WithLabelValues(l.layerID).Inc()
	adv := Advisory{
		LayerID: l.layerID,
		Area:    area,
		Limit:   l.areaLimit,
		Hide: func() {
			l.engine.RemoveLayer(l.layerID)
		},
		LoadAnyway: func() {
			l.mu.Lock()
			l.noLimit = true
			l.mu.Unlock()
			l.maybeFetch(true)
		},
	}
	if l.advise == nil {
		slog.Warn("fetch rejected by admission control",
			"layer", l.layerID, "area", area, "limit", l.areaLimit)
		return
	}
	l.advise(adv)
}

func (l *loader) pointerMove(ev mapview.PointerEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hoveredSet && l.hovered == ev.FeatureID {
		return
	}
	l.clearHoverLocked()
	l.hovered = ev.FeatureID
	l.hoveredSet = true

	surface := l.engine.Surface()
	surface.SetFeatureState(l.layerID, ev.FeatureID, map[string]any{"hover": true})

	id := ev.FeatureID
	l.popupTimer = time.AfterFunc(l.limits.PopupDelay, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// The pointer may have moved on while the timer was pending.
		if !l.hoveredSet || l.hovered != id {
			return
		}
		text := ""
		if l.popupText != nil {
			text = l.popupText(id)
		}
		if text == "" {
			return
		}
		l.engine.Surface().OpenPopup(ev.Lon, ev.Lat, text)
	})
}

func (l *loader) pointerLeave() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearHoverLocked()
}

func (l *loader) clearHoverLocked() {
	if l.popupTimer != nil {
		l.popupTimer.Stop()
		l.popupTimer = nil
	}
	if l.hoveredSet {
		surface := l.engine.Surface()
		surface.RemoveFeatureState(l.layerID, l.hovered)
		surface.ClosePopup()
		l.hoveredSet = false
	}
}

func (l *loader) click(ev mapview.PointerEvent) {
	if l.navigate == nil || l.featurePath == nil {
		return
	}
	l.navigate(l.featurePath(ev.FeatureID))
}
