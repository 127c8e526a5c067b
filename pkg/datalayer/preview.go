package datalayer

import (
	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/layer"
	"github.com/osmview/osmview/pkg/mapview"
	"github.com/osmview/osmview/pkg/osm"
)

// PreviewLayer renders a fixed element set once, for previewing pending
// changes. Unlike the viewport controllers it does no viewport
// synchronization and no admission control: the caller already has the
// elements in hand.
type PreviewLayer struct {
	engine *mapview.Engine
	fit    geobox.FitOptions
}

// NewPreviewLayer creates a preview controller on the engine.
func NewPreviewLayer(engine *mapview.Engine) *PreviewLayer {
	return &PreviewLayer{
		engine: engine,
		// A preview only needs to be on screen, not fully framed.
		fit: geobox.FitOptions{Policy: geobox.FitIntersects},
	}
}

// Show resolves and renders the elements, bringing them into view when
// they are not already visible.
func (p *PreviewLayer) Show(elements []osm.Element) {
	graph := osm.Resolve(elements)
	fc := graph.FeatureCollection()

	p.engine.AddLayer(layer.IDPreview)
	p.engine.Surface().SetSourceData(layer.IDPreview, fc)

	if bound, ok := osm.FeatureBound(fc); ok {
		mapview.FitViewport(p.engine.Surface(), geobox.FromOrb(bound), p.fit)
	}
}

// Clear removes the preview layer.
func (p *PreviewLayer) Clear() {
	p.engine.RemoveLayer(layer.IDPreview)
}
