package mapview

import (
	"math"

	"github.com/osmview/osmview/pkg/geobox"
)

// FitViewport re-frames the camera to bring target into view when the fit
// heuristic says it is needed, and reports whether a fit happened. The
// target is padded before fitting and the zoom cap never drops below the
// current zoom, so a fit never zooms the camera out.
func FitViewport(s Surface, target geobox.Bounds, opts geobox.FitOptions) bool {
	if !geobox.ShouldFit(s.GetBounds(), target, opts) {
		return false
	}
	def := geobox.DefaultFitOptions()
	padRatio := opts.PadRatio
	if padRatio == 0 {
		padRatio = def.PadRatio
	}
	maxZoom := opts.MaxZoom
	if maxZoom == 0 {
		maxZoom = def.MaxZoom
	}
	s.FitBounds(target.Pad(padRatio), FitBoundsOptions{
		MaxZoom: math.Max(s.GetZoom(), maxZoom),
	})
	return true
}
