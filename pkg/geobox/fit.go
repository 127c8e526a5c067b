package geobox

// FitPolicy selects the visibility test used by ShouldFit.
type FitPolicy int

const (
	// FitContains treats the target as visible only when the viewport
	// fully contains it.
	FitContains FitPolicy = iota
	// FitIntersects treats the target as visible when it overlaps the
	// viewport at all.
	FitIntersects
)

// FitOptions configures the camera-fit decision.
type FitOptions struct {
	// PadRatio pads the target before fitting, so the framed result has
	// breathing room.
	PadRatio float64
	// MaxZoom caps how far the camera may zoom in when fitting; the
	// effective cap never drops below the current zoom, so a fit never
	// zooms out.
	MaxZoom float64
	// MinProportion is the fraction of the viewport area below which an
	// on-screen target is treated as not actually visible.
	MinProportion float64
	Policy        FitPolicy
}

// DefaultFitOptions returns the standard fit tuning.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		PadRatio:      0.2,
		MaxZoom:       18,
		MinProportion: 0.00035,
		Policy:        FitContains,
	}
}

// withDefaults fills zero-valued fields from DefaultFitOptions.
func (o FitOptions) withDefaults() FitOptions {
	def := DefaultFitOptions()
	if o.PadRatio == 0 {
		o.PadRatio = def.PadRatio
	}
	if o.MaxZoom == 0 {
		o.MaxZoom = def.MaxZoom
	}
	if o.MinProportion == 0 {
		o.MinProportion = def.MinProportion
	}
	return o
}

// ShouldFit decides whether the camera needs to re-frame to bring target
// into view. Two tiers: a target that is offscreen under the configured
// policy always triggers a fit; a target that is on-screen but occupies
// less than MinProportion of the viewport area also triggers a fit, since
// it is present but imperceptible. Otherwise the camera stays put.
func ShouldFit(view, target Bounds, opts FitOptions) bool {
	opts = opts.withDefaults()

	offscreen := !Contains(view, target)
	if opts.Policy == FitIntersects {
		offscreen = !Intersects(view, target)
	}
	if offscreen {
		return true
	}
	return Size(target) < opts.MinProportion*Size(view)
}
