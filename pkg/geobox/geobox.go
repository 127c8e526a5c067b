// Package geobox implements axis-aligned geographic bounding boxes in
// degrees, with arithmetic that stays correct across the ±180° anti-meridian.
//
// A box whose MinLon is greater than its MaxLon encodes a crossing of the
// anti-meridian. All operations normalize ("adjust") before comparing, so
// callers never need to split a crossing box themselves.
package geobox

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Epsilon is the tolerance for overlap and containment tests, in degrees.
// Coordinates upstream are rounded to 7 decimal places, so anything closer
// than this is the same edge.
const Epsilon = 1e-7

// MaxLatitude is the usable latitude range of the web-mercator surface.
// Padding clamps to it so a padded box never projects past the map.
const MaxLatitude = 85

// ErrBadBBox reports a malformed "minLon,minLat,maxLon,maxLat" string.
var ErrBadBBox = errors.New("invalid bbox")

// Bounds is a geographic bounding box in degrees.
// MinLat <= MaxLat always holds; MinLon > MaxLon encodes an anti-meridian
// crossing.
type Bounds struct {
	MinLon float64 `json:"minLon"`
	MinLat float64 `json:"minLat"`
	MaxLon float64 `json:"maxLon"`
	MaxLat float64 `json:"maxLat"`
}

// adjusted returns b with MaxLon shifted into MinLon's frame, so that
// MinLon <= MaxLon holds and plain min/max comparisons are valid.
func (b Bounds) adjusted() Bounds {
	if b.MaxLon < b.MinLon {
		b.MaxLon += 360
	}
	return b
}

// Wrapped reports whether b crosses the anti-meridian.
func (b Bounds) Wrapped() bool {
	return b.MaxLon < b.MinLon
}

// wrapLon normalizes a longitude into [-180, 180].
func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func clampLat(lat float64) float64 {
	return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
}

// lonAlign shifts bb by a multiple of 360° into the frame where it overlaps
// aa the most. Needed when one box is expressed across the anti-meridian and
// the other is not.
func lonAlign(aa, bb Bounds) Bounds {
	best := bb
	bestOverlap := math.Inf(-1)
	for _, shift := range []float64{-360, 0, 360} {
		overlap := math.Min(aa.MaxLon, bb.MaxLon+shift) - math.Max(aa.MinLon, bb.MinLon+shift)
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = Bounds{bb.MinLon + shift, bb.MinLat, bb.MaxLon + shift, bb.MaxLat}
		}
	}
	return best
}

// Size returns the area of b in square degrees.
func Size(b Bounds) float64 {
	bb := b.adjusted()
	return (bb.MaxLon - bb.MinLon) * (bb.MaxLat - bb.MinLat)
}

// Intersection returns the overlap of a and b. When the boxes do not
// overlap it returns a zero-area box anchored at a's min corner; it never
// fails.
func Intersection(a, b Bounds) Bounds {
	aa := a.adjusted()
	bb := lonAlign(aa, b.adjusted())

	minLon := math.Max(aa.MinLon, bb.MinLon)
	maxLon := math.Min(aa.MaxLon, bb.MaxLon)
	minLat := math.Max(aa.MinLat, bb.MinLat)
	maxLat := math.Min(aa.MaxLat, bb.MaxLat)
	if maxLon < minLon || maxLat < minLat {
		return Bounds{a.MinLon, a.MinLat, a.MinLon, a.MinLat}
	}
	return Bounds{wrapLon(minLon), minLat, wrapLon(maxLon), maxLat}
}

// Intersects reports whether a and b overlap. Boxes that merely touch along
// an edge (within Epsilon) do not intersect.
func Intersects(a, b Bounds) bool {
	aa := a.adjusted()
	bb := lonAlign(aa, b.adjusted())
	return aa.MinLon+Epsilon < bb.MaxLon && bb.MinLon+Epsilon < aa.MaxLon &&
		aa.MinLat+Epsilon < bb.MaxLat && bb.MinLat+Epsilon < aa.MaxLat
}

// Contains reports whether outer fully contains inner, with Epsilon
// tolerance on every edge.
func Contains(outer, inner Bounds) bool {
	oo := outer.adjusted()
	ii := lonAlign(oo, inner.adjusted())
	return ii.MinLon >= oo.MinLon-Epsilon && ii.MaxLon <= oo.MaxLon+Epsilon &&
		ii.MinLat >= oo.MinLat-Epsilon && ii.MaxLat <= oo.MaxLat+Epsilon
}

// Pad grows b by ratio of its own width and height on each axis. A negative
// ratio shrinks. Latitude is clamped to ±85° so the result stays on the
// usable map surface.
func (b Bounds) Pad(ratio float64) Bounds {
	bb := b.adjusted()
	dLon := (bb.MaxLon - bb.MinLon) * ratio
	dLat := (bb.MaxLat - bb.MinLat) * ratio
	return Bounds{
		MinLon: wrapLon(bb.MinLon - dLon),
		MinLat: clampLat(bb.MinLat - dLat),
		MaxLon: wrapLon(bb.MaxLon + dLon),
		MaxLat: clampLat(bb.MaxLat + dLat),
	}
}

// Union merges b into a component-wise. A nil a returns b unchanged, which
// lets callers accumulate bounds across many features without a seed value.
func Union(a *Bounds, b Bounds) Bounds {
	if a == nil {
		return b
	}
	return Bounds{
		MinLon: math.Min(a.MinLon, b.MinLon),
		MinLat: math.Min(a.MinLat, b.MinLat),
		MaxLon: math.Max(a.MaxLon, b.MaxLon),
		MaxLat: math.Max(a.MaxLat, b.MaxLat),
	}
}

// Center returns the midpoint of b, correct across the anti-meridian.
func (b Bounds) Center() (lon, lat float64) {
	bb := b.adjusted()
	return wrapLon((bb.MinLon + bb.MaxLon) / 2), (bb.MinLat + bb.MaxLat) / 2
}

// String renders b in the wire form "minLon,minLat,maxLon,maxLat".
func (b Bounds) String() string {
	parts := []string{
		strconv.FormatFloat(b.MinLon, 'f', -1, 64),
		strconv.FormatFloat(b.MinLat, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLon, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLat, 'f', -1, 64),
	}
	return strings.Join(parts, ",")
}

// ParseBBox parses the wire form "minLon,minLat,maxLon,maxLat". Longitudes
// are normalized into [-180, 180]; a crossing parses into MinLon > MaxLon
// rather than splitting. Latitudes outside [-90, 90] or an inverted latitude
// pair are rejected.
func ParseBBox(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("%w: want 4 comma-separated numbers, got %d", ErrBadBBox, len(parts))
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: %q is not a number", ErrBadBBox, p)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Bounds{}, fmt.Errorf("%w: %q is not finite", ErrBadBBox, p)
		}
		vals[i] = v
	}
	b := Bounds{
		MinLon: wrapLon(vals[0]),
		MinLat: vals[1],
		MaxLon: wrapLon(vals[2]),
		MaxLat: vals[3],
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return Bounds{}, fmt.Errorf("%w: latitude out of range", ErrBadBBox)
	}
	if b.MinLat > b.MaxLat {
		return Bounds{}, fmt.Errorf("%w: minLat > maxLat", ErrBadBBox)
	}
	return b, nil
}

// FromOrb converts an orb.Bound to Bounds.
func FromOrb(o orb.Bound) Bounds {
	return Bounds{
		MinLon: o.Min[0],
		MinLat: o.Min[1],
		MaxLon: o.Max[0],
		MaxLat: o.Max[1],
	}
}

// Orb converts b to an orb.Bound. A crossing box is expressed in the
// adjusted frame (MaxLon > 180) since orb requires Min <= Max.
func (b Bounds) Orb() orb.Bound {
	bb := b.adjusted()
	return orb.Bound{
		Min: orb.Point{bb.MinLon, bb.MinLat},
		Max: orb.Point{bb.MaxLon, bb.MaxLat},
	}
}
