package geobox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldFitContainedLargeTarget(t *testing.T) {
	view := Bounds{0, 0, 10, 10}
	target := Bounds{2, 2, 8, 8}
	assert.False(t, ShouldFit(view, target, FitOptions{}))
}

func TestShouldFitTinyTarget(t *testing.T) {
	view := Bounds{0, 0, 10, 10}
	// Fully contained but far below MinProportion of the viewport area.
	target := Bounds{5, 5, 5.001, 5.001}
	assert.True(t, ShouldFit(view, target, FitOptions{}))
}

func TestShouldFitOffscreenTarget(t *testing.T) {
	view := Bounds{0, 0, 10, 10}
	target := Bounds{50, 50, 60, 60}
	assert.True(t, ShouldFit(view, target, FitOptions{}))
	// Offscreen wins regardless of proportion.
	assert.True(t, ShouldFit(view, Bounds{50, 50, 50.0001, 50.0001}, FitOptions{}))
}

func TestShouldFitPartialOverlap(t *testing.T) {
	view := Bounds{0, 0, 10, 10}
	target := Bounds{8, 8, 12, 12}
	// Not contained, so the default policy fits.
	assert.True(t, ShouldFit(view, target, FitOptions{}))
	// Intersects policy accepts a partially visible target.
	assert.False(t, ShouldFit(view, target, FitOptions{Policy: FitIntersects}))
}

func TestShouldFitIntersectsPolicyOffscreen(t *testing.T) {
	view := Bounds{0, 0, 10, 10}
	target := Bounds{20, 20, 30, 30}
	assert.True(t, ShouldFit(view, target, FitOptions{Policy: FitIntersects}))
}
