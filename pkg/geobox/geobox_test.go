package geobox

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleBoxes = []Bounds{
	{0, 0, 1, 1},
	{-10, -10, 10, 10},
	{0.5, 0.5, 2, 2},
	{5, 5, 6, 6},
	{170, -10, -170, 10},  // crosses the anti-meridian
	{175, 40, -175, 50},   // crosses the anti-meridian
	{-180, -85, 180, 85},  // whole world
	{-0.1, 51.4, 0.1, 51.6},
}

func TestSizeAntiMeridian(t *testing.T) {
	b := Bounds{170, -10, -170, 10}
	require.True(t, b.Wrapped())
	assert.InDelta(t, 400, Size(b), 1e-9) // 20° wide, 20° tall
}

func TestSizePositive(t *testing.T) {
	for _, b := range sampleBoxes {
		assert.Greater(t, Size(b), 0.0, "size of %v", b)
	}
}

func TestIntersectionSymmetric(t *testing.T) {
	for _, a := range sampleBoxes {
		for _, b := range sampleBoxes {
			sab := Size(Intersection(a, b))
			sba := Size(Intersection(b, a))
			assert.InDelta(t, sab, sba, 1e-9, "a=%v b=%v", a, b)
			assert.LessOrEqual(t, sab, math.Min(Size(a), Size(b))+1e-9, "a=%v b=%v", a, b)
		}
	}
}

func TestIntersectionDisjoint(t *testing.T) {
	a := Bounds{0, 0, 1, 1}
	b := Bounds{5, 5, 6, 6}
	got := Intersection(a, b)
	assert.Equal(t, 0.0, Size(got))
	assert.Equal(t, a.MinLon, got.MinLon)
	assert.Equal(t, a.MinLat, got.MinLat)
}

func TestIntersectionAcrossAntiMeridian(t *testing.T) {
	a := Bounds{170, -10, -170, 10}
	b := Bounds{-180, -5, -175, 5} // entirely west of the line, inside a
	got := Intersection(a, b)
	assert.InDelta(t, 50, Size(got), 1e-9) // 5° wide, 10° tall
}

func TestIntersects(t *testing.T) {
	a := Bounds{0, 0, 1, 1}
	assert.True(t, Intersects(a, Bounds{0.5, 0.5, 2, 2}))
	assert.False(t, Intersects(a, Bounds{5, 5, 6, 6}))
	// Touching edges do not overlap.
	assert.False(t, Intersects(a, Bounds{1, 0, 2, 1}))
	// Overlap across the anti-meridian.
	assert.True(t, Intersects(Bounds{170, -10, -170, 10}, Bounds{-179, -1, -175, 1}))
}

func TestContains(t *testing.T) {
	outer := Bounds{0, 0, 10, 10}
	assert.True(t, Contains(outer, Bounds{1, 1, 2, 2}))
	assert.True(t, Contains(outer, outer))
	assert.False(t, Contains(outer, Bounds{-1, 1, 2, 2}))
	assert.True(t, Contains(Bounds{170, -10, -170, 10}, Bounds{175, -5, -175, 5}))
}

func TestPadZeroIsIdentity(t *testing.T) {
	for _, b := range sampleBoxes {
		assert.Equal(t, b, b.Pad(0), "box %v", b)
	}
}

func TestPadRoundTrip(t *testing.T) {
	b := Bounds{-0.1, 51.4, 0.1, 51.6}
	r := 0.05
	got := b.Pad(r).Pad(-r / (1 + 2*r)) // inverse ratio of a symmetric pad
	assert.InDelta(t, b.MinLon, got.MinLon, 1e-9)
	assert.InDelta(t, b.MinLat, got.MinLat, 1e-9)
	assert.InDelta(t, b.MaxLon, got.MaxLon, 1e-9)
	assert.InDelta(t, b.MaxLat, got.MaxLat, 1e-9)
}

func TestPadClampsLatitude(t *testing.T) {
	b := Bounds{0, 80, 10, 84}
	got := b.Pad(1)
	assert.Equal(t, 85.0, got.MaxLat)
}

func TestPadWrapsLongitude(t *testing.T) {
	b := Bounds{-179, 0, -170, 10}
	got := b.Pad(0.5)
	// Min edge pushed past -180 wraps to the eastern hemisphere.
	assert.True(t, got.Wrapped())
	assert.InDelta(t, 176.5, got.MinLon, 1e-9)
}

func TestUnion(t *testing.T) {
	b := Bounds{0, 0, 1, 1}
	assert.Equal(t, b, Union(nil, b))

	a := Bounds{-1, -1, 0.5, 0.5}
	got := Union(&a, b)
	assert.Equal(t, Bounds{-1, -1, 1, 1}, got)
}

func TestCenter(t *testing.T) {
	lon, lat := Bounds{0, 0, 10, 20}.Center()
	assert.Equal(t, 5.0, lon)
	assert.Equal(t, 10.0, lat)

	lon, _ = Bounds{170, 0, -170, 10}.Center()
	assert.InDelta(t, 180, math.Abs(lon), 1e-9)
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("-0.1,51.4,0.1,51.6")
	require.NoError(t, err)
	assert.Equal(t, Bounds{-0.1, 51.4, 0.1, 51.6}, b)

	// Round trip through the wire form.
	b2, err := ParseBBox(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, b2)
}

func TestParseBBoxErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"1,2,3",
		"1,2,3,4,5",
		"a,2,3,4",
		"0,-91,1,1",
		"0,2,1,1", // minLat > maxLat
		"0,0,1,95",
	} {
		_, err := ParseBBox(s)
		require.ErrorIs(t, err, ErrBadBBox, "input %q", s)
	}
}

func TestParseBBoxNormalizesLongitude(t *testing.T) {
	b, err := ParseBBox("190,0,200,10")
	require.NoError(t, err)
	assert.Equal(t, -170.0, b.MinLon)
	assert.Equal(t, -160.0, b.MaxLon)
}

func TestOrbRoundTrip(t *testing.T) {
	b := Bounds{-0.1, 51.4, 0.1, 51.6}
	assert.Equal(t, b, FromOrb(b.Orb()))
}
