package osm

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureCollectionPointsAndLines(t *testing.T) {
	g := Resolve([]Element{
		node(1, 0, 0, nil),
		node(2, 1, 0, nil),
		node(3, 5, 5, map[string]string{"amenity": "pub"}),
		way(10, map[string]string{"highway": "residential"}, 1, 2),
	})
	fc := g.FeatureCollection()

	var points, lines int
	for _, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Point:
			points++
			assert.Equal(t, int64(NewTypedID(KindNode, 3)), f.ID)
		case orb.LineString:
			lines++
			assert.Equal(t, int64(NewTypedID(KindWay, 10)), f.ID)
			assert.Equal(t, "way", f.Properties["type"])
		}
	}
	// Nodes 1 and 2 are uninteresting way geometry; only the pub renders.
	assert.Equal(t, 1, points)
	assert.Equal(t, 1, lines)
}

func TestFeatureCollectionAreaWay(t *testing.T) {
	// Clockwise square; conversion must orient the ring counterclockwise.
	g := Resolve([]Element{
		node(1, 0, 0, nil), node(2, 0, 1, nil), node(3, 1, 1, nil), node(4, 1, 0, nil),
		way(10, map[string]string{"building": "yes"}, 1, 2, 3, 4, 1),
	})
	fc := g.FeatureCollection()
	require.Len(t, fc.Features, 1)

	poly, ok := fc.Features[0].Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.Equal(t, orb.CCW, poly[0].Orientation())
	assert.Equal(t, true, fc.Features[0].Properties["area"])
}

func TestFeatureCollectionSplitWay(t *testing.T) {
	g := Resolve([]Element{
		node(1, 0, 0, nil), node(2, 1, 0, nil),
		node(4, 3, 0, nil), node(5, 4, 0, nil),
		way(10, nil, 1, 2, 3, 4, 5), // node 3 missing
	})
	fc := g.FeatureCollection()
	require.Len(t, fc.Features, 1)
	mls, ok := fc.Features[0].Geometry.(orb.MultiLineString)
	require.True(t, ok)
	assert.Len(t, mls, 2)
}

func TestFeatureBound(t *testing.T) {
	g := Resolve([]Element{
		node(1, -1, -2, map[string]string{"name": "a"}),
		node(2, 3, 4, map[string]string{"name": "b"}),
	})
	bound, ok := FeatureBound(g.FeatureCollection())
	require.True(t, ok)
	assert.Equal(t, orb.Point{-1, -2}, bound.Min)
	assert.Equal(t, orb.Point{3, 4}, bound.Max)

	_, ok = FeatureBound((&Graph{}).FeatureCollection())
	assert.False(t, ok)
}

func TestNotesFeatureCollection(t *testing.T) {
	fc := NotesFeatureCollection([]Note{
		{ID: 7, Lon: 1, Lat: 2, Status: NoteOpen, Text: "missing crossing"},
		{ID: 8, Lon: 3, Lat: 4, Status: NoteClosed},
	})
	require.Len(t, fc.Features, 2)
	assert.Equal(t, int64(7), fc.Features[0].ID)
	assert.Equal(t, "open", fc.Features[0].Properties["status"])
	assert.Equal(t, "missing crossing", fc.Features[0].Properties["text"])
	_, hasText := fc.Features[1].Properties["text"]
	assert.False(t, hasText)
}

func TestMapPayloadWire(t *testing.T) {
	in := MapPayload{
		Elements: []Element{
			node(1, 0.5, 0.5, map[string]string{"amenity": "bench"}),
			way(10, nil, 1),
		},
		TooMuchData: true,
	}
	raw, err := cbor.Marshal(in)
	require.NoError(t, err)

	var out MapPayload
	require.NoError(t, cbor.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
