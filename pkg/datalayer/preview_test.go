package datalayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/layer"
	"github.com/osmview/osmview/pkg/mapview"
	"github.com/osmview/osmview/pkg/osm"
)

func TestPreviewShowFitsOffscreenElements(t *testing.T) {
	// Viewport far away from the previewed elements.
	surface := mapview.NewHeadless(geobox.Bounds{MinLon: 50, MinLat: 50, MaxLon: 51, MaxLat: 51}, 15)
	engine := mapview.New(surface, layer.DefaultCatalog(), memPrefs{})
	p := NewPreviewLayer(engine)

	p.Show([]osm.Element{
		{Kind: osm.KindNode, ID: 1, Lon: 0, Lat: 0, Tags: map[string]string{"name": "a"}},
		{Kind: osm.KindNode, ID: 2, Lon: 0.1, Lat: 0.1, Tags: map[string]string{"name": "b"}},
	})

	require.Equal(t, 2, renderedFeatures(surface, "preview"))
	assert.Contains(t, surface.LayersOrder(), "preview:circle")

	// The camera moved to cover the elements.
	view := surface.GetBounds()
	assert.True(t, geobox.Contains(view, geobox.Bounds{MinLon: 0, MinLat: 0, MaxLon: 0.1, MaxLat: 0.1}))

	p.Clear()
	assert.NotContains(t, surface.LayersOrder(), "preview:circle")
	assert.False(t, surface.HasSource("preview"))
}

func TestPreviewDoesNotRefitVisibleElements(t *testing.T) {
	surface := mapview.NewHeadless(geobox.Bounds{MinLon: -1, MinLat: -1, MaxLon: 1, MaxLat: 1}, 15)
	engine := mapview.New(surface, layer.DefaultCatalog(), memPrefs{})
	p := NewPreviewLayer(engine)

	// A way filling a quarter of the viewport: visible and not tiny.
	p.Show([]osm.Element{
		{Kind: osm.KindNode, ID: 1, Lon: -0.5, Lat: -0.5},
		{Kind: osm.KindNode, ID: 2, Lon: 0.5, Lat: 0.5},
		{Kind: osm.KindWay, ID: 3, Tags: map[string]string{"highway": "path"}, Members: []osm.Member{
			{Kind: osm.KindNode, ID: 1}, {Kind: osm.KindNode, ID: 2},
		}},
	})

	// Already on screen: the viewport is untouched.
	assert.Equal(t, geobox.Bounds{MinLon: -1, MinLat: -1, MaxLon: 1, MaxLat: 1}, surface.GetBounds())
	assert.Equal(t, 1, renderedFeatures(surface, "preview"))
}
