package datalayer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/layer"
	"github.com/osmview/osmview/pkg/mapview"
	"github.com/osmview/osmview/pkg/osm"
)

type fakeNoteService struct {
	mu    sync.Mutex
	calls []mapCall
	notes []osm.Note
}

func (f *fakeNoteService) Notes(ctx context.Context, b geobox.Bounds, limit int) (*osm.NotesPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, mapCall{bounds: b, limit: limit})
	return &osm.NotesPayload{Notes: f.notes}, nil
}

func (f *fakeNoteService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNotesLayerFetchAndPopup(t *testing.T) {
	surface := mapview.NewHeadless(geobox.Bounds{MinLon: 0, MinLat: 0, MaxLon: 0.5, MaxLat: 0.5}, 12)
	engine := mapview.New(surface, layer.DefaultCatalog(), memPrefs{})
	fake := &fakeNoteService{notes: []osm.Note{
		{ID: 11, Lon: 0.1, Lat: 0.1, Status: osm.NoteOpen, Text: "broken bench"},
		{ID: 12, Lon: 0.2, Lat: 0.2, Status: osm.NoteClosed},
	}}
	var paths []string
	nl := NewNotesLayer(engine, fake, Options{
		Limits:   Limits{PopupDelay: 1},
		Navigate: func(p string) { paths = append(paths, p) },
	})
	t.Cleanup(nl.Close)

	engine.AddLayer("N") // notes, by keyboard code
	require.Eventually(t, func() bool {
		return renderedFeatures(surface, "notes") == 2
	}, waitFor, tick)
	assert.Equal(t, DefaultLimits().NotesLimit, fake.calls[0].limit)

	surface.EmitPointerMove(mapview.PointerEvent{
		LayerID: "notes:circle", FeatureID: 11, Lon: 0.1, Lat: 0.1,
	})
	require.Eventually(t, func() bool {
		text, open := surface.Popup()
		return open && text == "broken bench"
	}, waitFor, tick)

	// A note without text falls back to id and status.
	surface.EmitPointerMove(mapview.PointerEvent{
		LayerID: "notes:symbol", FeatureID: 12, Lon: 0.2, Lat: 0.2,
	})
	require.Eventually(t, func() bool {
		text, open := surface.Popup()
		return open && text == "note 12 (closed)"
	}, waitFor, tick)

	surface.EmitClick(mapview.PointerEvent{LayerID: "notes:circle", FeatureID: 11})
	assert.Equal(t, []string{"/note/11"}, paths)
}

func TestNotesAndDataControllersAreIndependent(t *testing.T) {
	surface := mapview.NewHeadless(geobox.Bounds{MinLon: 0, MinLat: 0, MaxLon: 0.1, MaxLat: 0.1}, 12)
	engine := mapview.New(surface, layer.DefaultCatalog(), memPrefs{})
	mapFake := &fakeMapService{}
	noteFake := &fakeNoteService{notes: []osm.Note{{ID: 1, Status: osm.NoteOpen}}}
	dl := NewDataLayer(engine, mapFake, Options{})
	nl := NewNotesLayer(engine, noteFake, Options{})
	t.Cleanup(dl.Close)
	t.Cleanup(nl.Close)

	engine.AddLayer(layer.IDData)
	require.Eventually(t, func() bool { return mapFake.count() == 1 }, waitFor, tick)
	assert.Equal(t, 0, noteFake.count())
	assert.False(t, nl.Enabled())

	engine.AddLayer(layer.IDNotes)
	require.Eventually(t, func() bool { return noteFake.count() == 1 }, waitFor, tick)

	// Removing one layer leaves the other running.
	engine.RemoveLayer(layer.IDData)
	assert.False(t, dl.Enabled())
	assert.True(t, nl.Enabled())
}
