package datalayer

import (
	"context"
	"strconv"

	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/layer"
	"github.com/osmview/osmview/pkg/mapview"
	"github.com/osmview/osmview/pkg/osm"
)

// NoteService fetches notes in a bounding box. *osmapi.Client satisfies it.
type NoteService interface {
	Notes(ctx context.Context, bounds geobox.Bounds, limit int) (*osm.NotesPayload, error)
}

// NotesLayer keeps the map-notes overlay synchronized with the viewport.
// Same machinery as the data layer, without the element resolver.
type NotesLayer struct {
	loader
	client NoteService
	notes  map[int64]osm.Note // last rendered notes, guarded by loader.mu
}

// NewNotesLayer wires a notes controller to the engine, following the
// "notes" layer's lifecycle events.
func NewNotesLayer(engine *mapview.Engine, client NoteService, opts Options) *NotesLayer {
	n := &NotesLayer{client: client}
	n.loader = loader{
		engine:  engine,
		layerID: layer.IDNotes,
		limits:  opts.Limits.withDefaults(),
		advise:  opts.OnAdvisory,
	}
	n.areaLimit = n.limits.NoteAreaMax
	n.countLimit = n.limits.NotesLimit
	n.fetch = n.fetchNotes
	n.popupText = n.noteSummary
	n.featurePath = func(id int64) string { return "/note/" + strconv.FormatInt(id, 10) }
	n.navigate = opts.Navigate
	n.attach([]string{"notes:circle", "notes:symbol"})
	return n
}

func (n *NotesLayer) fetchNotes(ctx context.Context, b geobox.Bounds, limit int) (*fetchResult, error) {
	payload, err := n.client.Notes(ctx, b, limit)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]osm.Note, len(payload.Notes))
	for _, note := range payload.Notes {
		byID[note.ID] = note
	}
	return &fetchResult{
		fc:    osm.NotesFeatureCollection(payload.Notes),
		after: func() { n.notes = byID },
	}, nil
}

// noteSummary builds the hover popup text. Called under loader.mu.
func (n *NotesLayer) noteSummary(featureID int64) string {
	note, ok := n.notes[featureID]
	if !ok {
		return ""
	}
	if note.Text != "" {
		return note.Text
	}
	return "note " + strconv.FormatInt(note.ID, 10) + " (" + note.Status + ")"
}
