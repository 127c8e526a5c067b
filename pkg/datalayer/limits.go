// Package datalayer implements the viewport data controllers: per-layer
// state machines that keep the map data and notes overlays synchronized
// with the visible viewport through bbox queries, with cancellation,
// admission control and reload-avoidance. A one-shot preview variant
// renders a fixed element set without viewport synchronization.
package datalayer

import "time"

// Limits configures admission control and fetch tuning. The enforcement
// point for the element-count cap is the server; the area checks run
// client-side before a request is issued.
type Limits struct {
	// MapAreaMax is the largest map-data fetch area, square degrees.
	MapAreaMax float64
	// MapNodesLimit caps element counts server-side; exceeding it sets
	// the payload's TooMuchData flag.
	MapNodesLimit int
	// NoteAreaMax is the largest notes fetch area, square degrees.
	NoteAreaMax float64
	// NotesLimit caps the number of notes returned.
	NotesLimit int
	// ReloadThreshold is the covered-area fraction above which a fetch is
	// skipped because the loaded data already covers the viewport.
	ReloadThreshold float64
	// FetchPadRatio pads the viewport before fetching so small follow-up
	// pans stay inside already-loaded data.
	FetchPadRatio float64
	// PopupDelay is how long a feature must stay hovered before its
	// popup opens.
	PopupDelay time.Duration
}

// DefaultLimits returns the standard tuning.
func DefaultLimits() Limits {
	return Limits{
		MapAreaMax:      0.25,
		MapNodesLimit:   50_000,
		NoteAreaMax:     25,
		NotesLimit:      200,
		ReloadThreshold: 0.9,
		FetchPadRatio:   0.3,
		PopupDelay:      500 * time.Millisecond,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MapAreaMax == 0 {
		l.MapAreaMax = def.MapAreaMax
	}
	if l.MapNodesLimit == 0 {
		l.MapNodesLimit = def.MapNodesLimit
	}
	if l.NoteAreaMax == 0 {
		l.NoteAreaMax = def.NoteAreaMax
	}
	if l.NotesLimit == 0 {
		l.NotesLimit = def.NotesLimit
	}
	if l.ReloadThreshold == 0 {
		l.ReloadThreshold = def.ReloadThreshold
	}
	if l.FetchPadRatio == 0 {
		l.FetchPadRatio = def.FetchPadRatio
	}
	if l.PopupDelay == 0 {
		l.PopupDelay = def.PopupDelay
	}
	return l
}
