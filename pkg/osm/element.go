// Package osm models OpenStreetMap elements: the flat wire records returned
// by bounding-box queries and the typed, reference-resolved object graph
// built from them for rendering.
package osm

import "time"

// ElementKind discriminates the three element kinds.
type ElementKind string

const (
	KindNode     ElementKind = "node"
	KindWay      ElementKind = "way"
	KindRelation ElementKind = "relation"
)

// Member is a reference to another element inside a way or relation member
// list. Way members always reference nodes; relation members mix kinds.
type Member struct {
	Kind ElementKind `cbor:"kind" json:"type"`
	ID   int64       `cbor:"id" json:"ref"`
	Role string      `cbor:"role,omitempty" json:"role,omitempty"`
}

// Element is a flat, self-identifying element record as it appears on the
// wire. Lon/Lat are meaningful for nodes only; Members for ways and
// relations only.
type Element struct {
	Kind    ElementKind       `cbor:"kind" json:"type"`
	ID      int64             `cbor:"id" json:"id"`
	Tags    map[string]string `cbor:"tags,omitempty" json:"tags,omitempty"`
	Lon     float64           `cbor:"lon,omitempty" json:"lon,omitempty"`
	Lat     float64           `cbor:"lat,omitempty" json:"lat,omitempty"`
	Members []Member          `cbor:"members,omitempty" json:"members,omitempty"`
}

// MapPayload is the response body of the elements-in-bounding-box query.
type MapPayload struct {
	Elements []Element `cbor:"elements"`
	// TooMuchData signals that the server's element-count cap truncated
	// the result; the client treats it as an admission rejection.
	TooMuchData bool `cbor:"tooMuchData,omitempty"`
}

// Note is a single map note.
type Note struct {
	ID        int64     `cbor:"id" json:"id"`
	Lon       float64   `cbor:"lon" json:"lon"`
	Lat       float64   `cbor:"lat" json:"lat"`
	Status    string    `cbor:"status" json:"status"` // open | closed
	CreatedAt time.Time `cbor:"createdAt" json:"createdAt"`
	// Text is the first comment body, shown in popups.
	Text string `cbor:"text,omitempty" json:"text,omitempty"`
}

// NotesPayload is the response body of the notes-in-bounding-box query.
type NotesPayload struct {
	Notes []Note `cbor:"notes"`
}

// ContentType is the wire content type of both query payloads.
const ContentType = "application/cbor"

// Note statuses.
const (
	NoteOpen   = "open"
	NoteClosed = "closed"
)
