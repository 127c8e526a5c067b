// Package elemstore provides the element and note storage backends behind
// the bounding-box query endpoints: a deterministic in-memory world for
// development and tests, and a DuckDB-backed store for imported data.
package elemstore

import (
	"context"

	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/osm"
)

// Store answers bounding-box queries over elements and notes.
//
// Elements returns every node inside the box, every way referencing one of
// those nodes together with all of its member nodes, and every relation
// referencing an included element. When limit is positive and the node
// count exceeds it, the result is dropped and truncated is true.
type Store interface {
	Elements(ctx context.Context, b geobox.Bounds, limit int) (elements []osm.Element, truncated bool, err error)
	Notes(ctx context.Context, b geobox.Bounds, limit int) ([]osm.Note, error)
}
