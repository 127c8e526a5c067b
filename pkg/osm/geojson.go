package osm

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// FeatureCollection converts the graph into renderable GeoJSON. Interesting
// nodes become Point features; ways become LineStrings — or a Polygon when
// the way is a closed area, or a MultiLineString when missing members split
// it into several segments. Relations contribute no geometry of their own:
// their member ways and nodes are already in the graph's keyed collections.
// Feature ids are TypedIDs so the rendering surface can address per-feature
// state.
func (g *Graph) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, n := range g.Nodes {
		if !n.Interesting {
			continue
		}
		f := geojson.NewFeature(orb.Point{n.Lon, n.Lat})
		f.ID = int64(NewTypedID(KindNode, n.ID))
		f.Properties = elementProperties(KindNode, n.ID, n.Tags)
		fc.Append(f)
	}

	for _, w := range g.Ways {
		geom := wayGeometry(w)
		if geom == nil {
			continue
		}
		f := geojson.NewFeature(geom)
		f.ID = int64(NewTypedID(KindWay, w.ID))
		f.Properties = elementProperties(KindWay, w.ID, w.Tags)
		f.Properties["area"] = w.IsArea()
		fc.Append(f)
	}

	return fc
}

func wayGeometry(w *Way) orb.Geometry {
	if w.IsArea() {
		ring := make(orb.Ring, len(w.Nodes))
		for i, n := range w.Nodes {
			ring[i] = orb.Point{n.Lon, n.Lat}
		}
		// GeoJSON wants the exterior ring counterclockwise.
		if planar.Area(ring) < 0 {
			for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
				ring[i], ring[j] = ring[j], ring[i]
			}
		}
		return orb.Polygon{ring}
	}

	var lines []orb.LineString
	for _, seg := range w.Segments() {
		if len(seg) < 2 {
			continue
		}
		ls := make(orb.LineString, len(seg))
		for i, n := range seg {
			ls[i] = orb.Point{n.Lon, n.Lat}
		}
		lines = append(lines, ls)
	}
	switch len(lines) {
	case 0:
		return nil
	case 1:
		return lines[0]
	default:
		return orb.MultiLineString(lines)
	}
}

func elementProperties(kind ElementKind, id int64, tags map[string]string) geojson.Properties {
	props := geojson.Properties{
		"type": string(kind),
		"id":   id,
	}
	if len(tags) > 0 {
		props["tags"] = tags
	}
	return props
}

// FeatureBound returns the bounding box of the collection's geometry, accumulated
// feature by feature, and false for an empty collection.
func FeatureBound(fc *geojson.FeatureCollection) (orb.Bound, bool) {
	var bound orb.Bound
	found := false
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		b := f.Geometry.Bound()
		if !found {
			bound = b
			found = true
		} else {
			bound = bound.Union(b)
		}
	}
	return bound, found
}

// NotesFeatureCollection converts notes into Point features for the notes
// overlay. Feature ids are the raw note ids; status drives the styling.
func NotesFeatureCollection(notes []Note) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, n := range notes {
		f := geojson.NewFeature(orb.Point{n.Lon, n.Lat})
		f.ID = n.ID
		f.Properties = geojson.Properties{
			"id":     n.ID,
			"status": n.Status,
		}
		if n.Text != "" {
			f.Properties["text"] = n.Text
		}
		fc.Append(f)
	}
	return fc
}
