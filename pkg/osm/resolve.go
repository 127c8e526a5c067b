package osm

import "log/slog"

// Node is a resolved point element. Interesting is false only when the node
// is referenced as a member of some way or relation and carries no tags of
// its own; such nodes are pure geometry and get no standalone marker.
type Node struct {
	ID          int64
	Lon, Lat    float64
	Tags        map[string]string
	Interesting bool
}

// Way is a resolved line element. Nodes holds the member geometry in order,
// with absent members skipped; Gaps records the indices in Nodes after
// which a referenced node was missing from the input, so rendering can
// break the line instead of bridging the hole.
type Way struct {
	ID    int64
	Tags  map[string]string
	Nodes []*Node
	Gaps  []int
}

// Segments splits the way's node list at its gaps. A way without gaps
// yields a single segment.
func (w *Way) Segments() [][]*Node {
	if len(w.Gaps) == 0 {
		return [][]*Node{w.Nodes}
	}
	var segs [][]*Node
	start := 0
	for _, g := range w.Gaps {
		if g+1 > start {
			segs = append(segs, w.Nodes[start:g+1])
		}
		start = g + 1
	}
	if start < len(w.Nodes) {
		segs = append(segs, w.Nodes[start:])
	}
	return segs
}

// areaTags are the tag keys whose presence marks a closed way as an area.
var areaTags = map[string]bool{
	"amenity":       true,
	"area":          true,
	"building":      true,
	"building:part": true,
	"historic":      true,
	"landuse":       true,
	"leisure":       true,
	"military":      true,
	"natural":       true,
	"ruins":         true,
	"sport":         true,
	"tourism":       true,
}

// IsArea reports whether the way should render as a polygon: a closed ring
// of more than two nodes carrying at least one area-ish tag.
func (w *Way) IsArea() bool {
	if len(w.Nodes) <= 2 || len(w.Gaps) > 0 {
		return false
	}
	if w.Nodes[0].ID != w.Nodes[len(w.Nodes)-1].ID {
		return false
	}
	for k := range w.Tags {
		if areaTags[k] {
			return true
		}
		if len(k) > 5 && k[:5] == "area:" {
			return true
		}
	}
	return false
}

// RelationMember is a resolved relation member with its role. Exactly one
// of Node and Way is set; nested relations are not resolved.
type RelationMember struct {
	Role string
	Node *Node
	Way  *Way
}

// Relation is a resolved relation-like element.
type Relation struct {
	ID      int64
	Tags    map[string]string
	Members []RelationMember
}

// Graph is the resolved, de-duplicated element graph. No element appears
// twice; every pointer into Nodes/Ways is shared with the member lists that
// reference it.
type Graph struct {
	Nodes     map[int64]*Node
	Ways      map[int64]*Way
	Relations map[int64]*Relation
}

type elementRef struct {
	kind ElementKind
	id   int64
}

// resolver is the explicit arena the resolution walks: an index of input
// records plus the growing output graph, which doubles as the visited set.
type resolver struct {
	index       map[elementRef]*Element
	memberNodes map[int64]bool
	graph       *Graph
}

// Resolve converts a flat element list into a typed object graph. The
// output maps double as the memoization table, so each element resolves
// exactly once regardless of how many member lists reference it — member
// lists that eventually cycle back to an ancestor terminate. Relation
// members of relation kind are dropped (one level of relation nesting
// only). Members absent from the input are logged and skipped. Output
// content does not depend on input order.
func Resolve(elements []Element) *Graph {
	r := &resolver{
		index:       make(map[elementRef]*Element, len(elements)),
		memberNodes: make(map[int64]bool),
		graph: &Graph{
			Nodes:     make(map[int64]*Node),
			Ways:      make(map[int64]*Way),
			Relations: make(map[int64]*Relation),
		},
	}

	for i := range elements {
		el := &elements[i]
		key := elementRef{el.Kind, el.ID}
		if _, dup := r.index[key]; dup {
			continue
		}
		r.index[key] = el
		if el.Kind == KindWay || el.Kind == KindRelation {
			for _, m := range el.Members {
				if m.Kind == KindNode {
					r.memberNodes[m.ID] = true
				}
			}
		}
	}

	for i := range elements {
		el := &elements[i]
		switch el.Kind {
		case KindNode:
			r.resolveNode(el)
		case KindWay:
			r.resolveWay(el)
		case KindRelation:
			r.resolveRelation(el)
		default:
			slog.Warn("skipping element of unknown kind", "kind", el.Kind, "id", el.ID)
		}
	}
	return r.graph
}

func (r *resolver) resolveNode(el *Element) *Node {
	if n, ok := r.graph.Nodes[el.ID]; ok {
		return n
	}
	n := &Node{
		ID:          el.ID,
		Lon:         el.Lon,
		Lat:         el.Lat,
		Tags:        el.Tags,
		Interesting: !r.memberNodes[el.ID] || len(el.Tags) > 0,
	}
	r.graph.Nodes[el.ID] = n
	return n
}

func (r *resolver) nodeByID(id int64) *Node {
	el, ok := r.index[elementRef{KindNode, id}]
	if !ok {
		slog.Warn("way or relation references missing node", "node", id)
		return nil
	}
	return r.resolveNode(el)
}

func (r *resolver) resolveWay(el *Element) *Way {
	if w, ok := r.graph.Ways[el.ID]; ok {
		return w
	}
	w := &Way{ID: el.ID, Tags: el.Tags}
	// Memoize before walking members so a re-entrant reference sees the
	// partially built way instead of recursing.
	r.graph.Ways[el.ID] = w

	for _, m := range el.Members {
		if m.Kind != KindNode {
			slog.Warn("way has non-node member", "way", el.ID, "member", m.ID, "kind", m.Kind)
			continue
		}
		n := r.nodeByID(m.ID)
		if n == nil {
			if last := len(w.Nodes) - 1; last >= 0 && (len(w.Gaps) == 0 || w.Gaps[len(w.Gaps)-1] != last) {
				w.Gaps = append(w.Gaps, last)
			}
			continue
		}
		w.Nodes = append(w.Nodes, n)
	}
	// A gap recorded after the final node splits nothing.
	if n := len(w.Gaps); n > 0 && w.Gaps[n-1] == len(w.Nodes)-1 {
		w.Gaps = w.Gaps[:n-1]
	}
	return w
}

func (r *resolver) wayByID(id int64) *Way {
	el, ok := r.index[elementRef{KindWay, id}]
	if !ok {
		slog.Warn("relation references missing way", "way", id)
		return nil
	}
	return r.resolveWay(el)
}

func (r *resolver) resolveRelation(el *Element) *Relation {
	if rel, ok := r.graph.Relations[el.ID]; ok {
		return rel
	}
	rel := &Relation{ID: el.ID, Tags: el.Tags}
	r.graph.Relations[el.ID] = rel

	for _, m := range el.Members {
		switch m.Kind {
		case KindNode:
			if n := r.nodeByID(m.ID); n != nil {
				rel.Members = append(rel.Members, RelationMember{Role: m.Role, Node: n})
			}
		case KindWay:
			if w := r.wayByID(m.ID); w != nil {
				rel.Members = append(rel.Members, RelationMember{Role: m.Role, Way: w})
			}
		case KindRelation:
			// One level of relation nesting only; following nested
			// relations would recurse without bound over cyclic
			// references.
			slog.Debug("dropping nested relation member", "relation", el.ID, "member", m.ID)
		}
	}
	return rel
}
