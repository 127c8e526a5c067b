package osm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id int64, lon, lat float64, tags map[string]string) Element {
	return Element{Kind: KindNode, ID: id, Lon: lon, Lat: lat, Tags: tags}
}

func way(id int64, tags map[string]string, nodeIDs ...int64) Element {
	members := make([]Member, len(nodeIDs))
	for i, n := range nodeIDs {
		members[i] = Member{Kind: KindNode, ID: n}
	}
	return Element{Kind: KindWay, ID: id, Tags: tags, Members: members}
}

func TestResolveBasic(t *testing.T) {
	g := Resolve([]Element{
		node(1, 0, 0, nil),
		node(2, 1, 0, nil),
		node(3, 2, 2, map[string]string{"amenity": "pub"}),
		way(10, map[string]string{"highway": "residential"}, 1, 2),
	})

	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Ways, 1)

	w := g.Ways[10]
	require.Len(t, w.Nodes, 2)
	// Member geometry is shared, not copied.
	assert.Same(t, g.Nodes[1], w.Nodes[0])
	assert.Same(t, g.Nodes[2], w.Nodes[1])
}

func TestResolveIdempotent(t *testing.T) {
	input := []Element{
		node(1, 0, 0, nil),
		node(2, 1, 0, map[string]string{"name": "x"}),
		way(10, nil, 1, 2),
		{Kind: KindRelation, ID: 20, Members: []Member{
			{Kind: KindWay, ID: 10, Role: "outer"},
			{Kind: KindNode, ID: 2, Role: "stop"},
		}},
	}
	a := Resolve(input)
	b := Resolve(input)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("resolve not idempotent (-first +second):\n%s", diff)
	}
}

func TestResolveOrderIndependent(t *testing.T) {
	forward := []Element{
		node(1, 0, 0, nil),
		node(2, 1, 0, nil),
		way(10, nil, 1, 2),
	}
	reversed := []Element{forward[2], forward[1], forward[0]}

	if diff := cmp.Diff(Resolve(forward), Resolve(reversed)); diff != "" {
		t.Errorf("output depends on input order (-forward +reversed):\n%s", diff)
	}
}

func TestResolveDuplicateInput(t *testing.T) {
	g := Resolve([]Element{
		node(1, 0, 0, nil),
		node(1, 5, 5, nil), // duplicate id, ignored
		node(2, 1, 0, nil),
		way(10, nil, 1, 2),
		way(10, nil, 2, 1), // duplicate id, ignored
	})
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Ways, 1)
	assert.Equal(t, 0.0, g.Nodes[1].Lon)
	assert.Equal(t, int64(1), g.Ways[10].Nodes[0].ID)
}

func TestResolveCycleSafety(t *testing.T) {
	// Relation 20 references relation 21 which references 20 again, and 20
	// references itself for good measure. Must terminate with a finite graph.
	g := Resolve([]Element{
		node(1, 0, 0, nil),
		{Kind: KindRelation, ID: 20, Members: []Member{
			{Kind: KindRelation, ID: 21},
			{Kind: KindRelation, ID: 20},
			{Kind: KindNode, ID: 1},
		}},
		{Kind: KindRelation, ID: 21, Members: []Member{
			{Kind: KindRelation, ID: 20},
		}},
	})
	require.Len(t, g.Relations, 2)
	// Nested relation members are dropped; only the node member survives.
	require.Len(t, g.Relations[20].Members, 1)
	assert.Equal(t, int64(1), g.Relations[20].Members[0].Node.ID)
	assert.Empty(t, g.Relations[21].Members)
}

func TestInterestingFlag(t *testing.T) {
	// Untagged node referenced by a way: not interesting.
	g := Resolve([]Element{
		node(1, 0, 0, nil),
		node(2, 1, 0, nil),
		way(10, nil, 1, 2),
	})
	assert.False(t, g.Nodes[1].Interesting)

	// The same node with one tag: interesting.
	g = Resolve([]Element{
		node(1, 0, 0, map[string]string{"name": "corner"}),
		node(2, 1, 0, nil),
		way(10, nil, 1, 2),
	})
	assert.True(t, g.Nodes[1].Interesting)

	// A node referenced by nothing is always interesting.
	g = Resolve([]Element{node(3, 0, 0, nil)})
	assert.True(t, g.Nodes[3].Interesting)
}

func TestResolveMissingMember(t *testing.T) {
	g := Resolve([]Element{
		node(1, 0, 0, nil),
		node(3, 2, 0, nil),
		way(10, nil, 1, 2, 3), // node 2 absent from the input
	})
	w := g.Ways[10]
	require.Len(t, w.Nodes, 2)
	// The hole splits the way into two segments.
	assert.Equal(t, []int{0}, w.Gaps)
	segs := w.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, int64(1), segs[0][0].ID)
	assert.Equal(t, int64(3), segs[1][0].ID)
}

func TestResolveTrailingGapIgnored(t *testing.T) {
	g := Resolve([]Element{
		node(1, 0, 0, nil),
		node(2, 1, 0, nil),
		way(10, nil, 1, 2, 99), // trailing member missing
	})
	w := g.Ways[10]
	assert.Empty(t, w.Gaps)
	assert.Len(t, w.Segments(), 1)
}

func TestIsArea(t *testing.T) {
	closedSquare := func(tags map[string]string) *Way {
		g := Resolve([]Element{
			node(1, 0, 0, nil), node(2, 1, 0, nil), node(3, 1, 1, nil), node(4, 0, 1, nil),
			way(10, tags, 1, 2, 3, 4, 1),
		})
		return g.Ways[10]
	}

	assert.True(t, closedSquare(map[string]string{"building": "yes"}).IsArea())
	assert.True(t, closedSquare(map[string]string{"area:highway": "pedestrian"}).IsArea())
	assert.False(t, closedSquare(map[string]string{"highway": "service"}).IsArea())
	assert.False(t, closedSquare(nil).IsArea())

	// Open way never is an area.
	g := Resolve([]Element{
		node(1, 0, 0, nil), node(2, 1, 0, nil), node(3, 1, 1, nil),
		way(10, map[string]string{"building": "yes"}, 1, 2, 3),
	})
	assert.False(t, g.Ways[10].IsArea())
}
