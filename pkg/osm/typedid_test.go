package osm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedIDRoundTrip(t *testing.T) {
	for _, kind := range []ElementKind{KindNode, KindWay, KindRelation} {
		for _, id := range []int64{1, 42, 1 << 40, 1<<60 - 1} {
			tid := NewTypedID(kind, id)
			assert.Equal(t, kind, tid.Kind(), "%s/%d", kind, id)
			assert.Equal(t, id, tid.ID(), "%s/%d", kind, id)
		}
	}
}

func TestTypedIDDistinctAcrossKinds(t *testing.T) {
	n := NewTypedID(KindNode, 7)
	w := NewTypedID(KindWay, 7)
	r := NewTypedID(KindRelation, 7)
	assert.NotEqual(t, n, w)
	assert.NotEqual(t, w, r)
	assert.NotEqual(t, n, r)
}

func TestTypedIDStrings(t *testing.T) {
	tid := NewTypedID(KindWay, 123)
	assert.Equal(t, "way/123", tid.String())
	assert.Equal(t, "/way/123", tid.Path())
}
