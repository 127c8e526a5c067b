package osm

import (
	"fmt"
	"strconv"
)

// TypedID packs an element kind and numeric id into a single int64: the
// kind occupies bits 60-61 (node 0, way 1, relation 2), the id the low 60
// bits. It is the stable per-feature identifier handed to the rendering
// surface for feature state and popup routing.
type TypedID int64

const (
	typedIDShift = 60
	typedIDMask  = int64(1)<<typedIDShift - 1
)

var kindBits = map[ElementKind]int64{
	KindNode:     0,
	KindWay:      1,
	KindRelation: 2,
}

// NewTypedID packs kind and id.
func NewTypedID(kind ElementKind, id int64) TypedID {
	return TypedID(kindBits[kind]<<typedIDShift | id&typedIDMask)
}

// Kind unpacks the element kind.
func (t TypedID) Kind() ElementKind {
	switch int64(t) >> typedIDShift & 3 {
	case 1:
		return KindWay
	case 2:
		return KindRelation
	default:
		return KindNode
	}
}

// ID unpacks the numeric element id.
func (t TypedID) ID() int64 {
	return int64(t) & typedIDMask
}

// String renders "kind/id", e.g. "node/42".
func (t TypedID) String() string {
	return fmt.Sprintf("%s/%d", t.Kind(), t.ID())
}

// Path renders the element detail route, e.g. "/way/7".
func (t TypedID) Path() string {
	return "/" + string(t.Kind()) + "/" + strconv.FormatInt(t.ID(), 10)
}
