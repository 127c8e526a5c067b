package elemstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/osm"
)

// Synthetic world grid spacing, degrees.
const (
	nodeStep = 0.005
	noteStep = 0.05
)

// cellCap bounds a single query's grid iteration; boxes large enough to
// hit it are truncated outright.
const cellCap = 20_000_000

// Memory is an in-memory Store. It serves a deterministic synthetic world
// derived from a seed, optionally overlaid with elements and notes loaded
// from JSON, so every development session sees the same map without any
// import step.
type Memory struct {
	mu    sync.RWMutex
	seed  uint64
	elems map[elementKey]osm.Element
	notes map[int64]osm.Note
}

type elementKey struct {
	kind osm.ElementKind
	id   int64
}

// NewMemory creates a memory store seeded for the synthetic world.
func NewMemory(seed int64) *Memory {
	return &Memory{
		seed:  uint64(seed),
		elems: make(map[elementKey]osm.Element),
		notes: make(map[int64]osm.Note),
	}
}

// LoadElements reads an elements document, `{"elements": [...]}`, and
// overlays its contents on the synthetic world. It returns the number of
// elements loaded.
func (m *Memory) LoadElements(r io.Reader) (int, error) {
	var doc struct {
		Elements []osm.Element `json:"elements"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("decoding elements: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, el := range doc.Elements {
		m.elems[elementKey{el.Kind, el.ID}] = el
	}
	return len(doc.Elements), nil
}

// AddNotes overlays notes on the synthetic world.
func (m *Memory) AddNotes(notes []osm.Note) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range notes {
		m.notes[n.ID] = n
	}
}

func (m *Memory) Elements(ctx context.Context, b geobox.Bounds, limit int) ([]osm.Element, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	acc := newAccumulator()
	for _, seg := range segments(b) {
		if cells(seg, nodeStep) > cellCap {
			return nil, true, nil
		}
		m.synthElements(seg, acc)
	}
	m.loadedElements(b, acc)

	if limit > 0 && acc.nodeCount > limit {
		return nil, true, nil
	}
	return acc.sorted(), false, nil
}

func (m *Memory) Notes(ctx context.Context, b geobox.Bounds, limit int) ([]osm.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []osm.Note
	for _, seg := range segments(b) {
		if cells(seg, noteStep) > cellCap {
			break
		}
		out = append(out, m.synthNotes(seg)...)
	}
	m.mu.RLock()
	for _, n := range m.notes {
		if inBox(b, n.Lon, n.Lat) {
			out = append(out, n)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// segments splits an anti-meridian-crossing box into plain longitude
// ranges.
func segments(b geobox.Bounds) []geobox.Bounds {
	if !b.Wrapped() {
		return []geobox.Bounds{b}
	}
	return []geobox.Bounds{
		{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: 180, MaxLat: b.MaxLat},
		{MinLon: -180, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: b.MaxLat},
	}
}

func cells(b geobox.Bounds, step float64) int {
	cols := int((b.MaxLon-b.MinLon)/step) + 1
	rows := int((b.MaxLat-b.MinLat)/step) + 1
	return cols * rows
}

func inBox(b geobox.Bounds, lon, lat float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if b.Wrapped() {
		return lon >= b.MinLon || lon <= b.MaxLon
	}
	return lon >= b.MinLon && lon <= b.MaxLon
}

type accumulator struct {
	elems     map[elementKey]osm.Element
	nodeCount int
}

func newAccumulator() *accumulator {
	return &accumulator{elems: make(map[elementKey]osm.Element)}
}

func (a *accumulator) add(el osm.Element) {
	key := elementKey{el.Kind, el.ID}
	if _, ok := a.elems[key]; ok {
		return
	}
	a.elems[key] = el
	if el.Kind == osm.KindNode {
		a.nodeCount++
	}
}

func (a *accumulator) has(kind osm.ElementKind, id int64) bool {
	_, ok := a.elems[elementKey{kind, id}]
	return ok
}

// sorted returns the accumulated elements, nodes first, then ways, then
// relations, each in id order.
func (a *accumulator) sorted() []osm.Element {
	rank := map[osm.ElementKind]int{osm.KindNode: 0, osm.KindWay: 1, osm.KindRelation: 2}
	out := make([]osm.Element, 0, len(a.elems))
	for _, el := range a.elems {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool {
		if rank[out[i].Kind] != rank[out[j].Kind] {
			return rank[out[i].Kind] < rank[out[j].Kind]
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Synthetic world generation. A node exists at grid cell (i, j) when the
// seeded hash selects it; ways and relations hang off sparser anchor
// cells. Everything is a pure function of the seed, so repeated queries
// and overlapping boxes agree with each other.

const (
	lonCells = 72_000 // 360 / nodeStep
	latCells = 34_000 // 170 / nodeStep

	wayScan = 12 // anchor lookahead, cells
)

func (m *Memory) synthElements(b geobox.Bounds, acc *accumulator) {
	i0, i1 := cellRange(b.MinLon, b.MaxLon, nodeStep)
	j0, j1 := cellRange(b.MinLat, b.MaxLat, nodeStep)

	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			if n, ok := m.nodeAt(i, j); ok && inBox(b, n.Lon, n.Lat) {
				acc.add(n)
			}
		}
	}

	// Ways anchored up to wayScan cells west of the box may still reach a
	// node inside it.
	for j := j0; j <= j1; j++ {
		for i := i0 - wayScan; i <= i1; i++ {
			way, rel, ok := m.wayAt(i, j)
			if !ok {
				continue
			}
			hit := false
			for _, member := range way.Members {
				if acc.has(osm.KindNode, member.ID) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
			acc.add(way)
			for _, member := range way.Members {
				if n, ok := m.nodeByID(member.ID); ok {
					acc.add(n)
				}
			}
			if rel != nil {
				acc.add(*rel)
			}
		}
	}
}

func cellRange(lo, hi, step float64) (int, int) {
	return int(math.Floor(lo / step)), int(math.Floor(hi / step))
}

func cellID(i, j int) int64 {
	return int64(i+lonCells/2)*int64(latCells) + int64(j+latCells/2) + 1
}

func cellOf(id int64) (int, int) {
	v := id - 1
	return int(v/int64(latCells)) - lonCells/2, int(v%int64(latCells)) - latCells/2
}

var nodeTagPool = []map[string]string{
	nil,
	nil,
	{"amenity": "bench"},
	{"amenity": "drinking_water"},
	{"amenity": "cafe", "name": "Grid Cafe"},
	{"shop": "bakery", "name": "Corner Bakery"},
	{"natural": "tree"},
	{"highway": "crossing"},
}

var wayTagPool = []map[string]string{
	{"highway": "residential", "name": "Grid Street"},
	{"highway": "footway"},
	{"highway": "service"},
	{"barrier": "fence"},
}

func (m *Memory) nodeAt(i, j int) (osm.Element, bool) {
	h := mix(m.seed, uint64(int64(i)), uint64(int64(j)))
	if h%4 != 0 {
		return osm.Element{}, false
	}
	return osm.Element{
		Kind: osm.KindNode,
		ID:   cellID(i, j),
		Lon:  float64(i) * nodeStep,
		Lat:  float64(j) * nodeStep,
		Tags: nodeTagPool[(h>>8)%uint64(len(nodeTagPool))],
	}, true
}

func (m *Memory) nodeByID(id int64) (osm.Element, bool) {
	i, j := cellOf(id)
	return m.nodeAt(i, j)
}

// wayAt returns the way anchored at cell (i, j), if any, plus an optional
// relation wrapping it. Way members are the first few generated nodes east
// of the anchor.
func (m *Memory) wayAt(i, j int) (osm.Element, *osm.Element, bool) {
	h := mix(m.seed^0x9e3779b97f4a7c15, uint64(int64(i)), uint64(int64(j)))
	if h%29 != 0 {
		return osm.Element{}, nil, false
	}

	var members []osm.Member
	for di := 0; di <= wayScan && len(members) < 5; di++ {
		if n, ok := m.nodeAt(i+di, j); ok {
			members = append(members, osm.Member{Kind: osm.KindNode, ID: n.ID})
		}
	}
	if len(members) < 2 {
		return osm.Element{}, nil, false
	}

	way := osm.Element{
		Kind:    osm.KindWay,
		ID:      cellID(i, j),
		Tags:    wayTagPool[(h>>8)%uint64(len(wayTagPool))],
		Members: members,
	}
	if (h>>16)%3 != 0 {
		return way, nil, true
	}
	rel := osm.Element{
		Kind: osm.KindRelation,
		ID:   cellID(i, j),
		Tags: map[string]string{"type": "route", "route": "foot"},
		Members: []osm.Member{
			{Kind: osm.KindWay, ID: way.ID, Role: "main"},
			{Kind: osm.KindNode, ID: members[0].ID, Role: "start"},
		},
	}
	return way, &rel, true
}

func (m *Memory) loadedElements(b geobox.Bounds, acc *accumulator) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, el := range m.elems {
		if el.Kind == osm.KindNode && inBox(b, el.Lon, el.Lat) {
			acc.add(el)
		}
	}
	for _, el := range m.elems {
		if el.Kind != osm.KindWay {
			continue
		}
		hit := false
		for _, member := range el.Members {
			if acc.has(osm.KindNode, member.ID) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		acc.add(el)
		for _, member := range el.Members {
			if n, ok := m.elems[elementKey{osm.KindNode, member.ID}]; ok {
				acc.add(n)
			}
		}
	}
	for _, el := range m.elems {
		if el.Kind != osm.KindRelation {
			continue
		}
		for _, member := range el.Members {
			if acc.has(member.Kind, member.ID) {
				acc.add(el)
				break
			}
		}
	}
}

var noteTextPool = []string{
	"missing crossing here",
	"shop has closed down",
	"",
	"bench is broken",
	"path flooded in winter",
}

func (m *Memory) synthNotes(b geobox.Bounds) []osm.Note {
	i0, i1 := cellRange(b.MinLon, b.MaxLon, noteStep)
	j0, j1 := cellRange(b.MinLat, b.MaxLat, noteStep)

	var out []osm.Note
	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			h := mix(m.seed^0xbf58476d1ce4e5b9, uint64(int64(i)), uint64(int64(j)))
			if h%7 != 0 {
				continue
			}
			lon := float64(i) * noteStep
			lat := float64(j) * noteStep
			if !inBox(b, lon, lat) {
				continue
			}
			status := osm.NoteOpen
			if (h>>4)%3 == 0 {
				status = osm.NoteClosed
			}
			out = append(out, osm.Note{
				ID:        cellID(i, j),
				Lon:       lon,
				Lat:       lat,
				Status:    status,
				CreatedAt: time.Unix(1_600_000_000+int64((h>>12)%100_000)*3600, 0).UTC(),
				Text:      noteTextPool[(h>>8)%uint64(len(noteTextPool))],
			})
		}
	}
	return out
}

// mix is a splitmix64-style hash over the seed and cell coordinates.
func mix(vals ...uint64) uint64 {
	var h uint64 = 0x2545f4914f6cdd1d
	for _, v := range vals {
		h ^= v + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
		h *= 0xff51afd7ed558ccd
		h ^= h >> 33
	}
	return h
}
