package layer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Config{ID: "a", Code: "A", Source: GeoJSONSource{}}))
	require.Error(t, r.Register(Config{ID: "a", Source: GeoJSONSource{}}))
	require.Error(t, r.Register(Config{ID: "b", Code: "A", Source: GeoJSONSource{}}))
	require.Error(t, r.Register(Config{Source: GeoJSONSource{}})) // missing id
}

func TestResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Config{ID: "cyclemap", Code: "C", Aliases: []string{"cycle map"}, Source: GeoJSONSource{}}))

	for _, ref := range []string{"cyclemap", "C", "c", "cycle map", "Cycle Map"} {
		cfg, ok := r.Resolve(ref)
		assert.True(t, ok, "ref %q", ref)
		assert.Equal(t, "cyclemap", cfg.ID, "ref %q", ref)
	}

	_, ok := r.Resolve("nope")
	assert.False(t, ok)
}

func TestResolveReverseIndexInvalidation(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Config{ID: "first", Code: "F", Source: GeoJSONSource{}}))

	// Force the reverse index to be built.
	_, ok := r.Resolve("F")
	require.True(t, ok)

	// A later registration must invalidate the cached index.
	require.NoError(t, r.Register(Config{ID: "second", Code: "S", Source: GeoJSONSource{}}))
	cfg, ok := r.Resolve("S")
	require.True(t, ok)
	assert.Equal(t, "second", cfg.ID)
}

func TestAllOrderedByPriority(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Config{ID: "z", Priority: 10, Source: GeoJSONSource{}}))
	require.NoError(t, r.Register(Config{ID: "a", Priority: 10, Source: GeoJSONSource{}}))
	require.NoError(t, r.Register(Config{ID: "m", Priority: 5, Source: GeoJSONSource{}}))

	var ids []string
	for _, cfg := range r.All() {
		ids = append(ids, cfg.ID)
	}
	assert.Equal(t, []string{"m", "a", "z"}, ids)
}

func TestPriorityOf(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Config{ID: "data", Priority: 130, Source: GeoJSONSource{}}))

	p, ok := r.PriorityOf("data")
	require.True(t, ok)
	assert.Equal(t, 130, p)

	p, ok = r.PriorityOf("data:circle")
	require.True(t, ok)
	assert.Equal(t, 130, p)

	_, ok = r.PriorityOf("custom-drawable")
	assert.False(t, ok)
}

func TestDefaultCatalog(t *testing.T) {
	r := DefaultCatalog()

	def, ok := r.Default()
	require.True(t, ok)
	assert.Equal(t, IDStandard, def.ID)

	// Legacy alias still resolves.
	cfg, ok := r.Resolve("mapnik")
	require.True(t, ok)
	assert.Equal(t, IDStandard, cfg.ID)

	// Data and notes overlays carry geometry-typed sub-layers.
	data, ok := r.Get(IDData)
	require.True(t, ok)
	assert.ElementsMatch(t, []GeomType{GeomLine, GeomCircle}, data.Types)
	assert.False(t, data.Base)

	notes, ok := r.Get(IDNotes)
	require.True(t, ok)
	assert.Greater(t, notes.Priority, data.Priority)

	// The vector base is a composite style source.
	vec, ok := r.Resolve("V")
	require.True(t, ok)
	_, isStyle := vec.Source.(StyleSource)
	assert.True(t, isStyle)

	// Every base except the default has a distinct code.
	seen := map[string]string{}
	for _, b := range r.Bases() {
		if b.Code == "" {
			continue
		}
		prev, dup := seen[b.Code]
		assert.False(t, dup, "code %q used by %q and %q", b.Code, prev, b.ID)
		seen[b.Code] = b.ID
	}
}

func TestLoadCatalog(t *testing.T) {
	doc := `
- id: custom
  name: Custom Tiles
  code: X
  base: true
  source:
    type: raster
    tiles:
      - https://tiles.example.com/{z}/{x}/{y}.png
  maxZoom: 17
- id: hiking
  name: Hiking Routes
  priority: 125
  source:
    type: geojson
  types: [line]
  paint:
    line-color: "#c30"
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r := NewRegistry()
	require.NoError(t, LoadCatalog(path, r))

	cfg, ok := r.Resolve("X")
	require.True(t, ok)
	assert.Equal(t, "custom", cfg.ID)
	raster, isRaster := cfg.Source.(RasterSource)
	require.True(t, isRaster)
	assert.Len(t, raster.Tiles, 1)

	hiking, ok := r.Get("hiking")
	require.True(t, ok)
	assert.Equal(t, []GeomType{GeomLine}, hiking.Types)
	assert.Equal(t, "#c30", hiking.Paint["line-color"])
}

func TestLoadCatalogBadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: bad\n  source:\n    type: wat\n"), 0o644))
	require.Error(t, LoadCatalog(path, NewRegistry()))
}
