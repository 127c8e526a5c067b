package layer

// Well-known layer ids. The data-bearing overlays are referenced by the
// viewport data controllers; everything else is addressed through the
// registry.
const (
	IDStandard = "standard"
	IDVector   = "vector"
	IDGPS      = "gps"
	IDData     = "data"
	IDNotes    = "notes"
	IDPreview  = "preview"
)

// Draw priorities. Bases draw first, data overlays on top.
const (
	priorityBase    = 0
	priorityGPS     = 120
	priorityData    = 130
	priorityNotes   = 140
	priorityPreview = 150
)

// DefaultCatalog builds the standard layer table. Called once at startup;
// the returned registry is not mutated afterwards.
func DefaultCatalog() *Registry {
	r := NewRegistry()
	for _, cfg := range []Config{
		{
			ID:      IDStandard,
			Name:    "Standard",
			Code:    "", // default base
			Aliases: []string{"mapnik"},
			Base:    true,
			Source: RasterSource{
				Tiles: []string{"https://tile.openstreetmap.org/{z}/{x}/{y}.png"},
			},
			DarkTiles:   []string{"https://tiles.osm.org/dark/{z}/{x}/{y}.png"},
			MaxZoom:     19,
			Attribution: "© OpenStreetMap contributors",
		},
		{
			ID:   "cyclosm",
			Name: "CyclOSM",
			Code: "Y",
			Base: true,
			Source: RasterSource{
				Tiles: []string{"https://a.tile-cyclosm.openstreetmap.fr/cyclosm/{z}/{x}/{y}.png"},
			},
			MaxZoom:     20,
			Attribution: "© OpenStreetMap contributors. Tiles style by CyclOSM",
		},
		{
			ID:      "cyclemap",
			Name:    "Cycle Map",
			Code:    "C",
			Aliases: []string{"cycle map"},
			Base:    true,
			Source: RasterSource{
				Tiles: []string{"https://tile.thunderforest.com/cycle/{z}/{x}/{y}.png"},
			},
			MaxZoom:     21,
			Attribution: "Tiles courtesy of Andy Allan",
		},
		{
			ID:   "transportmap",
			Name: "Transport Map",
			Code: "T",
			Base: true,
			Source: RasterSource{
				Tiles: []string{"https://tile.thunderforest.com/transport/{z}/{x}/{y}.png"},
			},
			MaxZoom:     21,
			Attribution: "Tiles courtesy of Andy Allan",
		},
		{
			ID:   "tracestracktopo",
			Name: "Tracestrack Topo",
			Code: "P",
			Base: true,
			Source: RasterSource{
				Tiles: []string{"https://tile.tracestrack.com/topo__/{z}/{x}/{y}.png"},
			},
			MaxZoom:     19,
			Attribution: "Tiles courtesy of Tracestrack Maps",
		},
		{
			ID:   "hot",
			Name: "Humanitarian",
			Code: "H",
			Base: true,
			Source: RasterSource{
				Tiles: []string{"https://tile-a.openstreetmap.fr/hot/{z}/{x}/{y}.png"},
			},
			MaxZoom:     20,
			Attribution: "Tiles style by Humanitarian OpenStreetMap Team",
		},
		{
			ID:   IDVector,
			Name: "Vector",
			Code: "V",
			Base: true,
			Source: StyleSource{Style: &StyleDoc{
				Glyphs: "https://vector.osm.org/fonts/{fontstack}/{range}.pbf",
				Sprite: "https://vector.osm.org/sprites/sprite",
				Sources: map[string]map[string]any{
					"shortbread": {
						"type":  "vector",
						"tiles": []any{"https://vector.osm.org/shortbread_v1/{z}/{x}/{y}.mvt"},
					},
				},
				Layers: []StyleLayer{
					{ID: "water", Type: "fill", Source: "shortbread", SourceLayer: "water_polygons",
						Paint: map[string]any{"fill-color": "#a8d4e0"}},
					{ID: "roads", Type: "line", Source: "shortbread", SourceLayer: "streets",
						Paint: map[string]any{"line-color": "#bbb", "line-width": 1.5}},
					{ID: "place-labels", Type: "symbol", Source: "shortbread", SourceLayer: "place_labels",
						Layout: map[string]any{"text-field": "{name}", "text-size": 12}},
				},
			}},
			Attribution: "© OpenStreetMap contributors",
		},
		{
			ID:       IDGPS,
			Name:     "Public GPS Traces",
			Code:     "G",
			Priority: priorityGPS,
			Source: RasterSource{
				Tiles: []string{"https://gps.tile.openstreetmap.org/lines/{z}/{x}/{y}.png"},
			},
			MaxZoom: 21,
		},
		{
			ID:       IDData,
			Name:     "Map Data",
			Code:     "D",
			Priority: priorityData,
			Source:   GeoJSONSource{},
			Types:    []GeomType{GeomLine, GeomCircle},
			Paint: map[string]any{
				"line-color":          "#38f",
				"line-width":          3.0,
				"line-opacity":        0.8,
				"circle-color":        "#38f",
				"circle-radius":       6.0,
				"circle-stroke-color": "#fff",
				"circle-stroke-width": 1.5,
			},
		},
		{
			ID:       IDNotes,
			Name:     "Map Notes",
			Code:     "N",
			Priority: priorityNotes,
			Source:   GeoJSONSource{},
			Types:    []GeomType{GeomCircle, GeomSymbol},
			Paint: map[string]any{
				"circle-color":  []any{"match", []any{"get", "status"}, "closed", "#2e7d32", "#c62828"},
				"circle-radius": 10.0,
			},
			Layout: map[string]any{
				"icon-image":         "note",
				"icon-allow-overlap": true,
			},
		},
		{
			ID:       IDPreview,
			Name:     "Changes Preview",
			Priority: priorityPreview,
			Source:   GeoJSONSource{},
			Types:    []GeomType{GeomFill, GeomLine, GeomCircle},
			Paint: map[string]any{
				"fill-color":     "#f60",
				"fill-opacity":   0.3,
				"line-color":     "#f60",
				"line-width":     4.0,
				"circle-color":   "#f60",
				"circle-radius":  7.0,
				"circle-opacity": 0.9,
			},
		},
	} {
		if err := r.Register(cfg); err != nil {
			// The table above is static; a failure here is a programming
			// error caught by the catalog tests.
			panic(err)
		}
	}
	return r
}
