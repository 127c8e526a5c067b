package layer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlEntry is the on-disk catalog form. Source is flattened into a tagged
// struct since the Source interface cannot be unmarshalled directly.
type yamlEntry struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Code     string   `yaml:"code"`
	Aliases  []string `yaml:"aliases"`
	Base     bool     `yaml:"base"`
	Priority int      `yaml:"priority"`
	Source   struct {
		Type     string                    `yaml:"type"` // raster | geojson | style
		Tiles    []string                  `yaml:"tiles"`
		TileSize int                       `yaml:"tileSize"`
		Glyphs   string                    `yaml:"glyphs"`
		Sprite   string                    `yaml:"sprite"`
		Sources  map[string]map[string]any `yaml:"sources"`
		Layers   []StyleLayer              `yaml:"layers"`
	} `yaml:"source"`
	Types       []GeomType     `yaml:"types"`
	Paint       map[string]any `yaml:"paint"`
	Layout      map[string]any `yaml:"layout"`
	DarkTiles   []string       `yaml:"darkTiles"`
	MaxZoom     int            `yaml:"maxZoom"`
	Attribution string         `yaml:"attribution"`
}

// LoadCatalog reads a YAML catalog file and registers every entry into r.
// Used by the dev tooling to extend the default catalog.
func LoadCatalog(path string, r *Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var entries []yamlEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for _, e := range entries {
		cfg := Config{
			ID:          e.ID,
			Name:        e.Name,
			Code:        e.Code,
			Aliases:     e.Aliases,
			Base:        e.Base,
			Priority:    e.Priority,
			Types:       e.Types,
			Paint:       e.Paint,
			Layout:      e.Layout,
			DarkTiles:   e.DarkTiles,
			MaxZoom:     e.MaxZoom,
			Attribution: e.Attribution,
		}
		switch e.Source.Type {
		case "raster":
			cfg.Source = RasterSource{Tiles: e.Source.Tiles, TileSize: e.Source.TileSize}
		case "geojson":
			cfg.Source = GeoJSONSource{}
		case "style":
			cfg.Source = StyleSource{Style: &StyleDoc{
				Glyphs:  e.Source.Glyphs,
				Sprite:  e.Source.Sprite,
				Sources: e.Source.Sources,
				Layers:  e.Source.Layers,
			}}
		default:
			return fmt.Errorf("catalog entry %q: unknown source type %q", e.ID, e.Source.Type)
		}
		if err := r.Register(cfg); err != nil {
			return fmt.Errorf("catalog entry %q: %w", e.ID, err)
		}
	}
	return nil
}
