package datalayer

import (
	"context"
	"fmt"

	"github.com/osmview/osmview/internal/metrics"
	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/layer"
	"github.com/osmview/osmview/pkg/mapview"
	"github.com/osmview/osmview/pkg/osm"
)

// MapService fetches elements in a bounding box. *osmapi.Client satisfies
// it.
type MapService interface {
	MapData(ctx context.Context, bounds geobox.Bounds, limit int) (*osm.MapPayload, error)
}

// DataLayer keeps the map-data overlay synchronized with the viewport:
// fetched elements are resolved into the object graph and rendered as a
// feature collection.
type DataLayer struct {
	loader
	client MapService
	graph  *osm.Graph // last rendered graph, guarded by loader.mu
}

// NewDataLayer wires a map-data controller to the engine. It starts
// disabled and follows the "data" layer's lifecycle events.
func NewDataLayer(engine *mapview.Engine, client MapService, opts Options) *DataLayer {
	d := &DataLayer{client: client}
	d.loader = loader{
		engine:  engine,
		layerID: layer.IDData,
		limits:  opts.Limits.withDefaults(),
		advise:  opts.OnAdvisory,
	}
	d.areaLimit = d.limits.MapAreaMax
	d.countLimit = d.limits.MapNodesLimit
	d.fetch = d.fetchMap
	d.popupText = d.elementSummary
	d.featurePath = func(id int64) string { return osm.TypedID(id).Path() }
	d.navigate = opts.Navigate
	d.attach([]string{"data:line", "data:circle"})
	return d
}

func (d *DataLayer) fetchMap(ctx context.Context, b geobox.Bounds, limit int) (*fetchResult, error) {
	payload, err := d.client.MapData(ctx, b, limit)
	if err != nil {
		return nil, err
	}
	graph := osm.Resolve(payload.Elements)
	metrics.ResolvedElements.Add(float64(len(payload.Elements)))
	return &fetchResult{
		fc:      graph.FeatureCollection(),
		tooMuch: payload.TooMuchData,
		after:   func() { d.graph = graph },
	}, nil
}

// Graph returns the last rendered element graph.
func (d *DataLayer) Graph() *osm.Graph {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.graph
}

// elementSummary builds the hover popup text. Called under loader.mu.
func (d *DataLayer) elementSummary(featureID int64) string {
	if d.graph == nil {
		return ""
	}
	tid := osm.TypedID(featureID)
	var tags map[string]string
	switch tid.Kind() {
	case osm.KindNode:
		if n := d.graph.Nodes[tid.ID()]; n != nil {
			tags = n.Tags
		}
	case osm.KindWay:
		if w := d.graph.Ways[tid.ID()]; w != nil {
			tags = w.Tags
		}
	case osm.KindRelation:
		if r := d.graph.Relations[tid.ID()]; r != nil {
			tags = r.Tags
		}
	}
	if name := tags["name"]; name != "" {
		return fmt.Sprintf("%s (%s)", name, tid)
	}
	return tid.String()
}
