package devserver

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/osmview/osmview/pkg/layer"
)

// APIHandler holds the OpenAPI-documented JSON handlers. Methods named
// Register* are picked up by huma.AutoRegister.
type APIHandler struct {
	config   Config
	registry *layer.Registry
}

func newAPIHandler(cfg Config, registry *layer.Registry) *APIHandler {
	return &APIHandler{config: cfg, registry: registry}
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"Service version" example:"0.1.0"`
}

type InfoBody struct {
	Name        string  `json:"name" doc:"Service name"`
	Version     string  `json:"version" doc:"Service version"`
	DataDir     string  `json:"data_dir,omitempty" doc:"Data directory path"`
	Store       string  `json:"store" doc:"Backing element store kind"`
	LayerCount  int     `json:"layer_count" doc:"Number of registered layers"`
	MapAreaMax  float64 `json:"map_area_max" doc:"Largest capped map query area, square degrees"`
	NodesLimit  int     `json:"nodes_limit" doc:"Server-side element count cap"`
	NoteAreaMax float64 `json:"note_area_max" doc:"Largest capped notes query area, square degrees"`
	NotesLimit  int     `json:"notes_limit" doc:"Server-side note count cap"`
}

// LayerInfo describes one registered layer for clients building a layer
// picker.
type LayerInfo struct {
	ID          string   `json:"id" doc:"Layer identifier" example:"standard"`
	Name        string   `json:"name" doc:"Display name"`
	Code        string   `json:"code,omitempty" doc:"Keyboard shortcut code" example:"C"`
	Aliases     []string `json:"aliases,omitempty" doc:"Alternate identifiers"`
	Kind        string   `json:"kind" doc:"Source kind" enum:"raster,style,geojson"`
	Base        bool     `json:"base" doc:"Whether this is a mutually exclusive base layer"`
	Priority    int      `json:"priority" doc:"Draw priority, lower draws first"`
	Attribution string   `json:"attribution,omitempty" doc:"Map attribution HTML"`
}

// RegisterHealth registers the health check route.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterInfo registers the service info route.
func (h *APIHandler) RegisterInfo(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

// RegisterLayers registers the layer catalog routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{ref}", h.GetLayer, huma.OperationTags("layers"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:        "osmview",
		Version:     Version,
		DataDir:     h.config.DataDir,
		Store:       h.config.Store,
		LayerCount:  len(h.registry.All()),
		MapAreaMax:  h.config.MapAreaMax,
		NodesLimit:  h.config.MapNodesLimit,
		NoteAreaMax: h.config.NoteAreaMax,
		NotesLimit:  h.config.NotesLimit,
	}}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*struct{ Body []LayerInfo }, error) {
	all := h.registry.All()
	out := make([]LayerInfo, 0, len(all))
	for _, cfg := range all {
		out = append(out, layerInfo(cfg))
	}
	return &struct{ Body []LayerInfo }{Body: out}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *struct {
	Ref string `path:"ref" doc:"Layer id, code or alias" example:"standard"`
}) (*struct{ Body LayerInfo }, error) {
	cfg, ok := h.registry.Resolve(input.Ref)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &struct{ Body LayerInfo }{Body: layerInfo(cfg)}, nil
}

func layerInfo(cfg layer.Config) LayerInfo {
	kind := ""
	switch cfg.Source.(type) {
	case layer.RasterSource:
		kind = "raster"
	case layer.StyleSource:
		kind = "style"
	case layer.GeoJSONSource:
		kind = "geojson"
	}
	return LayerInfo{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Code:        cfg.Code,
		Aliases:     cfg.Aliases,
		Kind:        kind,
		Base:        cfg.Base,
		Priority:    cfg.Priority,
		Attribution: cfg.Attribution,
	}
}
