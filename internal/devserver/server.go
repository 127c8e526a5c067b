// Package devserver is the development server behind the viewer: it hosts
// the CBOR bounding-box query endpoints, a small OpenAPI-documented
// management API, Prometheus metrics and the live inspector page.
package devserver

import (
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osmview/osmview/internal/elemstore"
	"github.com/osmview/osmview/internal/inspector"
	"github.com/osmview/osmview/pkg/layer"
)

// Version reported by the health and info endpoints.
const Version = "0.1.0"

// Config holds the server configuration. The area and count caps are the
// server-side enforcement of the query limits; requests without a limit
// parameter bypass both.
type Config struct {
	Host    string
	Port    string
	DataDir string
	Store   string // backing store kind, for the info endpoint

	MapAreaMax    float64 // square degrees
	MapNodesLimit int
	NoteAreaMax   float64 // square degrees
	NotesLimit    int
}

func (c Config) withDefaults() Config {
	if c.MapAreaMax == 0 {
		c.MapAreaMax = 0.25
	}
	if c.MapNodesLimit == 0 {
		c.MapNodesLimit = 50_000
	}
	if c.NoteAreaMax == 0 {
		c.NoteAreaMax = 25
	}
	if c.NotesLimit == 0 {
		c.NotesLimit = 200
	}
	return c
}

// Server is the osmview development server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	store    elemstore.Store
	registry *layer.Registry
	bus      *inspector.Bus
}

// New creates a server over the given store and layer registry. A nil bus
// disables the inspector page.
func New(cfg Config, store elemstore.Store, registry *layer.Registry, bus *inspector.Bus) *Server {
	cfg = cfg.withDefaults()
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("osmview API", Version)
	humaConfig.Info.Description = "Map layer catalog and bounding-box query endpoints for the osmview viewer."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humago.New(mux, humaConfig),
		store:    store,
		registry: registry,
		bus:      bus,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

func (s *Server) routes() {
	huma.AutoRegister(s.humaAPI, newAPIHandler(s.config, s.registry))

	// The query endpoints speak CBOR, outside Huma's content negotiation.
	s.mux.HandleFunc("GET /api/web/map", s.handleMap)
	s.mux.HandleFunc("GET /api/web/note/map", s.handleNotes)

	s.mux.Handle("GET /metrics", promhttp.Handler())

	if s.bus != nil {
		inspector.NewHandler(s.bus).Register(s.mux)
	}
}

func (s *Server) publish(e inspector.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
