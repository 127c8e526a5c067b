package layer

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds layer configurations keyed by canonical id. Lookups by
// compact code or legacy alias go through a derived reverse index that is
// built lazily and cached until the next registration invalidates it.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]Config
	reverse map[string]string // code or alias -> canonical id, nil until built
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]Config)}
}

// Register inserts a configuration. Duplicate ids and duplicate non-empty
// codes are rejected.
func (r *Registry) Register(cfg Config) error {
	if cfg.ID == "" {
		return fmt.Errorf("layer config has no id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[cfg.ID]; exists {
		return fmt.Errorf("layer %q already registered", cfg.ID)
	}
	if cfg.Code != "" {
		for _, other := range r.configs {
			if other.Code == cfg.Code {
				return fmt.Errorf("layer code %q already used by %q", cfg.Code, other.ID)
			}
		}
	}
	r.configs[cfg.ID] = cfg
	r.reverse = nil // invalidate the cached reverse index
	return nil
}

// Get returns the configuration for a canonical id.
func (r *Registry) Get(id string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	return cfg, ok
}

// Resolve maps a canonical id, a compact code or a legacy alias to its
// configuration.
func (r *Registry) Resolve(ref string) (Config, bool) {
	r.mu.RLock()
	if cfg, ok := r.configs[ref]; ok {
		r.mu.RUnlock()
		return cfg, true
	}
	rev := r.reverse
	r.mu.RUnlock()

	if rev == nil {
		rev = r.buildReverse()
	}
	id, ok := rev[normalizeRef(ref)]
	if !ok {
		return Config{}, false
	}
	return r.Get(id)
}

func (r *Registry) buildReverse() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reverse != nil {
		return r.reverse
	}
	rev := make(map[string]string)
	for id, cfg := range r.configs {
		if cfg.Code != "" {
			rev[normalizeRef(cfg.Code)] = id
		}
		for _, alias := range cfg.Aliases {
			rev[normalizeRef(alias)] = id
		}
	}
	r.reverse = rev
	return rev
}

func normalizeRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

// All returns every configuration ordered by priority, then id.
func (r *Registry) All() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Config, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Bases returns the base layers, ordered.
func (r *Registry) Bases() []Config {
	var out []Config
	for _, cfg := range r.All() {
		if cfg.Base {
			out = append(out, cfg)
		}
	}
	return out
}

// Overlays returns the non-base layers, ordered.
func (r *Registry) Overlays() []Config {
	var out []Config
	for _, cfg := range r.All() {
		if !cfg.Base {
			out = append(out, cfg)
		}
	}
	return out
}

// Default returns the default base layer: the base registered with an empty
// code.
func (r *Registry) Default() (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cfg := range r.configs {
		if cfg.Base && cfg.Code == "" {
			return cfg, true
		}
	}
	return Config{}, false
}

// PriorityOf returns the draw priority of the layer owning a drawable id.
// Drawable ids are namespaced "layerId:sub"; ids not owned by a registered
// layer report ok=false.
func (r *Registry) PriorityOf(drawableID string) (int, bool) {
	id := drawableID
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[:i]
	}
	cfg, ok := r.Get(id)
	if !ok {
		return 0, false
	}
	return cfg.Priority, true
}
