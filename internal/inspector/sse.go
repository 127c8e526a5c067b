package inspector

import (
	"fmt"
	"html"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

const page = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>osmview inspector</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<style>
body { font-family: monospace; margin: 1rem; }
#events div { padding: 2px 0; border-bottom: 1px solid #eee; }
.kind { display: inline-block; min-width: 6rem; color: #555; }
.layer { display: inline-block; min-width: 5rem; color: #06c; }
</style>
</head>
<body data-on-load="@get('/inspect/events')">
<h3>osmview inspector</h3>
<div id="events"></div>
</body>
</html>
`

// Handler serves the inspector page and its SSE event stream.
type Handler struct {
	bus *Bus
}

// NewHandler creates an inspector handler on the bus.
func NewHandler(bus *Bus) *Handler {
	return &Handler{bus: bus}
}

// Register mounts the inspector routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/inspect", h.page)
	mux.HandleFunc("/inspect/events", h.events)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

// events streams bus events into the page's #events list.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ch := h.bus.Subscribe()
	defer h.bus.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			row := fmt.Sprintf(
				`<div><span class="kind">%s</span><span class="layer">%s</span> %s <small>%s</small></div>`,
				html.EscapeString(ev.Kind),
				html.EscapeString(ev.Layer),
				html.EscapeString(ev.Detail),
				ev.Time.Format("15:04:05.000"),
			)
			sse.PatchElements(row,
				datastar.WithSelector("#events"),
				datastar.WithModeAppend(),
			)
		}
	}
}
