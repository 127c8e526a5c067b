package devserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/osmview/osmview/internal/inspector"
	"github.com/osmview/osmview/internal/metrics"
	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/osm"
)

// parseLimit reads the limit query parameter. An absent parameter means
// uncapped: that is the client's "load anyway" override, and it skips the
// area check as well.
func parseLimit(r *http.Request, serverMax int) (limit int, capped bool, err error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false, fmt.Errorf("bad limit %q", raw)
	}
	if n > serverMax {
		n = serverMax
	}
	return n, true, nil
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	b, err := geobox.ParseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		s.queryError(w, "map", http.StatusBadRequest, err.Error())
		return
	}
	limit, capped, err := parseLimit(r, s.config.MapNodesLimit)
	if err != nil {
		s.queryError(w, "map", http.StatusBadRequest, err.Error())
		return
	}
	if capped {
		if area := geobox.Size(b); area > s.config.MapAreaMax {
			s.queryError(w, "map", http.StatusBadRequest,
				fmt.Sprintf("query area %.4f exceeds maximum %.4f", area, s.config.MapAreaMax))
			return
		}
	}

	elements, truncated, err := s.store.Elements(r.Context(), b, limit)
	if err != nil {
		s.queryError(w, "map", http.StatusInternalServerError, "query failed")
		slog.Error("map query failed", "bbox", b, "error", err)
		return
	}

	s.publish(inspector.Event{
		Kind:   "query",
		Layer:  "data",
		Detail: fmt.Sprintf("bbox=%s elements=%d truncated=%t", b, len(elements), truncated),
	})
	s.writeCBOR(w, "map", &osm.MapPayload{Elements: elements, TooMuchData: truncated})
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	b, err := geobox.ParseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		s.queryError(w, "notes", http.StatusBadRequest, err.Error())
		return
	}
	limit, capped, err := parseLimit(r, s.config.NotesLimit)
	if err != nil {
		s.queryError(w, "notes", http.StatusBadRequest, err.Error())
		return
	}
	if capped {
		if area := geobox.Size(b); area > s.config.NoteAreaMax {
			s.queryError(w, "notes", http.StatusBadRequest,
				fmt.Sprintf("query area %.4f exceeds maximum %.4f", area, s.config.NoteAreaMax))
			return
		}
	}

	notes, err := s.store.Notes(r.Context(), b, limit)
	if err != nil {
		s.queryError(w, "notes", http.StatusInternalServerError, "query failed")
		slog.Error("notes query failed", "bbox", b, "error", err)
		return
	}

	s.publish(inspector.Event{
		Kind:   "query",
		Layer:  "notes",
		Detail: fmt.Sprintf("bbox=%s notes=%d", b, len(notes)),
	})
	s.writeCBOR(w, "notes", &osm.NotesPayload{Notes: notes})
}

func (s *Server) writeCBOR(w http.ResponseWriter, endpoint string, payload any) {
	body, err := cbor.Marshal(payload)
	if err != nil {
		s.queryError(w, endpoint, http.StatusInternalServerError, "encoding failed")
		slog.Error("payload encoding failed", "endpoint", endpoint, "error", err)
		return
	}
	metrics.QueryRequests.WithLabelValues(endpoint, "200").Inc()
	w.Header().Set("Content-Type", osm.ContentType)
	w.Write(body)
}

func (s *Server) queryError(w http.ResponseWriter, endpoint string, status int, msg string) {
	metrics.QueryRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	http.Error(w, msg, status)
}
