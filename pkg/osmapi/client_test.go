package osmapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/osm"
)

func TestMapData(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/web/map", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", osm.ContentType)
		raw, err := cbor.Marshal(osm.MapPayload{
			Elements: []osm.Element{{Kind: osm.KindNode, ID: 1, Lon: 0.5, Lat: 0.5}},
		})
		require.NoError(t, err)
		w.Write(raw)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	payload, err := c.MapData(context.Background(), geobox.Bounds{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, 50000)
	require.NoError(t, err)
	require.Len(t, payload.Elements, 1)
	assert.False(t, payload.TooMuchData)

	assert.Equal(t, []string{"0,0,1,1"}, gotQuery["bbox"])
	assert.Equal(t, []string{"50000"}, gotQuery["limit"])
}

func TestMapDataNoLimitOmitsParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasLimit := r.URL.Query()["limit"]
		assert.False(t, hasLimit)
		raw, _ := cbor.Marshal(osm.MapPayload{})
		w.Write(raw)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.MapData(context.Background(), geobox.Bounds{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, 0)
	require.NoError(t, err)
}

func TestNotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/web/note/map", r.URL.Path)
		raw, err := cbor.Marshal(osm.NotesPayload{Notes: []osm.Note{
			{ID: 7, Lon: 0.5, Lat: 0.5, Status: osm.NoteOpen, CreatedAt: time.Now(), Text: "hi"},
		}})
		require.NoError(t, err)
		w.Write(raw)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	payload, err := c.Notes(context.Background(), geobox.Bounds{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, 200)
	require.NoError(t, err)
	require.Len(t, payload.Notes, 1)
	assert.Equal(t, "hi", payload.Notes[0].Text)
}

func TestQueryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "query area too large", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.MapData(context.Background(), geobox.Bounds{MinLon: 0, MinLat: 0, MaxLon: 50, MaxLat: 50}, 0)

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, http.StatusBadRequest, qe.StatusCode)
	assert.Contains(t, qe.Body, "too large")
}

func TestContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err = c.MapData(ctx, geobox.Bounds{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, 0)
	require.ErrorIs(t, err, context.Canceled)
}
