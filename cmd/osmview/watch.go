package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/osmview/osmview/internal/inspector"
	"github.com/osmview/osmview/internal/logging"
	"github.com/osmview/osmview/internal/prefstore"
	"github.com/osmview/osmview/pkg/datalayer"
	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/layer"
	"github.com/osmview/osmview/pkg/mapview"
	"github.com/osmview/osmview/pkg/osmapi"
)

// newWatchCmd builds the watch subcommand: a headless viewer session that
// pans a scripted viewport over a running server, exercising the full
// engine and controller stack. Useful for eyeballing fetch behavior on the
// inspector page without a browser map.
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a headless viewer session against a server",
		Run:   runWatch,
	}
	cmd.Flags().String("server", "http://localhost:8090", "Base URL of the osmview server")
	cmd.Flags().String("bbox", "0,0,0.08,0.06", "Starting viewport (minLon,minLat,maxLon,maxLat)")
	cmd.Flags().Int("steps", 10, "Number of scripted pans")
	cmd.Flags().Float64("pan", 0.25, "Pan distance per step, fraction of viewport width")
	cmd.Flags().Duration("interval", 2*time.Second, "Delay between pans")
	cmd.Flags().String("inspect", "", "Serve the inspector page on this address (e.g. :8091)")
	cmd.Flags().String("data-dir", ".data", "Directory for the preference store")
	cmd.Flags().String("log-level", "info", "Log level")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) {
	serverURL, _ := cmd.Flags().GetString("server")
	bbox, _ := cmd.Flags().GetString("bbox")
	steps, _ := cmd.Flags().GetInt("steps")
	pan, _ := cmd.Flags().GetFloat64("pan")
	interval, _ := cmd.Flags().GetDuration("interval")
	inspectAddr, _ := cmd.Flags().GetString("inspect")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	logLevel, _ := cmd.Flags().GetString("log-level")

	logging.Setup(logLevel, "text")

	view, err := geobox.ParseBBox(bbox)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad --bbox: %v\n", err)
		os.Exit(1)
	}

	if err := watch(serverURL, view, steps, pan, interval, inspectAddr, dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func watch(serverURL string, view geobox.Bounds, steps int, pan float64, interval time.Duration, inspectAddr, dataDir string) error {
	client, err := osmapi.New(serverURL)
	if err != nil {
		return err
	}
	prefs := prefstore.Open(filepath.Join(dataDir, "prefs.json"))

	bus := inspector.NewBus()
	if inspectAddr != "" {
		mux := http.NewServeMux()
		inspector.NewHandler(bus).Register(mux)
		mux.Handle("GET /metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(inspectAddr, mux); err != nil {
				slog.Error("inspector server failed", "error", err)
			}
		}()
		fmt.Printf("Inspector: http://localhost%s/inspect\n", inspectAddr)
	}

	surface := mapview.NewHeadless(view, 16)
	engine := mapview.New(surface, layer.DefaultCatalog(), prefs)

	engine.Subscribe(func(ev mapview.Event) {
		detail := "removed"
		if ev.Added {
			detail = "added"
		}
		bus.Publish(inspector.Event{Kind: "layer", Layer: ev.LayerID, Detail: detail})
	})

	opts := datalayer.Options{
		OnAdvisory: func(adv datalayer.Advisory) {
			bus.Publish(inspector.Event{
				Kind:  "advisory",
				Layer: adv.LayerID,
				Detail: fmt.Sprintf("area %.4f exceeds %.4f, loading anyway",
					adv.Area, adv.Limit),
			})
			adv.LoadAnyway()
		},
		Navigate: func(path string) {
			bus.Publish(inspector.Event{Kind: "navigate", Detail: path})
		},
	}
	data := datalayer.NewDataLayer(engine, client, opts)
	notes := datalayer.NewNotesLayer(engine, client, opts)
	defer data.Close()
	defer notes.Close()

	if base, ok := engine.StoredBase(); ok {
		engine.SetBaseLayer(base)
	}
	engine.AddLayer(layer.IDData)
	engine.AddLayer(layer.IDNotes)

	width := view.MaxLon - view.MinLon
	if view.Wrapped() {
		width += 360
	}
	step := width * pan

	for i := 0; i < steps; i++ {
		time.Sleep(interval)
		view = geobox.Bounds{
			MinLon: view.MinLon + step,
			MinLat: view.MinLat,
			MaxLon: view.MaxLon + step,
			MaxLat: view.MaxLat,
		}
		surface.PanTo(view)
		bus.Publish(inspector.Event{Kind: "viewport", Detail: view.String()})
	}

	// Let the last fetches land before reporting.
	time.Sleep(2 * time.Second)

	report := func(name, source string) {
		n := 0
		if fc := surface.SourceData(source); fc != nil {
			n = len(fc.Features)
		}
		fmt.Printf("  %-6s %d features rendered\n", name, n)
	}
	fmt.Printf("Session finished at %s\n", view)
	report("data", layer.IDData)
	report("notes", layer.IDNotes)
	if fetched, ok := data.FetchedBounds(); ok {
		fmt.Printf("  last data fetch viewport: %s\n", fetched)
	}
	return nil
}
