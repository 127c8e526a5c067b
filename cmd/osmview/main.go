package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/osmview/osmview/internal/devserver"
	"github.com/osmview/osmview/internal/elemstore"
	"github.com/osmview/osmview/internal/inspector"
	"github.com/osmview/osmview/internal/logging"
	"github.com/osmview/osmview/pkg/layer"
	"github.com/osmview/osmview/pkg/osm"
)

// Options defines the CLI flags and env vars for the osmview server.
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8090"`
	DataDir   string `doc:"Directory for data files" default:".data"`
	Catalog   string `doc:"Layer catalog YAML file (built-in catalog when empty)"`
	Store     string `doc:"Element store backend: memory or duckdb" default:"memory"`
	Seed      int    `doc:"Seed for the synthetic world of the memory store" default:"42"`
	Data      string `doc:"Elements JSON file to load into the store"`
	LogLevel  string `doc:"Log level: debug, info, warn, error" default:"info"`
	LogFormat string `doc:"Log format: text or json" default:"text"`
}

func buildRegistry(opts *Options) (*layer.Registry, error) {
	registry := layer.DefaultCatalog()
	if opts.Catalog != "" {
		if err := layer.LoadCatalog(opts.Catalog, registry); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func loadElementsFile(path string) ([]osm.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var doc struct {
		Elements []osm.Element `json:"elements"`
	}
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return doc.Elements, nil
}

func buildStore(opts *Options) (elemstore.Store, func(), error) {
	switch opts.Store {
	case "memory":
		m := elemstore.NewMemory(int64(opts.Seed))
		if opts.Data != "" {
			f, err := os.Open(opts.Data)
			if err != nil {
				return nil, nil, err
			}
			defer f.Close()
			if _, err := m.LoadElements(f); err != nil {
				return nil, nil, err
			}
		}
		return m, func() {}, nil
	case "duckdb":
		db, err := elemstore.OpenDuckDB(opts.DataDir, "osmview")
		if err != nil {
			return nil, nil, err
		}
		if opts.Data != "" {
			elements, err := loadElementsFile(opts.Data)
			if err != nil {
				db.Close()
				return nil, nil, err
			}
			if err := db.ImportElements(context.Background(), elements); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return db, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", opts.Store)
	}
}

func newServer(opts *Options, bus *inspector.Bus) (*devserver.Server, func(), error) {
	registry, err := buildRegistry(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}
	store, closeStore, err := buildStore(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	srv := devserver.New(devserver.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		DataDir: opts.DataDir,
		Store:   opts.Store,
	}, store, registry, bus)
	return srv, closeStore, nil
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logging.Setup(opts.LogLevel, opts.LogFormat)

		bus := inspector.NewBus()
		srv, closeStore, err := newServer(opts, bus)
		if err != nil {
			log.Fatalf("startup: %v", err)
		}

		hooks.OnStart(func() {
			defer closeStore()
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("osmview server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Store:   %s (%s)\n", opts.Store, opts.DataDir)
			fmt.Println()
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  Inspect: %s/inspect\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		})
	})

	cli.Root().Use = "osmview"
	cli.Root().Short = "Viewport-synchronized map layer engine and its dev server"
	cli.Root().Version = devserver.Version

	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, closeStore, err := newServer(opts, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer closeStore()

			useYAML, _ := cmd.Flags().GetBool("yaml")
			var output []byte
			if useYAML {
				output, err = yaml.Marshal(srv.OpenAPI())
			} else {
				output, err = json.MarshalIndent(srv.OpenAPI(), "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Root().AddCommand(newWatchCmd())

	cli.Run()
}
