package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-atlas/internal/logging"
	"github.com/joeblew999/plat-atlas/internal/mapview"
	"github.com/joeblew999/plat-atlas/internal/server"
	"github.com/joeblew999/plat-atlas/internal/service"
	"github.com/joeblew999/plat-atlas/internal/tiler"
)

// Options defines all CLI flags and env vars for the atlas server.
// Flags: --host, --port, --data-dir, --store, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_STORE, ...
type Options struct {
	Host             string `doc:"Host to bind to" default:"0.0.0.0"`
	Port             int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir          string `doc:"Directory for the store and tiles" default:".data"`
	WebDir           string `doc:"Path to web/ directory" default:"web"`
	Store            string `doc:"Key-value backend: file, memory, sqlite, duckdb or redis" default:"file"`
	RedisAddr        string `doc:"Redis address for --store redis" default:"localhost:6379"`
	Continents       string `doc:"YAML country to continent table replacing the built-in one"`
	ClusterThreshold int    `doc:"City count at which map markers cluster" default:"200"`
	NoSeed           bool   `doc:"Start with an empty atlas instead of the sample cities"`
	TileEngine       string `doc:"Engine for UI tile builds: external or go" default:"go"`
	LogLevel         string `doc:"Log level: debug, info, warn, error" default:"info"`
	LogFormat        string `doc:"Log format: text or json" default:"text"`
}

func newLogger(opts *Options) *slog.Logger {
	return logging.New(os.Stderr, logging.Config{Level: opts.LogLevel, Format: opts.LogFormat})
}

func newServer(ctx context.Context, opts *Options) (*server.Server, error) {
	return server.New(ctx, server.Config{
		Host:             opts.Host,
		Port:             fmt.Sprintf("%d", opts.Port),
		DataDir:          opts.DataDir,
		WebDir:           opts.WebDir,
		Store:            opts.Store,
		RedisAddr:        opts.RedisAddr,
		Continents:       opts.Continents,
		ClusterThreshold: opts.ClusterThreshold,
		NoSeed:           opts.NoSeed,
		TileEngine:       opts.TileEngine,
		Logger:           newLogger(opts),
	})
}

// withServer runs fn against a fully wired server and closes it afterwards.
func withServer(opts *Options, fn func(ctx context.Context, srv *server.Server) error) {
	ctx := context.Background()
	srv, err := newServer(ctx, opts)
	if err != nil {
		fail(err)
	}
	err = fn(ctx, srv)
	srv.Close()
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// output opens the --output file, or stdout for "-".
func output(cmd *cobra.Command) (io.WriteCloser, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func main() {
	_ = godotenv.Load(".env")

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var (
			srv        *server.Server
			httpServer *http.Server
		)

		hooks.OnStart(func() {
			logger := newLogger(opts)
			var err error
			srv, err = newServer(context.Background(), opts)
			if err != nil {
				fail(err)
			}
			httpServer = &http.Server{
				Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
				Handler: srv,
			}

			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("atlas server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s (%s store)\n", opts.DataDir, opts.Store)
			fmt.Println()
			fmt.Printf("  Events:  %s/api/v1/events\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server_failed", slog.Any("error", err))
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(ctx)
			srv.Close()
		})
	})

	cli.Root().Use = "atlas"
	cli.Root().Short = "Personal travel atlas: cities, statistics and basemap tiles"
	cli.Root().Version = "0.3.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.Store = "memory"
			withServer(opts, func(ctx context.Context, srv *server.Server) error {
				spec := srv.OpenAPI()

				useYAML, _ := cmd.Flags().GetBool("yaml")

				var data []byte
				var err error
				if useYAML {
					data, err = yaml.Marshal(spec)
				} else {
					data, err = json.MarshalIndent(spec, "", "  ")
				}
				if err != nil {
					return fmt.Errorf("marshaling spec: %w", err)
				}
				fmt.Println(string(data))
				return nil
			})
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// build-tiles subcommand: GeoJSON layers to PMTiles plus .env.local
	buildTilesCmd := &cobra.Command{
		Use:   "build-tiles",
		Short: "Convert GeoJSON layers to PMTiles archives and write the front-end env file",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg := tiler.DefaultConfig()
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				loaded, err := tiler.LoadConfig(path)
				if err != nil {
					fail(err)
				}
				cfg = loaded
			}
			engineName, _ := cmd.Flags().GetString("engine")
			engine, err := server.TileEngine(engineName, cfg.TempDir)
			if err != nil {
				fail(err)
			}

			report, err := tiler.NewBuilder(engine, newLogger(opts)).Build(cmd.Context(), cfg)
			if err != nil {
				fail(err)
			}
			for _, l := range report.Layers {
				fmt.Printf("  %-10s %-8s %s\n", l.Layer, l.Result, l.Output)
			}
			fmt.Printf("%d of %d layers built with %s\n", report.Built(), len(report.Layers), report.Engine)
			if report.EnvFile != "" {
				fmt.Printf("Wrote %s\n", report.EnvFile)
			}
		}),
	}
	buildTilesCmd.Flags().StringP("config", "c", "", "YAML layer config (defaults to cities, admin and roads)")
	buildTilesCmd.Flags().StringP("engine", "e", "external", "Tile engine: external (tippecanoe + pmtiles) or go")
	cli.Root().AddCommand(buildTilesCmd)

	// export subcommand: the import/export JSON document
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write all cities as an importable JSON array",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			withServer(opts, func(ctx context.Context, srv *server.Server) error {
				w, err := output(cmd)
				if err != nil {
					return err
				}
				defer w.Close()
				return service.ExportCitiesJSON(w, srv.Services().Cities.List())
			})
		}),
	}
	exportCmd.Flags().StringP("output", "o", service.ExportFilename(time.Now().UTC()), "Output file, - for stdout")
	cli.Root().AddCommand(exportCmd)

	// export-geojson subcommand: input for the cities tile layer
	exportGeoJSONCmd := &cobra.Command{
		Use:   "export-geojson",
		Short: "Write all cities as a GeoJSON FeatureCollection",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			withServer(opts, func(ctx context.Context, srv *server.Server) error {
				fc := mapview.FeatureCollection(srv.Services().Cities.List(), nil, "")
				data, err := fc.MarshalJSON()
				if err != nil {
					return err
				}
				w, err := output(cmd)
				if err != nil {
					return err
				}
				defer w.Close()
				_, err = w.Write(data)
				return err
			})
		}),
	}
	exportGeoJSONCmd.Flags().StringP("output", "o", "-", "Output file, - for stdout")
	cli.Root().AddCommand(exportGeoJSONCmd)

	// import subcommand: replace the collection from an export file
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all cities with the contents of an exported JSON file",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			withServer(opts, func(ctx context.Context, srv *server.Server) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				cities, err := srv.Services().Cities.Import(ctx, f)
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d cities\n", len(cities))
				return nil
			})
		}),
	}
	cli.Root().AddCommand(importCmd)

	// stats subcommand
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print travel statistics as JSON",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			withServer(opts, func(ctx context.Context, srv *server.Server) error {
				out, err := json.MarshalIndent(srv.Services().Cities.Stats(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			})
		}),
	}
	cli.Root().AddCommand(statsCmd)

	cli.Run()
}
