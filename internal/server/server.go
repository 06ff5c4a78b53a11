package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-atlas/internal/api"
	"github.com/joeblew999/plat-atlas/internal/api/ui"
	"github.com/joeblew999/plat-atlas/internal/atlas"
	"github.com/joeblew999/plat-atlas/internal/logging"
	"github.com/joeblew999/plat-atlas/internal/mapview"
	"github.com/joeblew999/plat-atlas/internal/metrics"
	"github.com/joeblew999/plat-atlas/internal/service"
	"github.com/joeblew999/plat-atlas/internal/store"
	"github.com/joeblew999/plat-atlas/internal/templates"
	"github.com/joeblew999/plat-atlas/internal/tiler"
	"github.com/joeblew999/plat-atlas/internal/tiler/gotiler"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // Path to web/ directory for static files and templates

	Store     string // store driver, see store.Open
	RedisAddr string

	// Continents is an optional YAML country table replacing the built-in one.
	Continents       string
	ClusterThreshold int
	NoSeed           bool
	// TileEngine builds archives for the UI: "go" or "external".
	TileEngine string

	Logger *slog.Logger
}

// Server is the atlas HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	kv       store.KV
	services *api.Services
	renderer *templates.Renderer
	logger   *slog.Logger
}

// New opens the store, loads the atlas and registers every route.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	resolver := atlas.DefaultResolver()
	if cfg.Continents != "" {
		r, err := atlas.LoadResolver(cfg.Continents)
		if err != nil {
			return nil, err
		}
		resolver = r
	}

	kv, err := store.Open(ctx, store.Config{
		Driver:    cfg.Store,
		DataDir:   cfg.DataDir,
		RedisAddr: cfg.RedisAddr,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}

	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("atlas API", api.Version)
	humaConfig.Info.Description = "Personal travel atlas: cities, statistics, map interaction and basemap tiles."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	storage := service.NewStorage(kv, logger)
	bus := service.NewEventBus()
	var seed []atlas.City
	if !cfg.NoSeed {
		seed = service.SeedCities()
	}
	cities := service.NewCityService(ctx, service.CityServiceConfig{
		Storage:  storage,
		Bus:      bus,
		Resolver: resolver,
		Logger:   logger,
		Seed:     seed,
	})
	services := &api.Services{
		Cities:   cities,
		Settings: service.NewSettingsService(ctx, storage, bus, logger),
		Storage:  storage,
		Tiles:    service.NewTileService(filepath.Join(cfg.DataDir, "tiles")),
		Map: &api.MapState{
			Router:           mapview.Router{Resolver: resolver},
			ClusterThreshold: cfg.ClusterThreshold,
		},
	}

	renderer := templates.Default()
	if cfg.WebDir != "" {
		templatesDir := filepath.Join(cfg.WebDir, "templates")
		if _, err := os.Stat(filepath.Join(templatesDir, "fragments")); err == nil {
			r, err := templates.FromDir(templatesDir)
			if err != nil {
				kv.Close()
				return nil, err
			}
			renderer = r
			logger.Info("templates_loaded", slog.String("dir", templatesDir))
		}
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		kv:       kv,
		services: services,
		renderer: renderer,
		logger:   logger,
	}
	if err := s.routes(); err != nil {
		kv.Close()
		return nil, err
	}
	s.handler = logging.AccessMiddleware(logger)(mux)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the wired services to subcommands.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close closes server resources.
func (s *Server) Close() error {
	return s.kv.Close()
}

// TileConfig is the layer set the UI rebuilds: sources under
// <data>/raw, archives into <data>/tiles.
func TileConfig(dataDir string) tiler.Config {
	cfg := tiler.DefaultConfig()
	cfg.InputDir = filepath.Join(dataDir, "raw")
	cfg.OutputDir = filepath.Join(dataDir, "tiles")
	cfg.TempDir = filepath.Join(dataDir, "temp")
	cfg.EnvFile = ""
	cfg.TilesURL = "/tiles"
	return cfg
}

// TileEngine returns the named engine.
func TileEngine(name, tempDir string) (tiler.Engine, error) {
	switch name {
	case "", "external":
		return tiler.NewExternal(tempDir), nil
	case "go":
		return gotiler.New(), nil
	default:
		return nil, fmt.Errorf("unknown tile engine %q", name)
	}
}

func (s *Server) routes() error {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.DataDir, storeName(s.config.Store)).RegisterRoutes(s.humaAPI)

	// Datastar SSE routes
	ui.NewHandler(s.services.Cities, s.renderer).RegisterRoutes(s.humaAPI)

	tileCfg := TileConfig(s.config.DataDir)
	engine, err := TileEngine(s.config.TileEngine, tileCfg.TempDir)
	if err != nil {
		return err
	}
	ui.NewTileHandler(engine, tileCfg, s.services.Tiles, s.logger).RegisterRoutes(s.humaAPI)

	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.Handle("/tiles/", http.StripPrefix("/tiles/", s.handleTiles(s.services.Tiles.TilesDir())))

	// Static files and the page shell
	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	s.mux.HandleFunc("/", s.handleRoot)
	return nil
}

func storeName(driver string) string {
	if driver == "" {
		return store.DriverFile
	}
	return driver
}

// handleRoot serves web/index.html when present, otherwise a service
// summary.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.config.WebDir != "" {
		index := filepath.Join(s.config.WebDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service": "atlas",
		"status":  "running",
		"cities":  len(s.services.Cities.List()),
	})
}

func (s *Server) handleTiles(tilesDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		http.FileServer(http.Dir(tilesDir)).ServeHTTP(w, r)
	})
}
