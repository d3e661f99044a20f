package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"berean/backend/internal/api"
	"berean/backend/internal/config"
	"berean/backend/internal/database"
	"berean/backend/internal/llm"
	"berean/backend/internal/persona"
	"berean/backend/internal/repository"
	"berean/backend/internal/service"
	"berean/backend/internal/stream"
)

// App holds the assembled application: the storage handle (nil for the redis
// and memory backends), the router and the configured HTTP server.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Router *chi.Mux
	Server *http.Server
}

// NewApp wires the full dependency graph from configuration: store backend,
// persona registry, upstream provider, relay client, services and handlers.
func NewApp(cfg *config.Config) (*App, error) {
	setupLogger(cfg.LogLevel)

	var (
		db   *sql.DB
		repo repository.Repository
	)
	switch strings.ToLower(cfg.StorageBackend) {
	case "sqlite", "":
		var err error
		db, err = database.InitDB(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("could not initialize database: %w", err)
		}
		slog.Info("Successfully connected to SQLite database.", "path", cfg.DatabasePath)
		repo = repository.NewSQLiteRepository(db)
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		slog.Info("Using Redis session store.", "addr", cfg.RedisAddr)
		repo = repository.NewRedisRepository(rdb)
	case "memory":
		slog.Warn("Using in-memory session store. Sessions are lost on restart.")
		repo = repository.NewMemoryRepository()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	registry, err := persona.Load(cfg.PersonasPath)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("could not load persona catalog: %w", err)
	}
	slog.Info("Loaded persona catalog", "personas", len(registry.List()))

	provider := llm.NewAnthropicProvider(cfg.AnthropicBaseURL)

	// Services reach the upstream model through the relay endpoint, never
	// directly. Pointing RELAY_URL at another deployment turns this instance
	// into a pure session/orchestration node.
	relayURL := cfg.RelayURL
	if relayURL == "" {
		relayURL = fmt.Sprintf("http://127.0.0.1:%d/api/chat", cfg.AppPort)
	}
	streamClient := stream.NewClient(relayURL, cfg.DefaultModel)

	settingsService := service.NewSettingsService(repo, cfg)
	chatService := service.NewChatService(repo, registry, streamClient, settingsService)
	compareService := service.NewCompareService(repo, registry, streamClient, settingsService)

	relayHandler := api.NewRelayHandler(provider, cfg)
	chatHandler := api.NewChatHandler(chatService, registry)
	compareHandler := api.NewCompareHandler(compareService, registry)
	personaHandler := api.NewPersonaHandler(registry)
	settingsHandler := api.NewSettingsHandler(settingsService)

	router := api.NewRouter(relayHandler, chatHandler, compareHandler, personaHandler, settingsHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return &App{
		Config: cfg,
		DB:     db,
		Router: router,
		Server: server,
	}, nil
}

// Run loads configuration, assembles the app and serves until the listener
// fails. The return value is the process exit code.
func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to assemble application", "error", err)
		return 1
	}
	defer func() {
		if app.DB == nil {
			return
		}
		if err := app.DB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	logConfigSource()

	slog.Info("Starting server", "port", cfg.AppPort)
	if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
