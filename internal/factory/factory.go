package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/mcoot/roomserver/internal/dependencies/clock"
	"github.com/mcoot/roomserver/internal/dependencies/random"
	"github.com/mcoot/roomserver/internal/services/dispatch"
	"github.com/mcoot/roomserver/internal/services/journal"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/services/room"
	"github.com/mcoot/roomserver/internal/storage"
	"github.com/mcoot/roomserver/internal/storage/memory"
	redisstorage "github.com/mcoot/roomserver/internal/storage/redis"
	"github.com/mcoot/roomserver/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Registry   *registry.Registry
	Rooms      *room.Manager
	Journal    *journal.Journal
	Dispatcher *dispatch.Dispatcher

	// Transport
	Hub       *ws.Hub
	WSHandler *ws.Handler

	logger *slog.Logger
	wg     sync.WaitGroup
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config

	// Component settings; zero values fall back to each DefaultConfig
	Room      room.Config
	Journal   journal.Config
	Dispatch  dispatch.Config
	WebSocket ws.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	cfg = withDefaults(cfg)

	reg := registry.New(clk)
	rooms := room.NewManager(cfg.Room, clk, logger)
	jrnl := journal.New(cfg.Journal, store, logger)
	dispatcher := dispatch.New(cfg.Dispatch, reg, rooms, jrnl, clk, logger)
	hub := ws.NewHub(logger)
	wsHandler := ws.NewHandler(cfg.WebSocket, hub, dispatcher, rnd, logger)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Registry:   reg,
		Rooms:      rooms,
		Journal:    jrnl,
		Dispatcher: dispatcher,
		Hub:        hub,
		WSHandler:  wsHandler,
		logger:     logger,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Room == (room.Config{}) {
		cfg.Room = room.DefaultConfig()
	}
	if cfg.Journal == (journal.Config{}) {
		cfg.Journal = journal.DefaultConfig()
	}
	if cfg.Dispatch == (dispatch.Config{}) {
		cfg.Dispatch = dispatch.DefaultConfig()
	}
	if cfg.WebSocket == (ws.Config{}) {
		cfg.WebSocket = ws.DefaultConfig()
	}
	return cfg
}

// Start launches the journal writer and the dispatch loop. Both stop when
// ctx is cancelled; Wait blocks until they have.
func (a *App) Start(ctx context.Context) {
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.Journal.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.Dispatcher.Run(ctx, a.Hub)
	}()
}

// Wait blocks until the loops started by Start have returned, then closes
// storage if it holds a connection.
func (a *App) Wait() {
	a.wg.Wait()
	if closer, ok := a.Storage.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("storage close failed", slog.String("error", err.Error()))
		}
	}
}
