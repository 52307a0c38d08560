// Package app wires configuration, storage, the upstream client and the
// pipeline services into one shared core.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fanwj03/YieldMapper/internal/clients/aktools"
	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/services/dividend"
	"github.com/fanwj03/YieldMapper/internal/services/fx"
	"github.com/fanwj03/YieldMapper/internal/services/search"
	"github.com/fanwj03/YieldMapper/internal/services/symbols"
	"github.com/fanwj03/YieldMapper/internal/services/watchlist"
	"github.com/fanwj03/YieldMapper/internal/storage"
)

// App holds all initialized services and clients.
// It is the shared core used by cmd/yieldmapper-server and cmd/yieldmapper.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	MarketClient     interfaces.MarketDataClient
	SymbolCache      interfaces.SymbolCache
	Resolver         interfaces.SymbolResolver
	DividendService  interfaces.DividendService
	FXService        interfaces.FXService
	SearchService    interfaces.SearchService
	WatchlistService interfaces.WatchlistService
	StartupTime      time.Time

	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, then
// YIELDMAPPER_CONFIG, then yieldmapper.toml next to the binary, then the
// development fallback under config/.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("YIELDMAPPER_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "yieldmapper.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/yieldmapper.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and initializes storage, the upstream client
// and every service. configPath may be empty.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppFromConfig(config)
}

// NewAppFromConfig initializes the App from an already loaded config.
func NewAppFromConfig(config *common.Config) (*App, error) {
	startupStart := time.Now()

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	aktoolsCfg := config.Clients.AKTools
	client := aktools.NewClient(
		aktools.WithBaseURL(aktoolsCfg.BaseURL),
		aktools.WithLogger(logger),
		aktools.WithRateLimit(aktoolsCfg.RateLimit),
		aktools.WithTimeout(aktoolsCfg.GetTimeout()),
	)

	cache := symbols.NewCache(client, storageManager.SymbolStore(), config.Cache.GetSymbolTTL(), logger)
	resolver := symbols.NewResolver(client, cache, logger)
	dividendService := dividend.NewService(client, logger)
	fxService := fx.NewService(client, config.FX.FallbackRate, logger)
	searchService := search.NewService(resolver, dividendService, fxService, logger)
	watchlistService := watchlist.NewService(storageManager, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		MarketClient:     client,
		SymbolCache:      cache,
		Resolver:         resolver,
		DividendService:  dividendService,
		FXService:        fxService,
		SearchService:    searchService,
		WatchlistService: watchlistService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel warm cache, close storage.
func (a *App) Close() {
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// StartWarmCache launches the background symbol-universe warming goroutine.
func (a *App) StartWarmCache() {
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		warmCache(warmCtx, a.SymbolCache, a.Logger)
	}()
}
