// Package marketfs implements flat-file JSON storage for symbol universes
// and the watchlist document.
package marketfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/models"
)

const (
	symbolFilePrefix = "cache_"
	symbolFileSuffix = "_stocks.json"
	watchlistFile    = "data.json"
)

// Store provides file-based JSON storage rooted at one data directory.
type Store struct {
	basePath string
	logger   *common.Logger
}

// NewStore creates a new file store, creating the directory if needed.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data path %s: %w", path, err)
	}

	logger.Info().Str("path", path).Msg("MarketFS store opened")
	return &Store{
		basePath: path,
		logger:   logger,
	}, nil
}

// DataPath returns the base data path.
func (s *Store) DataPath() string {
	return s.basePath
}

// SymbolStore returns the symbol universe storage interface.
func (s *Store) SymbolStore() interfaces.SymbolStore {
	return &symbolStorage{store: s}
}

// WatchlistStore returns the watchlist storage interface.
func (s *Store) WatchlistStore() interfaces.WatchlistStore {
	return &watchlistStorage{store: s}
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

// SymbolFileName returns the artifact name for a market, e.g. cache_hk_stocks.json.
func SymbolFileName(market models.Market) string {
	return symbolFilePrefix + sanitizeKey(strings.ToLower(string(market))) + symbolFileSuffix
}

// --- helpers ---

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("'%s' is empty", filepath.Base(path))
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces target atomically via a temp file in the same directory.
func writeJSON(target string, data interface{}, indent bool) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	var jsonData []byte
	var err error
	if indent {
		jsonData, err = json.MarshalIndent(data, "", "  ")
	} else {
		jsonData, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// --- SymbolStore ---

type symbolStorage struct {
	store *Store
}

func (ss *symbolStorage) path(market models.Market) string {
	return filepath.Join(ss.store.basePath, SymbolFileName(market))
}

func (ss *symbolStorage) UpdatedAt(_ context.Context, market models.Market) (time.Time, error) {
	info, err := os.Stat(ss.path(market))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to stat %s symbol cache: %w", market, err)
	}
	return info.ModTime(), nil
}

func (ss *symbolStorage) LoadSymbols(_ context.Context, market models.Market) ([]models.SymbolEntry, error) {
	var entries []models.SymbolEntry
	if err := readJSON(ss.path(market), &entries); err != nil {
		return nil, fmt.Errorf("failed to load %s symbol cache: %w", market, err)
	}
	return entries, nil
}

func (ss *symbolStorage) SaveSymbols(_ context.Context, market models.Market, entries []models.SymbolEntry) error {
	if entries == nil {
		entries = []models.SymbolEntry{}
	}
	if err := writeJSON(ss.path(market), entries, false); err != nil {
		return fmt.Errorf("failed to save %s symbol cache: %w", market, err)
	}
	ss.store.logger.Debug().Str("market", string(market)).Int("count", len(entries)).Msg("Symbol cache saved")
	return nil
}

// --- WatchlistStore ---

type watchlistStorage struct {
	store *Store
}

func (ws *watchlistStorage) path() string {
	return filepath.Join(ws.store.basePath, watchlistFile)
}

func (ws *watchlistStorage) LoadWatchlist(_ context.Context) (*models.Watchlist, error) {
	wl := &models.Watchlist{}
	if err := readJSON(ws.path(), wl); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &models.Watchlist{Stocks: []models.WatchlistItem{}}, nil
		}
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	if wl.Stocks == nil {
		wl.Stocks = []models.WatchlistItem{}
	}
	return wl, nil
}

func (ws *watchlistStorage) SaveWatchlist(_ context.Context, wl *models.Watchlist) error {
	if wl.Stocks == nil {
		wl.Stocks = []models.WatchlistItem{}
	}
	if err := writeJSON(ws.path(), wl, true); err != nil {
		return fmt.Errorf("failed to save watchlist: %w", err)
	}
	ws.store.logger.Debug().Int("count", len(wl.Stocks)).Msg("Watchlist saved")
	return nil
}
