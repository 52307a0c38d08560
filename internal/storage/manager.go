// Package storage provides the top-level StorageManager over the flat-file
// data directory.
package storage

import (
	"fmt"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/storage/marketfs"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	files  *marketfs.Store
	logger *common.Logger
}

var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager opens the file store at the configured data path.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	files, err := marketfs.NewStore(logger, config.Storage.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}

	logger.Info().Str("data_path", config.Storage.DataPath).Msg("Storage manager initialized")

	return &Manager{
		files:  files,
		logger: logger,
	}, nil
}

func (m *Manager) SymbolStore() interfaces.SymbolStore {
	return m.files.SymbolStore()
}

func (m *Manager) WatchlistStore() interfaces.WatchlistStore {
	return m.files.WatchlistStore()
}

func (m *Manager) DataPath() string {
	return m.files.DataPath()
}

func (m *Manager) Close() error {
	return m.files.Close()
}
