// Package storage selects the storage backend.
package storage

import (
	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/config"
	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/storage/badger"
)

// NewStorageManager creates a new storage manager based on config.
func NewStorageManager(logger *common.Logger, cfg *config.Config) (interfaces.StorageManager, error) {
	m, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, err
	}
	return m, nil
}
