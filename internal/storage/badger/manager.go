package badger

import (
	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/config"
	"github.com/bobmcallan/stockdash/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db       *BadgerDB
	kv       interfaces.KeyValueStorage
	errorLog interfaces.ErrorLogSink
	logger   *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger, cfg *config.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		kv:       NewKVStorage(db, logger),
		errorLog: NewErrorLog(db, logger),
		logger:   logger,
	}

	logger.Debug().Msg("Badger storage manager initialized")

	return manager, nil
}

// KeyValueStorage returns the KeyValue storage interface.
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// ErrorLog returns the error log sink.
func (m *Manager) ErrorLog() interfaces.ErrorLogSink {
	return m.errorLog
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
