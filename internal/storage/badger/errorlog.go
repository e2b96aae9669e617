package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/models"
)

// TimestampLayout renders an entry timestamp for display.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrorLog implements interfaces.ErrorLogSink using BadgerDB.
type ErrorLog struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewErrorLog creates an error log sink backed by BadgerDB.
func NewErrorLog(db *BadgerDB, logger *common.Logger) *ErrorLog {
	return &ErrorLog{db: db, logger: logger}
}

// Append stores entry, filling in a missing ID, timestamp or timestamp text.
func (l *ErrorLog) Append(_ context.Context, entry models.ErrorLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.TimestampText == "" {
		entry.TimestampText = entry.Timestamp.Format(TimestampLayout)
	}
	if entry.ID == "" {
		// Prefix with the timestamp so keys sort chronologically.
		entry.ID = fmt.Sprintf("%020d-%s", entry.Timestamp.UnixNano(), uuid.New().String())
	}

	if err := l.db.Store().Insert(entry.ID, &entry); err != nil {
		return fmt.Errorf("failed to append error log entry: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns all entries.
func (l *ErrorLog) Recent(_ context.Context, n int) ([]models.ErrorLogEntry, error) {
	var entries []models.ErrorLogEntry
	if err := l.db.Store().Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to read error log: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	if entries == nil {
		entries = []models.ErrorLogEntry{}
	}
	return entries, nil
}
