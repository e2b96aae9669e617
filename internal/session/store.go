// Package session keeps per-browser UI state, persisted through key/value storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/interfaces"
)

const keyPrefix = "session:"

// Session is the UI-scoped state of one browser.
type Session struct {
	ID        string            `json:"id"`
	Values    map[string]string `json:"values"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Get returns a value, or "" when unset.
func (s *Session) Get(key string) string {
	return s.Values[key]
}

// Set stores a value.
func (s *Session) Set(key, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = value
}

// Store caches sessions in memory and writes them through to key/value storage.
type Store struct {
	kv     interfaces.KeyValueStorage
	ttl    time.Duration
	logger *common.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// sessionLock is dropped from Store.locks once no holder or waiter refers to it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates a Store. kv may be nil for memory-only sessions.
func NewStore(kv interfaces.KeyValueStorage, ttl time.Duration, logger *common.Logger) *Store {
	return &Store{
		kv:       kv,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sessionLock),
	}
}

// New creates an empty session with a random ID. It is not stored until Save.
func (s *Store) New() *Session {
	return &Session{ID: uuid.New().String(), Values: make(map[string]string), UpdatedAt: time.Now()}
}

// Lock serialises work on one session and returns the unlock function.
func (s *Store) Lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			s.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, id)
			}
			s.locksMu.Unlock()
		})
	}
}

// Get returns a copy of the session. Returns false if not found or expired.
func (s *Store) Get(ctx context.Context, id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		loaded, err := s.load(ctx, id)
		if err != nil {
			if !errors.Is(err, interfaces.ErrNotFound) {
				s.logger.Warn().Err(err).Str("session_id", id).Msg("failed to load session")
			}
			return nil, false
		}
		sess = loaded
		s.mu.Lock()
		s.sessions[id] = sess
		s.mu.Unlock()
	}

	if s.expired(sess, time.Now()) {
		return nil, false
	}
	return clone(sess), true
}

// Save stores the session, stamping UpdatedAt.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	stored := clone(sess)
	stored.UpdatedAt = time.Now()
	sess.UpdatedAt = stored.UpdatedAt

	s.mu.Lock()
	s.sessions[stored.ID] = stored
	s.mu.Unlock()

	if s.kv == nil {
		return nil
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.kv.Set(ctx, keyPrefix+stored.ID, string(data)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	if s.kv == nil {
		return nil
	}
	return s.kv.Delete(ctx, keyPrefix+id)
}

// Cleanup removes expired sessions from memory and storage.
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	now := time.Now()
	removed := 0

	s.mu.Lock()
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	if s.kv == nil {
		return removed, nil
	}

	all, err := s.kv.GetAll(ctx)
	if err != nil {
		return removed, fmt.Errorf("listing sessions: %w", err)
	}
	for key, raw := range all {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		var sess Session
		if err := json.Unmarshal([]byte(raw), &sess); err != nil || s.expired(&sess, now) {
			if err := s.kv.Delete(ctx, key); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func (s *Store) load(ctx context.Context, id string) (*Session, error) {
	if s.kv == nil {
		return nil, interfaces.ErrNotFound
	}
	raw, err := s.kv.Get(ctx, keyPrefix+id)
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.After(sess.UpdatedAt.Add(s.ttl))
}

func clone(sess *Session) *Session {
	c := &Session{ID: sess.ID, UpdatedAt: sess.UpdatedAt, Values: make(map[string]string, len(sess.Values))}
	for k, v := range sess.Values {
		c.Values[k] = v
	}
	return c
}
