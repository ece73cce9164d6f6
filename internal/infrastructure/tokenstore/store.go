// Package tokenstore persists the active session's token record to disk so
// a restart can resume a signed-in session without a fresh sign-in.
package tokenstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/session"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/security"
)

// Store reads and writes one TokenRecord per session key. Any unreadable or
// undecryptable record is treated as absent: a corrupt token file must never
// block startup, it just means the session resumes signed-out.
type Store struct {
	dir     string
	aesKey  string
	logger  *logging.ChanneledLogger
	mu      sync.Mutex
	onClear func(key string)
}

func New(dir, aesKey string, logger *logging.ChanneledLogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Store{dir: dir, aesKey: aesKey, logger: logger}, nil
}

// OnClear registers a callback invoked when a previously stored record is
// found missing or unreadable, so callers can propagate a signed-out state.
func (s *Store) OnClear(fn func(key string)) {
	s.mu.Lock()
	s.onClear = fn
	s.mu.Unlock()
}

// Load returns the stored record for key, or nil when no usable record
// exists. It never returns an error for corrupt contents.
func (s *Store) Load(key string) *session.TokenRecord {
	path := s.path(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Auth().Warn("Token record unreadable, treating as signed out", "key", key, "error", err)
			s.clear(key, path)
		}
		return nil
	}

	payload := string(raw)
	if s.aesKey != "" {
		payload, err = security.Decrypt(payload, s.aesKey)
		if err != nil {
			s.logger.Auth().Warn("Token record failed decryption, treating as signed out", "key", key, "error", err)
			s.clear(key, path)
			return nil
		}
	}

	var record session.TokenRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		s.logger.Auth().Warn("Token record corrupt, treating as signed out", "key", key, "error", err)
		s.clear(key, path)
		return nil
	}
	return &record
}

// Save writes the record for key. Persistence is best-effort: a write
// failure is logged and swallowed so the in-memory session keeps working.
func (s *Store) Save(key string, record *session.TokenRecord) {
	encoded, err := json.Marshal(record)
	if err != nil {
		s.logger.Auth().Error("Failed to encode token record", "key", key, "error", err)
		return
	}

	payload := string(encoded)
	if s.aesKey != "" {
		payload, err = security.Encrypt(payload, s.aesKey)
		if err != nil {
			s.logger.Auth().Error("Failed to encrypt token record", "key", key, "error", err)
			return
		}
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(payload), 0o600); err != nil {
		s.logger.Auth().Error("Failed to persist token record", "key", key, "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		s.logger.Auth().Error("Failed to persist token record", "key", key, "error", err)
	}
}

// Clear removes the stored record for key.
func (s *Store) Clear(key string) {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Auth().Warn("Failed to remove token record", "key", key, "error", err)
	}
}

func (s *Store) clear(key, path string) {
	_ = os.Remove(path)
	s.mu.Lock()
	fn := s.onClear
	s.mu.Unlock()
	if fn != nil {
		fn(key)
	}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".token")
}

// sanitizeKey keeps file names flat regardless of what callers pass.
func sanitizeKey(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "default"
	}
	return string(out)
}
