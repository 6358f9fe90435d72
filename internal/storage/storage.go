// Package storage is a best-effort JSON key-value store backed by files in a
// single directory, one file per key. Callers treat it like a browser's
// localStorage: reads fall back, writes never fail loudly. Failures are still
// logged so operators can see them.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Load reads the JSON value under key into v. It returns false and leaves v
// untouched when the key is missing or the stored bytes are not valid JSON,
// so callers pre-fill v with their fallback. It never returns an error.
func (s *Store) Load(key string, v interface{}) bool {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("storage read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn("storage entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Save writes v as JSON under key. Serialization and write failures are
// swallowed after logging; callers cannot distinguish a failed save from a
// successful one and must not depend on one.
func (s *Store) Save(key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("storage serialize failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path(key), raw, 0o644); err != nil {
		s.logger.Warn("storage write failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes the entry under key, ignoring missing entries.
func (s *Store) Delete(key string) {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("storage delete failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) path(key string) string {
	// keys are caller-controlled constants, but keep them filesystem-safe
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.dir, safe+".json")
}
