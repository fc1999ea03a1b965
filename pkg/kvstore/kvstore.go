package kvstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Well-known keys. Values are opaque strings, never parsed structurally.
const (
	KeySessionID     = "sessionId"
	KeyTermsAccepted = "termsAccepted"
)

// Store is a durable string-to-string store, the client-side analog of the
// browser's local storage. It is read once at startup and has a single writer.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

type fileStore struct {
	path   string
	values map[string]string
}

// OpenFile loads (or initializes) a file-backed store at path.
func OpenFile(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path required")
	}

	values := map[string]string{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &values); err != nil {
				return nil, fmt.Errorf("decode state file %s: %w", path, err)
			}
		}
	case os.IsNotExist(err):
		// first run
	default:
		return nil, fmt.Errorf("read state file %s: %w", path, err)
	}

	return &fileStore{path: path, values: values}, nil
}

func (s *fileStore) Get(key string) (string, bool) {
	value, ok := s.values[key]
	return value, ok
}

func (s *fileStore) Set(key, value string) error {
	s.values[key] = value
	return s.flush()
}

// flush writes via a temp file and rename so a crash mid-write never leaves a
// truncated state file.
func (s *fileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	raw, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Memory returns an in-memory store, used by tests and throwaway sessions.
func Memory() Store {
	return &memoryStore{values: map[string]string{}}
}

type memoryStore struct {
	values map[string]string
}

func (s *memoryStore) Get(key string) (string, bool) {
	value, ok := s.values[key]
	return value, ok
}

func (s *memoryStore) Set(key, value string) error {
	s.values[key] = value
	return nil
}
