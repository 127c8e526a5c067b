// Package prefstore implements the persisted preference store: a plain
// key to string map backed by a JSON file, standing in for the browser's
// local key-value store.
package prefstore

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File is a JSON-file-backed preference store. Reads come from memory;
// every Set rewrites the file.
type File struct {
	path  string
	mu    sync.Mutex
	prefs map[string]string
}

// Open loads the store at path, starting empty when the file is missing or
// unreadable.
func Open(path string) *File {
	s := &File{path: path, prefs: make(map[string]string)}
	s.loadFromDisk()
	return s
}

// Get returns the value stored under key.
func (s *File) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.prefs[key]
	return v, ok
}

// Set stores value under key and persists the store.
func (s *File) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[key] = value
	if err := s.saveToDisk(); err != nil {
		slog.Warn("persisting preferences failed", "path", s.path, "error", err)
	}
}

func (s *File) loadFromDisk() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return // file doesn't exist yet, start empty
	}
	var prefs map[string]string
	if err := json.Unmarshal(data, &prefs); err != nil {
		return // invalid JSON, start empty
	}
	s.prefs = prefs
}

func (s *File) saveToDisk() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Null is a preference store that remembers nothing; used by headless
// sessions and tests that don't care about persistence.
type Null struct{}

func (Null) Get(string) (string, bool) { return "", false }
func (Null) Set(string, string)        {}
