// Package store persists the monitor's documents: the state document
// (per-topic check history plus the URL deduplication map), the alert queue,
// and per (topic, date) findings buckets. Every document is a single JSON
// file written by whole-document replace; writes go through a temp file and
// rename so a document is either fully replaced or untouched. Missing or
// corrupt documents load as empty rather than failing.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	stateFile   = "state.json"
	alertsFile  = "alerts-queue.json"
	findingsDir = "findings"
)

// Store is a file-backed document store rooted at a data directory.
// It assumes one writer at a time; concurrent invocations racing on the same
// files can lose updates (the scheduler is expected to serialize runs).
type Store struct {
	dataDir string

	// Now supplies timestamps; overridable in tests.
	Now func() time.Time
}

// Open prepares the data directory and returns a store.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, findingsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating findings directory: %w", err)
	}
	return &Store{dataDir: dataDir, Now: time.Now}, nil
}

// DataDir returns the root directory of the store.
func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) statePath() string {
	return filepath.Join(s.dataDir, stateFile)
}

func (s *Store) alertsPath() string {
	return filepath.Join(s.dataDir, alertsFile)
}

func (s *Store) findingsPath(topicID, date string) string {
	return filepath.Join(s.dataDir, findingsDir, date+"_"+topicID+".json")
}

// readDocument loads a JSON document into v. A missing or unparseable file
// leaves v untouched and reports ok=false; corruption is never fatal.
func readDocument(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return true
}

// writeDocument atomically replaces the JSON document at path.
func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
