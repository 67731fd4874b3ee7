// Package cache persists generated content on local disk, one JSON record per
// (entity, purpose) pair under <root>/<entity_token>/<purpose>.json.
//
// Records never expire. Once a non-empty record is written it short-circuits
// regeneration for its key until the cache is cleared out of band.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/careerguide/careerguide/internal/content"
)

// ErrEmptyPayload is returned by Put when there is nothing worth caching
var ErrEmptyPayload = errors.New("refusing to cache empty payload")

// Store manages the on-disk content cache
type Store struct {
	root   string
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a cache store rooted at dir
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		root:   dir,
		logger: logger,
	}
}

// Root returns the cache root directory
func (s *Store) Root() string {
	return s.root
}

// Path returns the record path for an (entity, purpose) pair
func (s *Store) Path(entity string, purpose content.Purpose) (string, error) {
	token, err := NormalizeEntity(entity)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, token, purpose.String()+".json"), nil
}

// Get retrieves a cached payload. A missing, unreadable or empty record is
// reported as absent; corruption is logged, never returned.
func (s *Store) Get(entity string, purpose content.Purpose) (*content.Payload, bool) {
	path, err := s.Path(entity, purpose)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("unreadable cache record", "path", path, "error", err)
		}
		return nil, false
	}

	var payload content.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.logger.Warn("corrupted cache record, regenerating", "entity", entity, "purpose", purpose, "error", err)
		return nil, false
	}

	if payload.Empty() {
		s.logger.Warn("empty cache record, regenerating", "entity", entity, "purpose", purpose)
		return nil, false
	}

	return &payload, true
}

// Put stores a payload, overwriting any existing record
func (s *Store) Put(entity string, purpose content.Purpose, payload *content.Payload) error {
	if payload.Empty() {
		return ErrEmptyPayload
	}

	path, err := s.Path(entity, purpose)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Write to a temp file first so readers never see a partial record
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+purpose.String()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache record: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to commit cache record: %w", err)
	}

	return nil
}

// Clear removes every cached record and returns how many were deleted
func (s *Store) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	err := s.walk(func(path string, _ fs.FileInfo) {
		if err := os.Remove(path); err == nil {
			removed++
		}
	})
	if err != nil {
		return removed, err
	}

	// Drop entity directories left empty
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return removed, nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			os.Remove(filepath.Join(s.root, entry.Name()))
		}
	}

	return removed, nil
}

// Stats summarizes the cache contents
type Stats struct {
	TotalEntries   int        `json:"total_entries"`
	TotalEntities  int        `json:"total_entities"`
	TotalSizeBytes int64      `json:"total_size_bytes"`
	OldestEntry    *time.Time `json:"oldest_entry,omitempty"`
	NewestEntry    *time.Time `json:"newest_entry,omitempty"`
}

// GetStats returns cache statistics
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	entities := make(map[string]struct{})

	err := s.walk(func(path string, info fs.FileInfo) {
		stats.TotalEntries++
		stats.TotalSizeBytes += info.Size()
		entities[filepath.Base(filepath.Dir(path))] = struct{}{}

		modTime := info.ModTime()
		if stats.OldestEntry == nil || modTime.Before(*stats.OldestEntry) {
			stats.OldestEntry = &modTime
		}
		if stats.NewestEntry == nil || modTime.After(*stats.NewestEntry) {
			stats.NewestEntry = &modTime
		}
	})
	if err != nil {
		return nil, err
	}

	stats.TotalEntities = len(entities)
	return stats, nil
}

// walk visits every <entity>/<purpose>.json record under the root
func (s *Store) walk(visit func(path string, info fs.FileInfo)) error {
	entityDirs, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, dir := range entityDirs {
		if !dir.IsDir() {
			continue
		}
		dirPath := filepath.Join(s.root, dir.Name())
		records, err := os.ReadDir(dirPath)
		if err != nil {
			continue
		}
		for _, record := range records {
			if record.IsDir() || filepath.Ext(record.Name()) != ".json" {
				continue
			}
			info, err := record.Info()
			if err != nil {
				continue
			}
			visit(filepath.Join(dirPath, record.Name()), info)
		}
	}

	return nil
}
