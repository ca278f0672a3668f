// Package disk is the persistent cache tier: raw JSON bodies on local disk
// with an LRU/TTL index, so a restarted reader keeps recently seen items.
package disk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type Config struct {
	Dir        string
	MaxEntries int
	MaxBytes   int64
	TTL        time.Duration
	Now        func() time.Time
}

type indexEntry struct {
	File       string    `json:"file"`
	Size       int64     `json:"size"`
	ExpiresAt  time.Time `json:"expires_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

type index struct {
	Version int                   `json:"version"`
	Entries map[string]indexEntry `json:"entries"`
}

const indexVersion = 1

// Store persists opaque bodies keyed by string. Reads only touch the
// in-memory index; the index file is rewritten on writes and on Flush.
type Store struct {
	mu sync.Mutex

	dataDir   string
	indexPath string

	maxEntries int
	maxBytes   int64
	ttl        time.Duration
	now        func() time.Time

	totalBytes int64
	entries    map[string]indexEntry
	dirty      bool
}

func Open(cfg Config) (*Store, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, fmt.Errorf("disk cache: dir is required")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Store{
		dataDir:    filepath.Join(dir, "data"),
		indexPath:  filepath.Join(dir, "index.json"),
		maxEntries: cfg.MaxEntries,
		maxBytes:   cfg.MaxBytes,
		ttl:        cfg.TTL,
		now:        cfg.Now,
		entries:    map[string]indexEntry{},
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("disk cache: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("disk cache: load index: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	return s, s.persistLocked()
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if now.After(ent.ExpiresAt) {
		s.dropLocked(key, ent)
		return nil, false, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.dataDir, ent.File))
	if os.IsNotExist(err) {
		s.dropLocked(key, ent)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	ent.AccessedAt = now
	s.entries[key] = ent
	s.dirty = true
	return raw, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return fmt.Errorf("disk cache: key is required")
	}
	file := fileName(key)
	if err := writeAtomic(filepath.Join(s.dataDir, file), value); err != nil {
		return err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[key]; ok {
		s.totalBytes -= old.Size
	}
	s.entries[key] = indexEntry{
		File:       file,
		Size:       int64(len(value)),
		ExpiresAt:  now.Add(s.ttl),
		AccessedAt: now,
	}
	s.totalBytes += int64(len(value))
	s.pruneLocked(now)
	return s.persistLocked()
}

func (s *Store) Delete(_ context.Context, key string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ent, ok := s.entries[key]; ok {
		s.dropLocked(key, ent)
		return s.persistLocked()
	}
	return nil
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Flush writes the index if reads changed access times since the last write.
func (s *Store) Flush() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persistLocked()
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.indexPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var idx index
	if err := json.Unmarshal(raw, &idx); err != nil || idx.Version != indexVersion {
		// Unreadable or foreign index: start empty; orphaned files are overwritten by key.
		return nil
	}
	for k, ent := range idx.Entries {
		s.entries[k] = ent
		s.totalBytes += ent.Size
	}
	return nil
}

func (s *Store) pruneLocked(now time.Time) {
	for key, ent := range s.entries {
		if now.After(ent.ExpiresAt) {
			s.dropLocked(key, ent)
		}
	}
	over := func() bool {
		return len(s.entries) > s.maxEntries || (s.maxBytes > 0 && s.totalBytes > s.maxBytes)
	}
	if !over() {
		return
	}
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := s.entries[keys[i]].AccessedAt, s.entries[keys[j]].AccessedAt
		if a.Equal(b) {
			return keys[i] < keys[j]
		}
		return a.Before(b)
	})
	for _, k := range keys {
		if !over() {
			break
		}
		s.dropLocked(k, s.entries[k])
	}
}

func (s *Store) dropLocked(key string, ent indexEntry) {
	delete(s.entries, key)
	s.totalBytes -= ent.Size
	if s.totalBytes < 0 {
		s.totalBytes = 0
	}
	s.dirty = true
	_ = os.Remove(filepath.Join(s.dataDir, ent.File))
}

func (s *Store) persistLocked() error {
	raw, err := json.Marshal(index{Version: indexVersion, Entries: s.entries})
	if err != nil {
		return err
	}
	if err := writeAtomic(s.indexPath, raw); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func writeAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + ".json"
}
