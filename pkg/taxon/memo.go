package taxon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo caches the answers of a slower Resolver, misses included. It is
// safe for concurrent use, and concurrent lookups of the same uncached name
// reach the wrapped resolver once.
type Memo struct {
	resolver Resolver

	mu      sync.RWMutex
	entries map[string]memoEntry
	group   singleflight.Group
}

type memoEntry struct {
	ID    int  `json:"id"`
	Found bool `json:"found"`
}

// memoFile is the on-disk form written by Save.
type memoFile struct {
	ExpiresAt time.Time            `json:"expires_at"`
	Entries   map[string]memoEntry `json:"entries"`
}

// NewMemo wraps resolver. A nil resolver resolves nothing, which is useful
// with Load when only cached answers should be used.
func NewMemo(resolver Resolver) *Memo {
	if resolver == nil {
		resolver = None{}
	}
	return &Memo{
		resolver: resolver,
		entries:  make(map[string]memoEntry),
	}
}

// Resolve consults the cache first and asks the wrapped resolver once per name.
func (m *Memo) Resolve(name string) (int, bool) {
	if entry, ok := m.lookup(name); ok {
		return entry.ID, entry.Found
	}

	v, _, _ := m.group.Do(name, func() (interface{}, error) {
		if entry, ok := m.lookup(name); ok {
			return entry, nil
		}
		id, found := m.resolver.Resolve(name)
		entry := memoEntry{ID: id, Found: found}

		m.mu.Lock()
		m.entries[name] = entry
		m.mu.Unlock()
		return entry, nil
	})
	entry := v.(memoEntry)
	return entry.ID, entry.Found
}

func (m *Memo) lookup(name string) (memoEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[name]
	return entry, ok
}

// Len returns the number of cached names.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Save writes the cached answers to path, valid for ttl.
func (m *Memo) Save(path string, ttl time.Duration) error {
	m.mu.RLock()
	file := memoFile{
		ExpiresAt: time.Now().Add(ttl),
		Entries:   make(map[string]memoEntry, len(m.entries)),
	}
	for name, entry := range m.entries {
		file.Entries[name] = entry
	}
	m.mu.RUnlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal taxon cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write taxon cache %s: %w", path, err)
	}
	return nil
}

// Load merges answers saved by Save. It reports false, without error, when
// the file does not exist or has expired; an expired file is removed.
func (m *Memo) Load(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read taxon cache %s: %w", path, err)
	}

	var file memoFile
	if err := json.Unmarshal(data, &file); err != nil {
		return false, fmt.Errorf("failed to parse taxon cache %s: %w", path, err)
	}
	if time.Now().After(file.ExpiresAt) {
		_ = os.Remove(path)
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, entry := range file.Entries {
		m.entries[name] = entry
	}
	return true, nil
}
