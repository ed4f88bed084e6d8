// Package library persists parsed enzyme class records in an on-disk
// library: one JSON file per record plus a manifest indexing them.
package library

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/brenda/pkg/brenda"
)

const (
	manifestFileName = "library.json"
	recordsDir       = "records"
	manifestVersion  = "1.0.0"
)

// Library manages a persistent collection of enzyme class records.
type Library struct {
	mu       sync.RWMutex
	path     string
	manifest *LibraryManifest
}

// Init creates a new library at the given path.
func Init(libraryPath string, source string) (*Library, error) {
	recordsPath := filepath.Join(libraryPath, recordsDir)
	if err := os.MkdirAll(recordsPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	now := time.Now().UTC()
	lib := &Library{
		path: libraryPath,
		manifest: &LibraryManifest{
			Version:   manifestVersion,
			Source:    source,
			CreatedAt: now,
			UpdatedAt: now,
			Records:   []*RecordEntry{},
		},
	}

	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	return lib, nil
}

// Open loads an existing library from disk.
func Open(libraryPath string) (*Library, error) {
	manifestPath := filepath.Join(libraryPath, manifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read library manifest: %w", err)
	}

	var manifest LibraryManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse library manifest: %w", err)
	}

	return &Library{
		path:     libraryPath,
		manifest: &manifest,
	}, nil
}

// OpenOrInit opens the library at libraryPath, creating it if it has no
// manifest yet.
func OpenOrInit(libraryPath string, source string) (*Library, error) {
	if _, err := os.Stat(filepath.Join(libraryPath, manifestFileName)); err == nil {
		return Open(libraryPath)
	}
	return Init(libraryPath, source)
}

// Store writes records to the library. A record whose JSON is unchanged
// since the last store is left untouched.
func (lib *Library) Store(ctx context.Context, records []*brenda.Record) (*StoreResult, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	result := &StoreResult{RunID: uuid.NewString()}
	now := time.Now().UTC()

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if record.Code == "" {
			return nil, fmt.Errorf("record code is required")
		}

		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %s: %w", record.Code, err)
		}
		contentHash := hashBytes(data)

		existing := lib.findRecordUnsafe(record.Code)
		if existing != nil && existing.ContentHash == contentHash {
			result.Unchanged++
			continue
		}

		storageHash := hashBytes([]byte(record.Code))
		if err := lib.writeRecordFile(storageHash, data); err != nil {
			return nil, fmt.Errorf("failed to save record %s: %w", record.Code, err)
		}

		entry := &RecordEntry{
			Code:        record.Code,
			Name:        record.Name,
			Stats:       record.Stats(),
			ContentHash: contentHash,
			StorageHash: storageHash,
			RunID:       result.RunID,
			StoredAt:    now,
			UpdatedAt:   now,
		}
		if existing != nil {
			entry.StoredAt = existing.StoredAt
			result.Updated++
		} else {
			result.Added++
		}
		lib.upsertEntry(entry)
	}

	lib.manifest.LastRunID = result.RunID
	lib.manifest.UpdatedAt = now
	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	return result, nil
}

// Get loads a stored record.
func (lib *Library) Get(code string) (*brenda.Record, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entry := lib.findRecordUnsafe(code)
	if entry == nil {
		return nil, fmt.Errorf("record not found: %s", code)
	}

	data, err := lib.readRecordFile(entry.StorageHash)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", code, err)
	}

	var record brenda.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", code, err)
	}
	return &record, nil
}

// GetRaw returns the stored JSON of a record.
func (lib *Library) GetRaw(code string) ([]byte, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entry := lib.findRecordUnsafe(code)
	if entry == nil {
		return nil, fmt.Errorf("record not found: %s", code)
	}
	return lib.readRecordFile(entry.StorageHash)
}

// Entry returns the manifest entry for a record, or nil.
func (lib *Library) Entry(code string) *RecordEntry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return lib.findRecordUnsafe(code)
}

// List returns all record entries, sorted by code.
func (lib *Library) List() []*RecordEntry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	result := make([]*RecordEntry, len(lib.manifest.Records))
	copy(result, lib.manifest.Records)

	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})

	return result
}

// Remove deletes a record and its file from the library.
func (lib *Library) Remove(code string) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	entry := lib.findRecordUnsafe(code)
	if entry == nil {
		return fmt.Errorf("record not found: %s", code)
	}

	if err := os.Remove(lib.recordPath(entry.StorageHash)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove record file: %w", err)
	}

	lib.removeEntry(code)

	if err := lib.saveManifest(); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	return nil
}

// Stats returns aggregate statistics across all records.
func (lib *Library) Stats() *LibraryStats {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	libraryStats := &LibraryStats{}
	for _, entry := range lib.manifest.Records {
		libraryStats.TotalRecords++
		libraryStats.TotalEnzymes += entry.Stats.Enzymes
		libraryStats.TotalReactions += entry.Stats.Reactions
		libraryStats.TotalKcatValues += entry.Stats.KcatValues
		libraryStats.TotalKmValues += entry.Stats.KmValues
		libraryStats.TotalReferences += entry.Stats.References
	}
	return libraryStats
}

// Manifest returns a copy of the library manifest header.
func (lib *Library) Manifest() LibraryManifest {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	manifest := *lib.manifest
	manifest.Records = nil
	return manifest
}

// Path returns the library's root directory.
func (lib *Library) Path() string {
	return lib.path
}

// --- Internal helpers ---

func (lib *Library) findRecordUnsafe(code string) *RecordEntry {
	for _, entry := range lib.manifest.Records {
		if entry.Code == code {
			return entry
		}
	}
	return nil
}

func (lib *Library) upsertEntry(entry *RecordEntry) {
	for i, existing := range lib.manifest.Records {
		if existing.Code == entry.Code {
			lib.manifest.Records[i] = entry
			return
		}
	}
	lib.manifest.Records = append(lib.manifest.Records, entry)
}

func (lib *Library) removeEntry(code string) {
	filtered := make([]*RecordEntry, 0, len(lib.manifest.Records))
	for _, entry := range lib.manifest.Records {
		if entry.Code != code {
			filtered = append(filtered, entry)
		}
	}
	lib.manifest.Records = filtered
	lib.manifest.UpdatedAt = time.Now().UTC()
}

func (lib *Library) saveManifest() error {
	manifestPath := filepath.Join(lib.path, manifestFileName)
	data, err := json.MarshalIndent(lib.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(manifestPath, data, 0644)
}

func (lib *Library) recordPath(storageHash string) string {
	return filepath.Join(lib.path, recordsDir, storageHash+".json")
}

func (lib *Library) writeRecordFile(storageHash string, data []byte) error {
	if err := os.MkdirAll(filepath.Join(lib.path, recordsDir), 0755); err != nil {
		return err
	}
	return os.WriteFile(lib.recordPath(storageHash), data, 0644)
}

func (lib *Library) readRecordFile(storageHash string) ([]byte, error) {
	return os.ReadFile(lib.recordPath(storageHash))
}

func hashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
