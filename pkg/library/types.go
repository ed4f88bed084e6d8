package library

import (
	"context"
	"time"

	"github.com/coolbeans/brenda/pkg/brenda"
)

// Sink accepts parsed records for persistence.
type Sink interface {
	Store(ctx context.Context, records []*brenda.Record) (*StoreResult, error)
}

// LibraryManifest is the top-level index of all records in the library.
type LibraryManifest struct {
	Version   string         `json:"version"`
	Source    string         `json:"source,omitempty"`
	LastRunID string         `json:"last_run_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Records   []*RecordEntry `json:"records"`
}

// RecordEntry describes a single enzyme class record stored in the library.
type RecordEntry struct {
	Code        string             `json:"code"`
	Name        string             `json:"name,omitempty"`
	Stats       brenda.RecordStats `json:"stats"`
	ContentHash string             `json:"content_hash"`
	StorageHash string             `json:"storage_hash"`
	RunID       string             `json:"run_id"`
	StoredAt    time.Time          `json:"stored_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// StoreResult summarizes one Store call.
type StoreResult struct {
	RunID     string `json:"run_id"`
	Added     int    `json:"added"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
}

// LibraryStats aggregates statistics across all records in the library.
type LibraryStats struct {
	TotalRecords    int `json:"total_records"`
	TotalEnzymes    int `json:"total_enzymes"`
	TotalReactions  int `json:"total_reactions"`
	TotalKcatValues int `json:"total_kcat_values"`
	TotalKmValues   int `json:"total_km_values"`
	TotalReferences int `json:"total_references"`
}
