package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coolbeans/brenda/pkg/brenda"
)

const testDump = "ID\t1.1.1.1\n" +
	"PR\t#1# Homo sapiens P07327 UniProt <1>\n" +
	"RN\talcohol dehydrogenase\n" +
	"TN\t#1# 4.5 {ethanol}  <1>\n" +
	"RF\t<1> Smith, J.: A study. J Enzymol (1999) 12, 34-40. {Pubmed:12345}\n" +
	"///\n" +
	"ID\t1.1.1.2\n" +
	"PR\t#1# Mus musculus <1>\n" +
	"RN\talcohol dehydrogenase (NADP+)\n" +
	"KM\t#1# 0.2 {NADPH}  <1>\n" +
	"RF\t<1> Jones, K.: Another study. J Enzymol (2003) 16, 1-9. {Pubmed:67890}\n" +
	"///\n"

func parseRecords(t *testing.T, input string) []*brenda.Record {
	t.Helper()
	records, err := brenda.NewParser().Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return records.Records()
}

func TestInitAndOpen(t *testing.T) {
	tempDir := t.TempDir()
	libraryPath := filepath.Join(tempDir, "test-library")

	lib, err := Init(libraryPath, "brenda_download.txt")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if lib == nil {
		t.Fatal("library is nil")
	}

	if _, err := os.Stat(filepath.Join(libraryPath, manifestFileName)); os.IsNotExist(err) {
		t.Error("manifest file was not created")
	}

	reopened, err := Open(libraryPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := reopened.Manifest().Source; got != "brenda_download.txt" {
		t.Errorf("unexpected source: %s", got)
	}
	if reopened.Path() != libraryPath {
		t.Errorf("unexpected path: %s", reopened.Path())
	}
}

func TestOpenNonExistent(t *testing.T) {
	_, err := Open("/nonexistent/path")
	if err == nil {
		t.Error("expected error for nonexistent library")
	}
}

func TestOpenOrInit(t *testing.T) {
	libraryPath := filepath.Join(t.TempDir(), "lib")

	lib, err := OpenOrInit(libraryPath, "first")
	if err != nil {
		t.Fatalf("OpenOrInit failed: %v", err)
	}
	if _, err := lib.Store(context.Background(), parseRecords(t, testDump)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	reopened, err := OpenOrInit(libraryPath, "second")
	if err != nil {
		t.Fatalf("OpenOrInit failed: %v", err)
	}
	if reopened.Manifest().Source != "first" {
		t.Error("OpenOrInit re-initialized an existing library")
	}
	if len(reopened.List()) != 2 {
		t.Errorf("expected 2 records after reopen, got %d", len(reopened.List()))
	}
}

func TestStoreAndGet(t *testing.T) {
	lib, err := Init(filepath.Join(t.TempDir(), "lib"), "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	result, err := lib.Store(context.Background(), parseRecords(t, testDump))
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if result.Added != 2 || result.Updated != 0 || result.Unchanged != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.RunID == "" {
		t.Error("expected a run ID")
	}

	record, err := lib.Get("1.1.1.1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Name != "alcohol dehydrogenase" {
		t.Errorf("unexpected name: %s", record.Name)
	}
	enzyme := record.Enzymes["1"]
	if enzyme == nil || enzyme.Taxon == nil || enzyme.Taxon.Name != "Homo sapiens" {
		t.Fatalf("enzyme not restored: %+v", enzyme)
	}
	if len(record.KcatValues) != 1 || len(record.KcatValues[0].References) != 1 {
		t.Fatalf("kcat values not restored: %+v", record.KcatValues)
	}
	if got := record.KcatValues[0].References[0].Identifier.ID; got != "12345" {
		t.Errorf("unexpected pubmed ID: %s", got)
	}

	entry := lib.Entry("1.1.1.2")
	if entry == nil {
		t.Fatal("missing manifest entry")
	}
	if entry.Stats.KmValues != 1 || entry.Stats.References != 1 {
		t.Errorf("unexpected stats: %+v", entry.Stats)
	}
	if entry.RunID != result.RunID {
		t.Errorf("entry run ID %s, want %s", entry.RunID, result.RunID)
	}

	raw, err := lib.GetRaw("1.1.1.2")
	if err != nil {
		t.Fatalf("GetRaw failed: %v", err)
	}
	if !strings.Contains(string(raw), `"km_values"`) {
		t.Error("raw record is missing km_values")
	}
}

func TestStoreIdempotent(t *testing.T) {
	lib, err := Init(filepath.Join(t.TempDir(), "lib"), "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	ctx := context.Background()

	if _, err := lib.Store(ctx, parseRecords(t, testDump)); err != nil {
		t.Fatalf("first Store failed: %v", err)
	}
	first := lib.Entry("1.1.1.1")

	result, err := lib.Store(ctx, parseRecords(t, testDump))
	if err != nil {
		t.Fatalf("second Store failed: %v", err)
	}
	if result.Unchanged != 2 || result.Added != 0 || result.Updated != 0 {
		t.Errorf("expected all records unchanged, got %+v", result)
	}
	if lib.Entry("1.1.1.1").RunID != first.RunID {
		t.Error("unchanged record should keep its original run ID")
	}

	changed := strings.Replace(testDump, "alcohol dehydrogenase\n", "alcohol dehydrogenase (NAD+)\n", 1)
	result, err = lib.Store(ctx, parseRecords(t, changed))
	if err != nil {
		t.Fatalf("third Store failed: %v", err)
	}
	if result.Updated != 1 || result.Unchanged != 1 {
		t.Errorf("expected one update, got %+v", result)
	}
	updated := lib.Entry("1.1.1.1")
	if !updated.StoredAt.Equal(first.StoredAt) {
		t.Error("update should keep the original stored time")
	}
	if updated.ContentHash == first.ContentHash {
		t.Error("content hash did not change")
	}
}

func TestStoreRejectsEmptyCode(t *testing.T) {
	lib, err := Init(filepath.Join(t.TempDir(), "lib"), "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := lib.Store(context.Background(), []*brenda.Record{{}}); err == nil {
		t.Error("expected error for record without code")
	}
}

func TestStoreCancelled(t *testing.T) {
	lib, err := Init(filepath.Join(t.TempDir(), "lib"), "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := lib.Store(ctx, parseRecords(t, testDump)); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestRemove(t *testing.T) {
	lib, err := Init(filepath.Join(t.TempDir(), "lib"), "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := lib.Store(context.Background(), parseRecords(t, testDump)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	storageHash := lib.Entry("1.1.1.1").StorageHash

	if err := lib.Remove("1.1.1.1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if lib.Entry("1.1.1.1") != nil {
		t.Error("entry still present after Remove")
	}
	if _, err := os.Stat(lib.recordPath(storageHash)); !os.IsNotExist(err) {
		t.Error("record file still present after Remove")
	}
	if _, err := lib.Get("1.1.1.1"); err == nil {
		t.Error("expected error getting removed record")
	}
	if err := lib.Remove("1.1.1.1"); err == nil {
		t.Error("expected error removing a missing record")
	}
}

func TestStatsAndList(t *testing.T) {
	lib, err := Init(filepath.Join(t.TempDir(), "lib"), "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	records := parseRecords(t, testDump)
	// Store in reverse to check List ordering.
	records[0], records[1] = records[1], records[0]
	if _, err := lib.Store(context.Background(), records); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	stats := lib.Stats()
	if stats.TotalRecords != 2 {
		t.Errorf("expected 2 records, got %d", stats.TotalRecords)
	}
	if stats.TotalEnzymes != 2 {
		t.Errorf("expected 2 enzymes, got %d", stats.TotalEnzymes)
	}
	if stats.TotalKcatValues != 1 || stats.TotalKmValues != 1 {
		t.Errorf("unexpected kinetic totals: %+v", stats)
	}
	if stats.TotalReferences != 2 {
		t.Errorf("expected 2 references, got %d", stats.TotalReferences)
	}

	entries := lib.List()
	if len(entries) != 2 || entries[0].Code != "1.1.1.1" || entries[1].Code != "1.1.1.2" {
		t.Errorf("List not sorted by code: %v, %v", entries[0].Code, entries[1].Code)
	}
}

func TestPersistenceAcrossOpenClose(t *testing.T) {
	libraryPath := filepath.Join(t.TempDir(), "lib")
	lib, err := Init(libraryPath, "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	result, err := lib.Store(context.Background(), parseRecords(t, testDump))
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	reopened, err := Open(libraryPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if reopened.Manifest().LastRunID != result.RunID {
		t.Errorf("last run ID not persisted")
	}
	record, err := reopened.Get("1.1.1.2")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if record.Name != "alcohol dehydrogenase (NADP+)" {
		t.Errorf("unexpected name after reopen: %s", record.Name)
	}
}
