package taxon

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const namesFixture = "9606\t|\tHomo sapiens\t|\t\t|\tscientific name\t|\n" +
	"9606\t|\thuman\t|\t\t|\tgenbank common name\t|\n" +
	"10090\t|\tMus musculus\t|\t\t|\tscientific name\t|\n" +
	"10088\t|\tmouse\t|\tmouse <Mus>\t|\tcommon name\t|\n" +
	"10090\t|\tmouse\t|\tmouse <Mus musculus>\t|\tscientific name\t|\n" +
	"4932\t|\tSaccharomyces cerevisiae\t|\t\t|\tscientific name\t|\n" +
	"4930\t|\tSaccharomyces cerevisiae\t|\t\t|\tsynonym\t|\n"

func TestReadNames(t *testing.T) {
	index, err := ReadNames(strings.NewReader(namesFixture))
	require.NoError(t, err)
	assert.Equal(t, 5, index.Len())

	tests := []struct {
		name string
		id   int
		ok   bool
	}{
		{name: "Homo sapiens", id: 9606, ok: true},
		{name: "human", id: 9606, ok: true},
		{name: "mouse", id: 10090, ok: true},
		{name: "Saccharomyces cerevisiae", id: 4932, ok: true},
		{name: "homo sapiens", ok: false},
		{name: "Escherichia coli", ok: false},
	}
	for _, tt := range tests {
		id, ok := index.Resolve(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.id, id, tt.name)
	}
}

func TestReadNames_Malformed(t *testing.T) {
	_, err := ReadNames(strings.NewReader("9606\t|\tHomo sapiens\n"))
	assert.Error(t, err)

	_, err = ReadNames(strings.NewReader("abc\t|\tHomo sapiens\t|\t\t|\tscientific name\t|\n"))
	assert.Error(t, err)
}

func TestLoadNames_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.dmp.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(namesFixture))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	index, err := LoadNames(path)
	require.NoError(t, err)
	id, ok := index.Resolve("Mus musculus")
	assert.True(t, ok)
	assert.Equal(t, 10090, id)
}

func TestResolvers(t *testing.T) {
	_, ok := None{}.Resolve("Homo sapiens")
	assert.False(t, ok)

	id, ok := Static{"Homo sapiens": 9606}.Resolve("Homo sapiens")
	assert.True(t, ok)
	assert.Equal(t, 9606, id)

	id, ok = Func(func(name string) (int, bool) { return len(name), true }).Resolve("abc")
	assert.True(t, ok)
	assert.Equal(t, 3, id)
}

func TestMemo_CachesHitsAndMisses(t *testing.T) {
	var calls int32
	memo := NewMemo(Func(func(name string) (int, bool) {
		atomic.AddInt32(&calls, 1)
		if name == "Homo sapiens" {
			return 9606, true
		}
		return 0, false
	}))

	for i := 0; i < 3; i++ {
		id, ok := memo.Resolve("Homo sapiens")
		assert.True(t, ok)
		assert.Equal(t, 9606, id)

		_, ok = memo.Resolve("Unknown organism")
		assert.False(t, ok)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, memo.Len())
}

func TestMemo_ConcurrentLookupsResolveOnce(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	memo := NewMemo(Func(func(name string) (int, bool) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 4932, true
	}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, ok := memo.Resolve("Saccharomyces cerevisiae")
			assert.True(t, ok)
			assert.Equal(t, 4932, id)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMemo_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "taxa.json")

	memo := NewMemo(Static{"Homo sapiens": 9606})
	memo.Resolve("Homo sapiens")
	memo.Resolve("Unknown organism")
	require.NoError(t, memo.Save(path, time.Hour))

	restored := NewMemo(nil)
	loaded, err := restored.Load(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 2, restored.Len())

	id, ok := restored.Resolve("Homo sapiens")
	assert.True(t, ok)
	assert.Equal(t, 9606, id)
	_, ok = restored.Resolve("Unknown organism")
	assert.False(t, ok)
}

func TestMemo_LoadExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxa.json")

	memo := NewMemo(Static{"Homo sapiens": 9606})
	memo.Resolve("Homo sapiens")
	require.NoError(t, memo.Save(path, -time.Minute))

	restored := NewMemo(nil)
	loaded, err := restored.Load(path)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, 0, restored.Len())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expired cache is removed")
}

func TestMemo_LoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()

	loaded, err := NewMemo(nil).Load(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.False(t, loaded)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{"), 0o644))
	_, err = NewMemo(nil).Load(corrupt)
	assert.Error(t, err)
}
