package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/brenda/pkg/config"
	"github.com/coolbeans/brenda/pkg/library"
)

const sampleDump = "ID\t1.1.1.1\n" +
	"PR\t#1# Homo sapiens <1>\n" +
	"RN\talcohol dehydrogenase\n" +
	"TN\t#1#\t4.5\t{ethanol}\t<1>\n" +
	"RF\t<1>\tSmith, J.: A study. J Enzymol (1999) 12, 34-40. {Pubmed:12345}\n" +
	"///\n"

func TestApplyFlags(t *testing.T) {
	cmd := parseCmd()
	require.NoError(t, cmd.Flags().Set("input", "dump.txt.gz"))
	require.NoError(t, cmd.Flags().Set("workers", "6"))
	require.NoError(t, cmd.Flags().Set("taxonomy-cache", "taxa.json"))

	cfg := config.Default()
	require.NoError(t, applyFlags(cmd, cfg))
	assert.Equal(t, "dump.txt.gz", cfg.Input)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, "taxa.json", cfg.Taxonomy.Cache)
	assert.Equal(t, config.Default().Library, cfg.Library, "unset flags keep config values")
}

func TestLazyNames(t *testing.T) {
	dir := t.TempDir()
	names := filepath.Join(dir, "names.dmp")
	require.NoError(t, os.WriteFile(names, []byte("9606\t|\tHomo sapiens\t|\t\t|\tscientific name\t|\n"), 0o644))

	resolver := lazyNames(names, log.New(io.Discard))
	id, ok := resolver.Resolve("Homo sapiens")
	assert.True(t, ok)
	assert.Equal(t, 9606, id)

	missing := lazyNames(filepath.Join(dir, "missing.dmp"), log.New(io.Discard))
	_, ok = missing.Resolve("Homo sapiens")
	assert.False(t, ok)
}

func TestEnvironment_ParseAndStore(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "brenda_download.txt")
	require.NoError(t, os.WriteFile(input, []byte(sampleDump), 0o644))
	t.Setenv(config.EnvPath, "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cmd := parseCmd()
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().String("metrics-file", "", "")
	for name, value := range map[string]string{
		"input":          input,
		"library":        filepath.Join(dir, "lib"),
		"jsonl":          filepath.Join(dir, "records.jsonl"),
		"workers":        "2",
		"taxonomy-cache": filepath.Join(dir, "taxa.json"),
		"metrics-file":   filepath.Join(dir, "brenda.prom"),
		"log-level":      "error",
	} {
		require.NoError(t, cmd.Flags().Set(name, value))
	}

	env, err := newEnvironment(cmd)
	require.NoError(t, err)

	records, err := env.parse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, records.Len())
	require.NoError(t, env.store(context.Background(), records.Records()))
	env.finish()

	lib, err := library.Open(filepath.Join(dir, "lib"))
	require.NoError(t, err)
	assert.NotNil(t, lib.Entry("1.1.1.1"))

	jsonl, err := os.Open(filepath.Join(dir, "records.jsonl"))
	require.NoError(t, err)
	defer jsonl.Close()
	stored, err := library.ReadJSONLines(jsonl)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "alcohol dehydrogenase", stored[0].Name)

	assert.FileExists(t, filepath.Join(dir, "taxa.json"))
	metrics, err := os.ReadFile(filepath.Join(dir, "brenda.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "brenda_blocks_parsed_total 1")
}
