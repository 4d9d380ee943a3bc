package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qc.conf")
	content := `# tolerances
genbank: /data/genbank
max_unknowns: 100
contigs: 2.5
distance: 4
threads: 8
rebuild: true
ignored line
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/genbank", cfg.Genbank)
	require.NotNil(t, cfg.MaxUnknowns)
	assert.Equal(t, 100, *cfg.MaxUnknowns)
	require.NotNil(t, cfg.Contigs)
	assert.Equal(t, 2.5, *cfg.Contigs)
	assert.Nil(t, cfg.AssemblySize)
	require.NotNil(t, cfg.Distance)
	assert.Equal(t, 4.0, *cfg.Distance)
	assert.Nil(t, cfg.FilterLevel)
	assert.Equal(t, 8, cfg.Threads)
	assert.True(t, cfg.Rebuild)
}

func TestReadConfigBadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qc.conf")
	require.NoError(t, os.WriteFile(path, []byte("contigs: three\n"), 0644))

	_, err := ReadConfig(path)
	assert.ErrorContains(t, err, "contigs")
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	require.NoError(t, WriteFileAtomic(path, []byte("new"), 0644))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
