package genome

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assembly = ">contig_1\nATCGATCGNN\nATCG\n>contig_2 plasmid\nRYKMatcg\n"

func writeFASTA(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestMetrics(t *testing.T) {
	path := writeFASTA(t, t.TempDir(), "GCA_000001.1_ASM1.fasta", assembly)
	m, err := Metrics(path)
	require.NoError(t, err)
	assert.Equal(t, "GCA_000001.1_ASM1", m.ID)
	assert.Equal(t, 2, m.Contigs)
	assert.Equal(t, 22, m.AssemblySize)
	// NN, RYKM and lower case atcg
	assert.Equal(t, 10, m.Unknowns)
}

func TestMetricsGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GCA_000002.1.fna.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(assembly))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	m, err := Metrics(path)
	require.NoError(t, err)
	assert.Equal(t, "GCA_000002.1", m.ID)
	assert.Equal(t, 22, m.AssemblySize)
}

func TestMetricsEmptyFile(t *testing.T) {
	path := writeFASTA(t, t.TempDir(), "GCA_000003.1.fasta", "")
	_, err := Metrics(path)
	assert.ErrorContains(t, err, "no sequences")
}

func TestFindFASTAs(t *testing.T) {
	dir := t.TempDir()
	writeFASTA(t, dir, "GCA_2.1.fasta", assembly)
	writeFASTA(t, dir, "GCA_1.1.fna.gz", "")
	writeFASTA(t, dir, ".GCA_3.1.fasta", assembly)
	writeFASTA(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "qc.fasta"), 0755))

	paths, err := FindFASTAs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "GCA_1.1.fna.gz"), filepath.Join(dir, "GCA_2.1.fasta")}, paths)
}

func TestCollectMetricsKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"GCA_3.1.fasta", "GCA_1.1.fasta", "GCA_2.1.fasta"} {
		paths = append(paths, writeFASTA(t, dir, name, assembly))
	}
	ms, err := CollectMetrics(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, "GCA_3.1", ms[0].ID)
	assert.Equal(t, "GCA_1.1", ms[1].ID)
	assert.Equal(t, "GCA_2.1", ms[2].ID)
}

func TestCollectMetricsFails(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeFASTA(t, dir, "GCA_1.1.fasta", assembly), writeFASTA(t, dir, "GCA_2.1.fasta", "")}
	_, err := CollectMetrics(context.Background(), paths, 1)
	assert.ErrorContains(t, err, "GCA_2.1.fasta")
}

// fakeMash stands in for the mash binary: it creates the requested sketch
// files and prints a fixed two genome table for dist.
const fakeMash = `#!/bin/sh
case "$1" in
sketch) touch "$4.msh" ;;
paste) touch "$2.msh" ;;
dist) printf '#query\t/g/GCA_1.1.fasta\t/g/GCA_2.1.fasta\n/g/GCA_1.1.fasta\t0\t0.1\n/g/GCA_2.1.fasta\t0.1\t0\n' ;;
esac
`

func TestMashRun(t *testing.T) {
	dir := t.TempDir()
	bin := writeFASTA(t, dir, "mash", fakeMash)
	require.NoError(t, os.Chmod(bin, 0755))
	paths := []string{writeFASTA(t, dir, "GCA_1.1.fasta", assembly), writeFASTA(t, dir, "GCA_2.1.fasta", assembly)}

	m := Mash{Bin: bin, SketchDir: filepath.Join(dir, "qc", "sketches")}
	out := filepath.Join(dir, "qc", "dmx.csv")
	dmx, err := m.Run(context.Background(), paths, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"GCA_1.1", "GCA_2.1"}, dmx.Labels)
	assert.FileExists(t, m.SketchPath(paths[0]))
	assert.FileExists(t, filepath.Join(m.SketchDir, "all.msh"))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\tGCA_1.1\tGCA_2.1\nGCA_1.1\t0\t0.1\nGCA_2.1\t0.1\t0\n", string(raw))
	assert.NoFileExists(t, out+".raw")
}

func TestMashRunWithoutGenomes(t *testing.T) {
	_, err := Mash{SketchDir: t.TempDir()}.Run(context.Background(), nil, filepath.Join(t.TempDir(), "dmx.csv"))
	assert.Error(t, err)
}
