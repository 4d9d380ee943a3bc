package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gmaffy/genbank-qc/filter"
	"github.com/gmaffy/genbank-qc/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState(t *testing.T) (*stats.Table, *filter.State) {
	t.Helper()
	records := []stats.Record{
		{ID: "GCA_000000001.1", Unknowns: 500, Contigs: 5, AssemblySize: 1000, Distance: 0.01},
		{ID: "GCA_000000002.1", Unknowns: 0, Contigs: 400, AssemblySize: 1000, Distance: 0.01},
		{ID: "GCA_000000003.1", Unknowns: 0, Contigs: 5, AssemblySize: 1000, Distance: 0.01},
		{ID: "GCA_000000004.1", Unknowns: 0, Contigs: 5, AssemblySize: 9000, Distance: 0.01},
	}
	table, err := stats.NewTable(records)
	require.NoError(t, err)
	passed := table.Subset(func(r stats.Record) bool { return r.ID == "GCA_000000003.1" })
	return table, &filter.State{
		Total:  table.Len(),
		Passed: passed,
		Failed: map[filter.Criterion][]string{
			filter.Unknowns:     {"GCA_000000001.1"},
			filter.Contigs:      {"GCA_000000002.1"},
			filter.AssemblySize: {"GCA_000000004.1"},
		},
		Allowed: map[filter.Criterion]filter.Threshold{
			filter.Unknowns:     filter.UpperBound(200),
			filter.Contigs:      filter.UpperBound(323),
			filter.AssemblySize: filter.Between(-20, 220.5),
		},
		Skipped: []filter.Criterion{filter.Distance},
	}
}

func TestBuildOrdersByStage(t *testing.T) {
	_, state := sampleState(t)
	rep, err := Build(state)
	require.NoError(t, err)
	assert.Equal(t, FailedReport{
		{Genome: "GCA_000000001.1", Criterion: filter.Unknowns},
		{Genome: "GCA_000000002.1", Criterion: filter.Contigs},
		{Genome: "GCA_000000004.1", Criterion: filter.AssemblySize},
	}, rep)
	assert.Equal(t, 1, rep.Count(filter.Contigs))
	assert.Equal(t, 0, rep.Count(filter.Distance))
}

func TestBuildRejectsGenomeFailedTwice(t *testing.T) {
	_, state := sampleState(t)
	state.Failed[filter.Distance] = []string{"GCA_000000002.1"}
	_, err := Build(state)
	assert.ErrorContains(t, err, "GCA_000000002.1 failed both contigs and distance")
}

func TestSummarize(t *testing.T) {
	_, state := sampleState(t)
	want := "Unknown Bases\n" +
		"Allowed: 200\n" +
		"Tolerance: 200\n" +
		"Filtered: 1\n" +
		"Contigs\n" +
		"Allowed: 323.0\n" +
		"Tolerance: 3.0\n" +
		"Filtered: 1\n" +
		"Assembly Size\n" +
		"Allowed: -20-220\n" +
		"Tolerance: 3.0\n" +
		"Filtered: 1\n" +
		"MASH\n" +
		"Allowed: None\n" +
		"Tolerance: 3.0\n" +
		"Filtered: 0"
	assert.Equal(t, want, Summarize(state, filter.DefaultTolerances()))
}

func TestWriteFailed(t *testing.T) {
	_, state := sampleState(t)
	rep, err := Build(state)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), FailedFile)
	require.NoError(t, WriteFailed(path, rep))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",criteria\n"+
		"GCA_000000001.1,unknowns\n"+
		"GCA_000000002.1,contigs\n"+
		"GCA_000000004.1,assembly_size\n", string(got))
}

func TestAnnotate(t *testing.T) {
	_, state := sampleState(t)
	rep, err := Build(state)
	require.NoError(t, err)

	ann := Annotate(rep)
	assert.Equal(t, []string{"GCA_000000002.1"}, ann[filter.Contigs])
	assert.NotContains(t, ann, filter.Distance)

	path := filepath.Join(t.TempDir(), AnnotationFile)
	require.NoError(t, WriteAnnotation(path, ann))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "genome\tcriterion\tcolor\n"+
		"GCA_000000001.1\tunknowns\tred\n"+
		"GCA_000000002.1\tcontigs\tgreen\n"+
		"GCA_000000004.1\tassembly_size\torange\n", string(got))
}

func TestRenderChart(t *testing.T) {
	table, state := sampleState(t)
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, table, state, filter.DefaultTolerances()))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Unknown Bases")
	assert.Contains(t, html, "GCA_000000004.1")
}
