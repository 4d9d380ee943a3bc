package stats

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gmaffy/genbank-qc/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// genomeExts are the file decorations stripped from genome names.
var genomeExts = []string{".fasta", ".fna", ".fa", ".fas"}

// CanonicalID turns a path or decorated name into the genome id used as the
// join key, e.g. "/g/qc/GCA_000001.1_ASM.fasta.gz" -> "GCA_000001.1_ASM".
func CanonicalID(name string) string {
	id := filepath.Base(strings.TrimSpace(name))
	id = strings.TrimSuffix(id, ".gz")
	for _, ext := range genomeExts {
		if strings.HasSuffix(id, ext) {
			return strings.TrimSuffix(id, ext)
		}
	}
	return id
}

// Matrix is a square pairwise distance matrix. Values[i][j] is the distance
// between Labels[i] and Labels[j].
type Matrix struct {
	Labels []string
	Values [][]float64
}

// ReadMatrix reads a tab separated square matrix as written by mash dist -t.
// Row and column labels are canonicalised; columns are realigned to row order.
func ReadMatrix(path string) (*Matrix, error) {
	df, err := readStringFrame(path, '\t')
	if err != nil {
		return nil, err
	}
	names := df.Names()
	if len(names) < 2 {
		return nil, fmt.Errorf("%s: distance matrix has no columns", path)
	}
	rowLabels := df.Col(names[0]).Records()
	if len(rowLabels) != len(names)-1 {
		return nil, fmt.Errorf("%s: distance matrix is not square (%d rows, %d columns)", path, len(rowLabels), len(names)-1)
	}

	m := &Matrix{Labels: make([]string, len(rowLabels))}
	rowIndex := make(map[string]int, len(rowLabels))
	for i, l := range rowLabels {
		id := CanonicalID(l)
		if _, dup := rowIndex[id]; dup {
			return nil, fmt.Errorf("%s: duplicate row label %s", path, id)
		}
		rowIndex[id] = i
		m.Labels[i] = id
	}

	m.Values = make([][]float64, len(rowLabels))
	for i := range m.Values {
		m.Values[i] = make([]float64, len(rowLabels))
	}
	seen := make(map[string]bool, len(rowLabels))
	for _, col := range names[1:] {
		id := CanonicalID(col)
		j, ok := rowIndex[id]
		if !ok || seen[id] {
			return nil, fmt.Errorf("%s: column %s does not match any row label", path, col)
		}
		seen[id] = true
		for i, raw := range df.Col(col).Records() {
			v, ok := parseMeasure(raw)
			if !ok {
				return nil, &MalformedMetricError{Path: path, Genome: m.Labels[i], Column: id, Value: raw}
			}
			m.Values[i][j] = v
		}
	}
	return m, nil
}

func (m *Matrix) Len() int {
	return len(m.Labels)
}

// GenomeIDs returns the matrix index as a set.
func (m *Matrix) GenomeIDs() map[string]struct{} {
	set := make(map[string]struct{}, len(m.Labels))
	for _, l := range m.Labels {
		set[l] = struct{}{}
	}
	return set
}

// MeanDistances returns the mean of every column, diagonal included, keyed by
// genome id.
func (m *Matrix) MeanDistances() map[string]float64 {
	means := make(map[string]float64, len(m.Labels))
	col := make([]float64, len(m.Labels))
	for j, id := range m.Labels {
		for i := range m.Labels {
			col[i] = m.Values[i][j]
		}
		means[id] = stat.Mean(col, nil)
	}
	return means
}

// Validate checks symmetry and a zero diagonal within tol.
func (m *Matrix) Validate(tol float64) error {
	for i := range m.Labels {
		if math.Abs(m.Values[i][i]) > tol {
			return fmt.Errorf("distance matrix: non-zero diagonal for %s", m.Labels[i])
		}
		for j := i + 1; j < len(m.Labels); j++ {
			if math.Abs(m.Values[i][j]-m.Values[j][i]) > tol {
				return fmt.Errorf("distance matrix: %s/%s is not symmetric", m.Labels[i], m.Labels[j])
			}
		}
	}
	return nil
}

// WriteTSV persists the matrix atomically with canonical labels.
func (m *Matrix) WriteTSV(path string) error {
	cols := make([]series.Series, 0, len(m.Labels)+1)
	cols = append(cols, series.New(m.Labels, series.String, "genome"))
	for j, id := range m.Labels {
		vals := make([]string, len(m.Labels))
		for i := range m.Labels {
			vals[i] = strconv.FormatFloat(m.Values[i][j], 'g', -1, 64)
		}
		cols = append(cols, series.New(vals, series.String, id))
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return df.Err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	if err := w.Write(append([]string{""}, m.Labels...)); err != nil {
		return err
	}
	if err := w.WriteAll(df.Records()[1:]); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// Metrics are the per-genome values measured from a FASTA file.
type Metrics struct {
	ID           string
	Unknowns     int
	Contigs      int
	AssemblySize int
}

// Build joins FASTA metrics with the mean distances of m into a stats table.
func Build(metrics []Metrics, m *Matrix) (*Table, error) {
	means := m.MeanDistances()
	records := make([]Record, 0, len(metrics))
	for _, g := range metrics {
		d, ok := means[g.ID]
		if !ok {
			return nil, fmt.Errorf("stats: %s is missing from the distance matrix", g.ID)
		}
		records = append(records, Record{
			ID:           g.ID,
			Unknowns:     g.Unknowns,
			Contigs:      g.Contigs,
			AssemblySize: g.AssemblySize,
			Distance:     d,
		})
	}
	return NewTable(records)
}
