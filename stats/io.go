package stats

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gmaffy/genbank-qc/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// columnAliases maps lower-cased header names written by older versions of
// the pipeline onto the current column names.
var columnAliases = map[string]string{
	"unknowns":      ColUnknowns,
	"n_count":       ColUnknowns,
	"contigs":       ColContigs,
	"assembly_size": ColAssemblySize,
	"distance":      ColDistance,
	"mash":          ColDistance,
}

// readStringFrame reads a delimited file with every column kept as strings so
// that value parsing, and its errors, stay under our control.
func readStringFrame(path string, delimiter rune) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dataframe.DataFrame{}, fmt.Errorf("%s: %w", path, ErrNotBuilt)
		}
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.WithDelimiter(delimiter),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df, fmt.Errorf("%s: %w", path, df.Err)
	}
	return df, nil
}

// Load reads a persisted stats table. The first column holds genome ids.
func Load(path string) (*Table, error) {
	df, err := readStringFrame(path, ',')
	if err != nil {
		return nil, err
	}
	names := df.Names()
	if len(names) == 0 {
		return nil, &MalformedMetricError{Path: path, Column: "index", Value: "empty table"}
	}

	ids := df.Col(names[0]).Records()
	cols := make(map[string][]string)
	for _, name := range names[1:] {
		if canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			cols[canonical] = df.Col(name).Records()
		}
	}
	for _, c := range []string{ColUnknowns, ColContigs, ColAssemblySize, ColDistance} {
		if _, ok := cols[c]; !ok {
			return nil, &MalformedMetricError{Path: path, Column: c, Value: "missing column"}
		}
	}

	records := make([]Record, 0, len(ids))
	for i, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, &MalformedMetricError{Path: path, Genome: fmt.Sprintf("row %d", i+1), Column: "index", Value: raw}
		}
		rec := Record{ID: id}
		bad := func(col string) error {
			return &MalformedMetricError{Path: path, Genome: id, Column: col, Value: cols[col][i]}
		}
		var ok bool
		if rec.Unknowns, ok = parseCount(cols[ColUnknowns][i], 0); !ok {
			return nil, bad(ColUnknowns)
		}
		if rec.Contigs, ok = parseCount(cols[ColContigs][i], 1); !ok {
			return nil, bad(ColContigs)
		}
		if rec.AssemblySize, ok = parseCount(cols[ColAssemblySize][i], 0); !ok {
			return nil, bad(ColAssemblySize)
		}
		if rec.Distance, ok = parseMeasure(cols[ColDistance][i]); !ok {
			return nil, bad(ColDistance)
		}
		records = append(records, rec)
	}

	t, err := NewTable(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// parseCount accepts integers, including the "12.0" form a float column
// round trip produces, that are at least min.
func parseCount(s string, min int) (int, bool) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		n = int(f)
	}
	return n, n >= min
}

func parseMeasure(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// WriteCSV persists the table atomically with a leading unnamed id column.
func (t *Table) WriteCSV(path string) error {
	n := t.Len()
	unknowns := make([]string, 0, n)
	contigs := make([]string, 0, n)
	sizes := make([]string, 0, n)
	distances := make([]string, 0, n)
	for _, r := range t.Records() {
		unknowns = append(unknowns, strconv.Itoa(r.Unknowns))
		contigs = append(contigs, strconv.Itoa(r.Contigs))
		sizes = append(sizes, strconv.Itoa(r.AssemblySize))
		distances = append(distances, formatFloat(r.Distance))
	}
	df := dataframe.New(
		series.New(t.IDs(), series.String, "genome"),
		series.New(unknowns, series.String, ColUnknowns),
		series.New(contigs, series.String, ColContigs),
		series.New(sizes, series.String, ColAssemblySize),
		series.New(distances, series.String, ColDistance),
	)
	// gota renames an empty column name, so the header is written by hand.
	var buf bytes.Buffer
	buf.WriteString(strings.Join([]string{"", ColUnknowns, ColContigs, ColAssemblySize, ColDistance}, ",") + "\n")
	if err := df.WriteCSV(&buf, dataframe.WriteHeader(false)); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, buf.Bytes(), 0644)
}
