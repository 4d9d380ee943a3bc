// Package report turns a filter state into the persisted failed report, the
// text summary and the per-criterion annotation used to colour trees.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gmaffy/genbank-qc/filter"
	"github.com/gmaffy/genbank-qc/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	FailedFile     = "failed.csv"
	SummaryFile    = "summary.txt"
	AnnotationFile = "annotation.tsv"
	ChartFile      = "report.html"
)

// Colors assigns one colour family per criterion.
var Colors = map[filter.Criterion]string{
	filter.Unknowns:     "red",
	filter.Contigs:      "green",
	filter.AssemblySize: "orange",
	filter.Distance:     "purple",
}

// Entry is one failed genome and the criterion that rejected it.
type Entry struct {
	Genome    string
	Criterion filter.Criterion
}

// FailedReport lists failed genomes in stage order.
type FailedReport []Entry

// Build collects the failed genomes of state in stage order. A genome may
// only fail once; finding it under two criteria means the state is corrupt.
func Build(state *filter.State) (FailedReport, error) {
	seen := make(map[string]filter.Criterion)
	var rep FailedReport
	for _, c := range filter.Criteria {
		for _, id := range state.Failed[c] {
			if first, dup := seen[id]; dup {
				return nil, fmt.Errorf("report: %s failed both %s and %s", id, first, c)
			}
			seen[id] = c
			rep = append(rep, Entry{Genome: id, Criterion: c})
		}
	}
	return rep, nil
}

// Count returns how many genomes c rejected.
func (r FailedReport) Count(c filter.Criterion) int {
	n := 0
	for _, e := range r {
		if e.Criterion == c {
			n++
		}
	}
	return n
}

// Annotate groups the failed genomes by criterion for the tree renderer.
func Annotate(r FailedReport) map[filter.Criterion][]string {
	out := make(map[filter.Criterion][]string)
	for _, e := range r {
		out[e.Criterion] = append(out[e.Criterion], e.Genome)
	}
	return out
}

// WriteFailed persists r as two columns, genome id and criterion name.
func WriteFailed(path string, r FailedReport) error {
	ids := make([]string, len(r))
	crit := make([]string, len(r))
	for i, e := range r {
		ids[i] = e.Genome
		crit[i] = e.Criterion.String()
	}
	df := dataframe.New(
		series.New(ids, series.String, "genome"),
		series.New(crit, series.String, "criteria"),
	)
	var buf bytes.Buffer
	buf.WriteString(",criteria\n")
	if err := df.WriteCSV(&buf, dataframe.WriteHeader(false)); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// WriteAnnotation persists the annotation as "genome criterion color" rows in
// stage order.
func WriteAnnotation(path string, annotation map[filter.Criterion][]string) error {
	var buf bytes.Buffer
	buf.WriteString("genome\tcriterion\tcolor\n")
	for _, c := range filter.Criteria {
		for _, id := range annotation[c] {
			fmt.Fprintf(&buf, "%s\t%s\t%s\n", id, c, Colors[c])
		}
	}
	return utils.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// Summarize renders one block per criterion in stage order.
func Summarize(state *filter.State, tol filter.Tolerances) string {
	lines := make([]string, 0, 4*len(filter.Criteria))
	for _, c := range filter.Criteria {
		allowed := "None"
		if th, ok := state.Allowed[c]; ok {
			allowed = th.Format(c)
		}
		lines = append(lines,
			c.Title(),
			"Allowed: "+allowed,
			"Tolerance: "+tol.Format(c),
			fmt.Sprintf("Filtered: %d", len(state.Failed[c])),
		)
	}
	return strings.Join(lines, "\n")
}

func WriteSummary(path, summary string) error {
	return utils.WriteFileAtomic(path, []byte(summary), 0644)
}
