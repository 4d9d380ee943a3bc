// Package stats holds the per-genome quality metrics of one species and the
// distance matrix the mean distances are derived from.
package stats

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotBuilt is returned when a persisted input has not been produced yet.
var ErrNotBuilt = errors.New("not built")

// Column names of the stats table, in the order they are written.
const (
	ColUnknowns     = "unknowns"
	ColContigs      = "contigs"
	ColAssemblySize = "assembly_size"
	ColDistance     = "distance"
)

// Record is the set of metrics gathered for one genome.
type Record struct {
	ID           string
	Unknowns     int
	Contigs      int
	AssemblySize int
	Distance     float64
}

// MalformedMetricError reports a value in the stats table that is missing or
// not a valid metric. It points at an upstream defect and is never treated as
// a filtering decision.
type MalformedMetricError struct {
	Path   string
	Genome string
	Column string
	Value  string
}

func (e *MalformedMetricError) Error() string {
	if e.Genome == "" {
		return fmt.Sprintf("%s: malformed metric in column %q: %s", e.Path, e.Column, e.Value)
	}
	return fmt.Sprintf("%s: malformed metric for %s in column %q: %q", e.Path, e.Genome, e.Column, e.Value)
}

// Table is an ordered, read-only mapping of genome id to Record.
type Table struct {
	ids     []string
	records map[string]Record
}

// NewTable builds a table keeping the order of records. Ids must be unique.
func NewTable(records []Record) (*Table, error) {
	t := &Table{
		ids:     make([]string, 0, len(records)),
		records: make(map[string]Record, len(records)),
	}
	for _, r := range records {
		if r.ID == "" {
			return nil, errors.New("stats: record without genome id")
		}
		if _, dup := t.records[r.ID]; dup {
			return nil, fmt.Errorf("stats: duplicate genome id %s", r.ID)
		}
		t.ids = append(t.ids, r.ID)
		t.records[r.ID] = r
	}
	return t, nil
}

func (t *Table) Len() int {
	return len(t.ids)
}

// IDs returns the genome ids in table order.
func (t *Table) IDs() []string {
	return append([]string(nil), t.ids...)
}

// SortedIDs returns the genome ids sorted lexically.
func (t *Table) SortedIDs() []string {
	ids := t.IDs()
	sort.Strings(ids)
	return ids
}

// GenomeIDs returns the id set used for consistency checks.
func (t *Table) GenomeIDs() map[string]struct{} {
	set := make(map[string]struct{}, len(t.ids))
	for _, id := range t.ids {
		set[id] = struct{}{}
	}
	return set
}

func (t *Table) Get(id string) (Record, bool) {
	r, ok := t.records[id]
	return r, ok
}

// Records returns the records in table order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.ids))
	for i, id := range t.ids {
		out[i] = t.records[id]
	}
	return out
}

// Subset returns a new table with the records keep accepts, order preserved.
func (t *Table) Subset(keep func(Record) bool) *Table {
	sub := &Table{records: make(map[string]Record)}
	for _, id := range t.ids {
		r := t.records[id]
		if keep(r) {
			sub.ids = append(sub.ids, id)
			sub.records[id] = r
		}
	}
	return sub
}

// Has reports whether id is in the table.
func (t *Table) Has(id string) bool {
	_, ok := t.records[id]
	return ok
}
