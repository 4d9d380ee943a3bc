// Package cache records the thresholds of a completed filter run so that a
// species is filtered at most once per genome set and tolerance label.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gmaffy/genbank-qc/filter"
	"github.com/gmaffy/genbank-qc/stats"
	"github.com/gmaffy/genbank-qc/utils"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// RecordFile is the name of the completeness record inside a results dir.
const RecordFile = "allowed.yaml"

// ErrNoRecord is returned by Load when no run has completed yet.
var ErrNoRecord = errors.New("no completeness record")

// Record is the persisted outcome of a complete filter run.
type Record struct {
	Label   string                      `yaml:"label"`
	Genomes []string                    `yaml:"genomes"`
	Allowed map[string]filter.Threshold `yaml:"allowed"`
	// Display holds the thresholds as printed in the summary.
	Display map[string]string `yaml:"display"`
}

func NewRecord(label string, table *stats.Table, state *filter.State) Record {
	rec := Record{
		Label:   label,
		Genomes: table.SortedIDs(),
		Allowed: make(map[string]filter.Threshold),
		Display: make(map[string]string),
	}
	for c, th := range state.Allowed {
		rec.Allowed[c.String()] = th
		rec.Display[c.String()] = th.Format(c)
	}
	return rec
}

// Thresholds decodes the allowed map back into criteria.
func (r Record) Thresholds() (map[filter.Criterion]filter.Threshold, error) {
	out := make(map[filter.Criterion]filter.Threshold, len(r.Allowed))
	for name, th := range r.Allowed {
		c, err := filter.ParseCriterion(name)
		if err != nil {
			return nil, err
		}
		out[c] = th
	}
	return out, nil
}

func Path(resultsDir string) string {
	return filepath.Join(resultsDir, RecordFile)
}

func Load(resultsDir string) (Record, error) {
	var rec Record
	raw, err := os.ReadFile(Path(resultsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, ErrNoRecord
		}
		return rec, err
	}
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%s: %w", Path(resultsDir), err)
	}
	if rec.Label == "" {
		return rec, fmt.Errorf("%s: record has no label", Path(resultsDir))
	}
	return rec, nil
}

// Save writes rec atomically.
func Save(resultsDir string, rec Record) error {
	sort.Strings(rec.Genomes)
	raw, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(Path(resultsDir), raw, 0644)
}

// current loads the record and reports whether it matches label and the
// genome set of table. Unreadable records are a miss, never an error.
func current(resultsDir, label string, table *stats.Table, logger *slog.Logger) (Record, bool) {
	rec, err := Load(resultsDir)
	if err != nil {
		if !errors.Is(err, ErrNoRecord) {
			logger.Warn("CACHE", "PROGRAM", "CACHE", "LABEL", label, "STATUS", "CORRUPT", "ERROR", err)
		}
		return rec, false
	}
	if rec.Label != label {
		return rec, false
	}
	return rec, sameGenomes(rec.Genomes, table.IDs())
}

func sameGenomes(a, b []string) bool {
	if len(lo.Uniq(a)) != len(a) || len(a) != len(b) {
		return false
	}
	missing, extra := lo.Difference(a, b)
	return len(missing) == 0 && len(extra) == 0
}

// IsCurrent reports whether resultsDir holds a completed run for label over
// exactly the genomes of table.
func IsCurrent(resultsDir, label string, table *stats.Table) bool {
	_, ok := current(resultsDir, label, table, slog.Default())
	return ok
}

// RunIdempotent returns the filter state for table. When the cache is current
// the persisted thresholds are re-applied and f is not called; otherwise f
// runs and its thresholds are saved. The bool reports a cache hit.
func RunIdempotent(f filter.Filterer, resultsDir string, table *stats.Table, tol filter.Tolerances, logger *slog.Logger) (*filter.State, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	label := tol.Label()
	if rec, ok := current(resultsDir, label, table, logger); ok {
		allowed, err := rec.Thresholds()
		if err == nil {
			state, err := filter.Apply(table, tol, allowed)
			if err != nil {
				return nil, false, err
			}
			return state, true, nil
		}
		logger.Warn("CACHE", "PROGRAM", "CACHE", "LABEL", label, "STATUS", "CORRUPT", "ERROR", err)
	}

	state, err := f.Filter(table, tol)
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, false, err
	}
	if err := Save(resultsDir, NewRecord(label, table, state)); err != nil {
		return nil, false, fmt.Errorf("save completeness record: %w", err)
	}
	return state, false, nil
}
