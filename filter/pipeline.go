package filter

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/gmaffy/genbank-qc/stats"
	mfstats "github.com/montanaflynn/stats"
	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinPopulation is the largest survivor count at which the MAD stages
	// are skipped.
	MinPopulation = 5
	// ContigExemptionLimit is the contig count at or below which a genome
	// always passes the contig stage and is left out of its statistics.
	ContigExemptionLimit = 10
)

// State is the outcome of a filter run. Passed only ever shrinks; a genome in
// Failed[c] is no longer evaluated by later stages.
type State struct {
	Total        int
	Passed       *stats.Table
	Failed       map[Criterion][]string
	Allowed      map[Criterion]Threshold
	DeviationRef map[Criterion]float64
	MedAbsDev    map[Criterion]float64
	// Skipped lists the stages cut short by the minimum population guard.
	Skipped []Criterion
}

func newState(table *stats.Table) *State {
	return &State{
		Total:        table.Len(),
		Passed:       table,
		Failed:       make(map[Criterion][]string),
		Allowed:      make(map[Criterion]Threshold),
		DeviationRef: make(map[Criterion]float64),
		MedAbsDev:    make(map[Criterion]float64),
	}
}

// Evaluated returns the criteria that produced a threshold, in stage order.
func (s *State) Evaluated() []Criterion {
	var out []Criterion
	for _, c := range Criteria {
		if _, ok := s.Allowed[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// FailedCount is the number of genomes rejected by any criterion.
func (s *State) FailedCount() int {
	n := 0
	for _, ids := range s.Failed {
		n += len(ids)
	}
	return n
}

// reject moves every non-exempt survivor that th rejects into Failed[c].
func (s *State) reject(c Criterion, th Threshold, exempt func(stats.Record) bool) {
	failed := make([]string, 0)
	s.Passed = s.Passed.Subset(func(r stats.Record) bool {
		if exempt != nil && exempt(r) {
			return true
		}
		if th.Rejects(value(c, r)) {
			failed = append(failed, r.ID)
			return false
		}
		return true
	})
	s.Allowed[c] = th
	s.Failed[c] = failed
}

func (s *State) skipFrom(i int) {
	for _, st := range Stages[i:] {
		s.Skipped = append(s.Skipped, st.Criterion)
	}
}

func value(c Criterion, r stats.Record) float64 {
	switch c {
	case Unknowns:
		return float64(r.Unknowns)
	case Contigs:
		return float64(r.Contigs)
	case AssemblySize:
		return float64(r.AssemblySize)
	case Distance:
		return r.Distance
	}
	return math.NaN()
}

func contigExempt(r stats.Record) bool {
	return r.Contigs <= ContigExemptionLimit
}

func column[T constraints.Integer | constraints.Float](t *stats.Table, get func(stats.Record) T) []float64 {
	records := t.Records()
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = float64(get(r))
	}
	return out
}

func columnOf(c Criterion, t *stats.Table) []float64 {
	return column(t, func(r stats.Record) float64 { return value(c, r) })
}

// medAbsDev returns the median of values and the mean absolute difference
// from it.
func medAbsDev(values []float64) (median, mad float64, err error) {
	median, err = mfstats.Median(values)
	if err != nil {
		return 0, 0, err
	}
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - median)
	}
	return median, stat.Mean(dev, nil), nil
}

// Filterer produces a filter state for a table.
type Filterer interface {
	Filter(table *stats.Table, tol Tolerances) (*State, error)
}

// Pipeline runs the stages in order. The zero value is ready to use.
type Pipeline struct {
	Logger *slog.Logger
}

func (p Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Filter runs every stage over table. It never modifies table.
func (p Pipeline) Filter(table *stats.Table, tol Tolerances) (*State, error) {
	if err := tol.Validate(); err != nil {
		return nil, err
	}
	if err := checkRecords(table); err != nil {
		return nil, err
	}

	state := newState(table)
	for i, stage := range Stages {
		if stage.Kind != HardCutoff && state.Passed.Len() <= MinPopulation {
			p.logger().Info("FILTER", "PROGRAM", stage.Criterion.String(), "STATUS", "SKIPPED",
				"REASON", "insufficient population", "SURVIVORS", state.Passed.Len())
			state.skipFrom(i)
			break
		}
		if err := p.runStage(state, stage, tol); err != nil {
			return nil, fmt.Errorf("filter %s: %w", stage.Criterion, err)
		}
		p.logger().Debug("FILTER", "PROGRAM", stage.Criterion.String(), "STATUS", "COMPLETED",
			"ALLOWED", state.Allowed[stage.Criterion].Format(stage.Criterion),
			"FAILED", len(state.Failed[stage.Criterion]), "SURVIVORS", state.Passed.Len())
	}
	return state, nil
}

func (p Pipeline) runStage(state *State, stage Stage, tol Tolerances) error {
	c := stage.Criterion
	switch stage.Kind {
	case HardCutoff:
		state.reject(c, UpperBound(tol.Of(c)), nil)

	case MADUpperExempt:
		eligible := state.Passed.Subset(func(r stats.Record) bool { return !contigExempt(r) })
		if eligible.Len() == 0 {
			state.MedAbsDev[c] = 0
			state.DeviationRef[c] = 0
			state.reject(c, UpperBound(ContigExemptionLimit), contigExempt)
			return nil
		}
		median, mad, err := medAbsDev(columnOf(c, eligible))
		if err != nil {
			return err
		}
		devRef := mad * tol.Of(c)
		state.MedAbsDev[c] = mad
		state.DeviationRef[c] = devRef
		state.reject(c, UpperBound(median+devRef), contigExempt)

	case MADRange, MADUpper:
		median, mad, err := medAbsDev(columnOf(c, state.Passed))
		if err != nil {
			return err
		}
		devRef := mad * tol.Of(c)
		state.MedAbsDev[c] = mad
		state.DeviationRef[c] = devRef
		if stage.Kind == MADRange {
			state.reject(c, Between(median-devRef, median+devRef), nil)
		} else {
			state.reject(c, UpperBound(median+devRef), nil)
		}

	default:
		return fmt.Errorf("unknown stage kind %d", stage.Kind)
	}
	return nil
}

// Apply re-applies thresholds persisted by an earlier run to table without
// computing any statistics. A stage missing from allowed is treated as cut by
// the population guard, together with every later stage.
func Apply(table *stats.Table, tol Tolerances, allowed map[Criterion]Threshold) (*State, error) {
	if err := checkRecords(table); err != nil {
		return nil, err
	}
	state := newState(table)
	for i, stage := range Stages {
		th, ok := allowed[stage.Criterion]
		if !ok && stage.Kind == HardCutoff {
			th, ok = UpperBound(tol.Of(stage.Criterion)), true
		}
		if !ok {
			state.skipFrom(i)
			break
		}
		var exempt func(stats.Record) bool
		if stage.Kind == MADUpperExempt {
			exempt = contigExempt
		}
		state.reject(stage.Criterion, th, exempt)
	}
	return state, nil
}

// checkRecords rejects values no collaborator should ever hand over.
func checkRecords(table *stats.Table) error {
	for _, r := range table.Records() {
		bad := func(col, v string) error {
			return &stats.MalformedMetricError{Path: "stats table", Genome: r.ID, Column: col, Value: v}
		}
		switch {
		case r.Unknowns < 0:
			return bad(stats.ColUnknowns, fmt.Sprint(r.Unknowns))
		case r.Contigs < 1:
			return bad(stats.ColContigs, fmt.Sprint(r.Contigs))
		case r.AssemblySize < 0:
			return bad(stats.ColAssemblySize, fmt.Sprint(r.AssemblySize))
		case math.IsNaN(r.Distance) || math.IsInf(r.Distance, 0) || r.Distance < 0:
			return bad(stats.ColDistance, fmt.Sprint(r.Distance))
		}
	}
	return nil
}
