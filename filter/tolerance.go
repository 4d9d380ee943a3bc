package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tolerances are the user supplied severities. MaxUnknowns is an absolute
// cap, the others multiply the median absolute deviation.
type Tolerances struct {
	MaxUnknowns  int
	Contigs      float64
	AssemblySize float64
	Distance     float64
}

func DefaultTolerances() Tolerances {
	return Tolerances{MaxUnknowns: 200, Contigs: 3.0, AssemblySize: 3.0, Distance: 3.0}
}

// WithFilterLevel applies level to the three deviation tolerances.
func (t Tolerances) WithFilterLevel(level float64) Tolerances {
	t.Contigs = level
	t.AssemblySize = level
	t.Distance = level
	return t
}

func (t Tolerances) Validate() error {
	if t.MaxUnknowns < 0 {
		return fmt.Errorf("max unknowns must not be negative, got %d", t.MaxUnknowns)
	}
	for _, c := range Criteria[1:] {
		v := t.Of(c)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s tolerance must be a non-negative number, got %v", c, v)
		}
	}
	return nil
}

// Of returns the tolerance configured for c.
func (t Tolerances) Of(c Criterion) float64 {
	switch c {
	case Unknowns:
		return float64(t.MaxUnknowns)
	case Contigs:
		return t.Contigs
	case AssemblySize:
		return t.AssemblySize
	case Distance:
		return t.Distance
	}
	return math.NaN()
}

// Format renders the tolerance for c the way it appears in labels and summaries.
func (t Tolerances) Format(c Criterion) string {
	if c == Unknowns {
		return strconv.Itoa(t.MaxUnknowns)
	}
	return formatDecimal(t.Of(c))
}

// Label fingerprints the configuration, e.g. "200-3.0-3.0-3.0". It names the
// results directory and keys the completeness cache.
func (t Tolerances) Label() string {
	parts := make([]string, len(Criteria))
	for i, c := range Criteria {
		parts[i] = t.Format(c)
	}
	return strings.Join(parts, "-")
}

// formatDecimal prints the shortest representation of f that still reads as a
// float, so 3 becomes "3.0" and 2.5 stays "2.5".
func formatDecimal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
