// Package filter implements the cascading median absolute deviation filter
// that splits the genomes of a species into passed and failed sets.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Criterion is one of the four quality metrics a genome is judged on.
type Criterion int

const (
	Unknowns Criterion = iota
	Contigs
	AssemblySize
	Distance
)

// Criteria lists every criterion in stage order.
var Criteria = []Criterion{Unknowns, Contigs, AssemblySize, Distance}

func (c Criterion) String() string {
	switch c {
	case Unknowns:
		return "unknowns"
	case Contigs:
		return "contigs"
	case AssemblySize:
		return "assembly_size"
	case Distance:
		return "distance"
	}
	return "Criterion(" + strconv.Itoa(int(c)) + ")"
}

// Title is the heading used for c in the summary.
func (c Criterion) Title() string {
	switch c {
	case Unknowns:
		return "Unknown Bases"
	case Contigs:
		return "Contigs"
	case AssemblySize:
		return "Assembly Size"
	case Distance:
		return "MASH"
	}
	return c.String()
}

func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknowns", "n_count":
		return Unknowns, nil
	case "contigs":
		return Contigs, nil
	case "assembly_size":
		return AssemblySize, nil
	case "distance", "mash":
		return Distance, nil
	}
	return 0, fmt.Errorf("unknown criterion %q", s)
}

// Kind is how a stage turns a metric into a pass/fail decision.
type Kind int

const (
	// HardCutoff fails values above the tolerance itself.
	HardCutoff Kind = iota
	// MADUpperExempt fails values above median+MAD*tolerance, computed over
	// genomes with more than ContigExemptionLimit contigs only.
	MADUpperExempt
	// MADRange fails values outside median±MAD*tolerance.
	MADRange
	// MADUpper fails values above median+MAD*tolerance.
	MADUpper
)

// Stage binds a criterion to the way it is filtered.
type Stage struct {
	Criterion Criterion
	Kind      Kind
}

// Stages is the fixed filter order. Every stage only sees the survivors of
// the stages before it.
var Stages = []Stage{
	{Unknowns, HardCutoff},
	{Contigs, MADUpperExempt},
	{AssemblySize, MADRange},
	{Distance, MADUpper},
}
