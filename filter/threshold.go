package filter

import (
	"fmt"
	"strconv"
)

// Threshold is the allowed region computed for a criterion. When Range is
// false only Upper applies.
type Threshold struct {
	Lower float64 `yaml:"lower,omitempty"`
	Upper float64 `yaml:"upper"`
	Range bool    `yaml:"range,omitempty"`
}

func UpperBound(upper float64) Threshold {
	return Threshold{Upper: upper}
}

func Between(lower, upper float64) Threshold {
	return Threshold{Lower: lower, Upper: upper, Range: true}
}

// Rejects reports whether v falls outside the allowed region. Values equal to
// a bound pass.
func (t Threshold) Rejects(v float64) bool {
	if t.Range && v < t.Lower {
		return true
	}
	return v > t.Upper
}

// Format renders t for criterion c in the text form used by summaries and the
// cache: integer for unknowns, "lower-upper" for assembly size, four decimals
// for distance.
func (t Threshold) Format(c Criterion) string {
	switch c {
	case Unknowns:
		return strconv.FormatInt(int64(t.Upper), 10)
	case AssemblySize:
		if t.Range {
			return fmt.Sprintf("%d-%d", int64(t.Lower), int64(t.Upper))
		}
	case Distance:
		return fmt.Sprintf("%.4f", t.Upper)
	}
	if t.Range {
		return formatDecimal(t.Lower) + "-" + formatDecimal(t.Upper)
	}
	return formatDecimal(t.Upper)
}
