// Package consistency verifies that the stats table, the distance matrix,
// the genome files on disk and the tree all describe the same genomes.
package consistency

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ErrStaleInputs means the inputs of a species disagree on its genomes and
// must be rebuilt before filtering.
var ErrStaleInputs = errors.New("stale inputs")

// Diff lists ids present on only one side of a comparison.
type Diff struct {
	Missing []string
	Extra   []string
}

func (d Diff) Empty() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0
}

func (d Diff) String() string {
	return fmt.Sprintf("missing %d %v, extra %d %v", len(d.Missing), head(d.Missing), len(d.Extra), head(d.Extra))
}

func head(ids []string) []string {
	if len(ids) > 5 {
		return append(ids[:5:5], "...")
	}
	return ids
}

// Result is the outcome of Check. Diffs are relative to the stats table:
// Missing ids are in the table but not in the other source.
type Result struct {
	StatsMatchesDisk   bool
	MatrixMatchesStats bool
	TreeExists         bool
	TreeMatchesStats   bool

	Disk   Diff
	Matrix Diff
	Tree   Diff
}

// Err returns ErrStaleInputs with details when the table, matrix and disk
// disagree. A stale tree is not an error here; it only blocks annotation.
func (r Result) Err() error {
	var parts []string
	if !r.StatsMatchesDisk {
		parts = append(parts, "genome files: "+r.Disk.String())
	}
	if !r.MatrixMatchesStats {
		parts = append(parts, "distance matrix: "+r.Matrix.String())
	}
	if len(parts) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrStaleInputs, strings.Join(parts, "; "))
}

// Sources are the genome id sets to compare. Tree is nil when no tree has
// been built.
type Sources struct {
	Stats  map[string]struct{}
	Matrix map[string]struct{}
	Disk   map[string]struct{}
	Tree   []string
}

// Check compares the id sets of src. Order never matters.
func Check(src Sources) Result {
	statsIDs := sortedKeys(src.Stats)
	res := Result{
		Disk:   diff(statsIDs, sortedKeys(src.Disk)),
		Matrix: diff(statsIDs, sortedKeys(src.Matrix)),
	}
	res.StatsMatchesDisk = res.Disk.Empty()
	res.MatrixMatchesStats = res.Matrix.Empty()
	if src.Tree != nil {
		res.TreeExists = true
		leaves := lo.Uniq(src.Tree)
		res.Tree = diff(statsIDs, leaves)
		res.TreeMatchesStats = res.Tree.Empty() && len(leaves) == len(src.Tree)
	}
	return res
}

func sortedKeys(set map[string]struct{}) []string {
	keys := lo.Keys(set)
	sort.Strings(keys)
	return keys
}

func diff(want, got []string) Diff {
	missing, extra := lo.Difference(want, got)
	sort.Strings(missing)
	sort.Strings(extra)
	return Diff{Missing: missing, Extra: extra}
}

// IDSet turns a list of ids into a set.
func IDSet(ids []string) map[string]struct{} {
	return lo.SliceToMap(ids, func(id string) (string, struct{}) {
		return id, struct{}{}
	})
}
