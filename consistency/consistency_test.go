package consistency

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gmaffy/genbank-qc/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLeaves(t *testing.T) {
	tree := "((GCA_1.1_A.fasta:0.01,GCA_2.1_B:0.02)0.95:0.03,('GCA_3.1 C':0.1,GCA_4.1[&&NHX:S=x]:0.2)inner:0.4);\n"
	leaves, err := ParseLeaves(strings.NewReader(tree))
	require.NoError(t, err)
	assert.Equal(t, []string{"GCA_1.1_A", "GCA_2.1_B", "GCA_3.1 C", "GCA_4.1"}, leaves)
}

func TestParseLeavesSingleLeaf(t *testing.T) {
	leaves, err := ParseLeaves(strings.NewReader("GCA_1.1;"))
	require.NoError(t, err)
	assert.Equal(t, []string{"GCA_1.1"}, leaves)
}

func TestParseLeavesUnbalanced(t *testing.T) {
	_, err := ParseLeaves(strings.NewReader("((A,B);"))
	assert.Error(t, err)
	_, err = ParseLeaves(strings.NewReader("(A,B));"))
	assert.Error(t, err)
}

func TestReadTreeLeavesMissing(t *testing.T) {
	_, err := ReadTreeLeaves(filepath.Join(t.TempDir(), "tree.nw"))
	assert.ErrorIs(t, err, stats.ErrNotBuilt)
}

func TestReadTreeLeaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.nw")
	require.NoError(t, os.WriteFile(path, []byte("(A:1,(B:1,C:1):1);"), 0644))
	leaves, err := ReadTreeLeaves(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, leaves)
}

func TestCheckAllConsistent(t *testing.T) {
	ids := IDSet([]string{"a", "b", "c"})
	res := Check(Sources{Stats: ids, Matrix: ids, Disk: ids, Tree: []string{"c", "a", "b"}})

	assert.True(t, res.StatsMatchesDisk)
	assert.True(t, res.MatrixMatchesStats)
	assert.True(t, res.TreeExists)
	assert.True(t, res.TreeMatchesStats)
	assert.NoError(t, res.Err())
}

func TestCheckStaleInputs(t *testing.T) {
	res := Check(Sources{
		Stats:  IDSet([]string{"a", "b", "c"}),
		Matrix: IDSet([]string{"a", "b", "c"}),
		Disk:   IDSet([]string{"a", "b", "d"}),
	})
	assert.False(t, res.StatsMatchesDisk)
	assert.Equal(t, []string{"c"}, res.Disk.Missing)
	assert.Equal(t, []string{"d"}, res.Disk.Extra)
	assert.True(t, res.MatrixMatchesStats)
	assert.False(t, res.TreeExists)
	assert.False(t, res.TreeMatchesStats)

	err := res.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleInputs))
	assert.Contains(t, err.Error(), "genome files")
}

func TestCheckStaleTreeIsNotAnError(t *testing.T) {
	ids := IDSet([]string{"a", "b", "c"})
	res := Check(Sources{Stats: ids, Matrix: ids, Disk: ids, Tree: []string{"a", "b"}})
	assert.True(t, res.TreeExists)
	assert.False(t, res.TreeMatchesStats)
	assert.Equal(t, []string{"c"}, res.Tree.Missing)
	assert.NoError(t, res.Err())

	dup := Check(Sources{Stats: ids, Matrix: ids, Disk: ids, Tree: []string{"a", "b", "c", "c"}})
	assert.False(t, dup.TreeMatchesStats)
}
