package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	assert.Equal(t, "100-3.0-3.0-3.0", Tolerances{MaxUnknowns: 100, Contigs: 3.0, AssemblySize: 3.0, Distance: 3.0}.Label())
	assert.Equal(t, "200-3.0-3.0-3.0", DefaultTolerances().Label())
	assert.Equal(t, "300-2.5-2.5-2.5", Tolerances{MaxUnknowns: 300}.WithFilterLevel(2.5).Label())
	assert.Equal(t, "200-1.0-3.25-0.5", Tolerances{MaxUnknowns: 200, Contigs: 1, AssemblySize: 3.25, Distance: 0.5}.Label())
}

func TestParseCriterion(t *testing.T) {
	for _, c := range Criteria {
		got, err := ParseCriterion(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseCriterion("MASH")
	require.NoError(t, err)
	assert.Equal(t, Distance, got)

	_, err = ParseCriterion("gc_content")
	assert.Error(t, err)
}

func TestStageOrder(t *testing.T) {
	require.Len(t, Stages, len(Criteria))
	for i, st := range Stages {
		assert.Equal(t, Criteria[i], st.Criterion)
	}
	assert.Equal(t, HardCutoff, Stages[0].Kind)
}

func TestThresholdRejects(t *testing.T) {
	up := UpperBound(10)
	assert.False(t, up.Rejects(10))
	assert.True(t, up.Rejects(10.0001))
	assert.False(t, up.Rejects(-5))

	r := Between(5, 10)
	assert.True(t, r.Rejects(4.9))
	assert.False(t, r.Rejects(5))
	assert.False(t, r.Rejects(10))
	assert.True(t, r.Rejects(11))
}

func TestThresholdFormat(t *testing.T) {
	assert.Equal(t, "200", UpperBound(200).Format(Unknowns))
	assert.Equal(t, "123.5", UpperBound(123.5).Format(Contigs))
	assert.Equal(t, "4000000-4200000", Between(4000000.9, 4200000.7).Format(AssemblySize))
	assert.Equal(t, "0.0312", UpperBound(0.03124).Format(Distance))
}
