package standardize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPathogenIndex() *PathogenIndex {
	return NewPathogenIndex([]map[string]string{
		{
			"pathogen":        "FLU_A_H5N1",
			"pathogen_rank_1": "FLU",
			"pathogen_rank_2": "FLU_A",
			"pathogen_name":   "Influenza A H5N1",
		},
		{
			"pathogen":        "FLU_A_H7N9",
			"pathogen_rank_1": "FLU",
			"pathogen_rank_2": "FLU_A",
			"pathogen_name":   "Influenza A H7N9",
		},
		{
			"pathogen":        "MERS_COV",
			"pathogen_rank_1": "CORONAVIRUS",
			"pathogen_rank_2": "BETA_COV",
			"pathogen_name":   "Middle East Respiratory Syndrome Coronavirus",
		},
	})
}

func TestPathogenExactCode(t *testing.T) {
	idx := testPathogenIndex()

	triple, ok := idx.Standardize("FLU_A_H5N1")
	require.True(t, ok)
	assert.Equal(t, PathogenTriple{Pathogen: "FLU_A_H5N1", Rank1: "FLU", Rank2: "FLU_A"}, triple)
}

func TestPathogenSeparatorAndCaseInvariance(t *testing.T) {
	idx := testPathogenIndex()

	want := PathogenTriple{Pathogen: "MERS_COV", Rank1: "CORONAVIRUS", Rank2: "BETA_COV"}
	for _, raw := range []string{"MERS-CoV", "mers_cov", "MERS_COV", "Mers Cov"} {
		triple, ok := idx.Standardize(raw)
		require.True(t, ok, "raw %q should match", raw)
		assert.Equal(t, want, triple, "raw %q", raw)
	}
}

func TestPathogenSpecificityTieBreak(t *testing.T) {
	// "H5N1" appears in both the FLU rank_1 tier (via its family) and the
	// specific FLU_A_H5N1 name; the specific match must win.
	idx := testPathogenIndex()

	triple, ok := idx.Standardize("H5N1")
	require.True(t, ok)
	assert.Equal(t, "FLU_A_H5N1", triple.Pathogen)
	assert.Equal(t, "FLU", triple.Rank1)
	assert.Equal(t, "FLU_A", triple.Rank2)
}

func TestPathogenNameAlias(t *testing.T) {
	idx := testPathogenIndex()

	triple, ok := idx.Standardize("Influenza A H7N9")
	require.True(t, ok)
	assert.Equal(t, "FLU_A_H7N9", triple.Pathogen)
}

func TestPathogenRankFallbacks(t *testing.T) {
	idx := testPathogenIndex()

	// rank_2 match: pathogen stays empty, ranks are filled.
	triple, ok := idx.Standardize("FLU_A")
	require.True(t, ok)
	assert.Equal(t, PathogenTriple{Rank1: "FLU", Rank2: "FLU_A"}, triple)

	// rank_1 match: only the broad tier.
	triple, ok = idx.Standardize("CORONAVIRUS")
	require.True(t, ok)
	assert.Equal(t, PathogenTriple{Rank1: "CORONAVIRUS"}, triple)
}

func TestPathogenIdempotence(t *testing.T) {
	idx := testPathogenIndex()

	first, ok := idx.Standardize("Influenza A H5N1")
	require.True(t, ok)
	second, ok := idx.Standardize(first.Pathogen)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestPathogenUnmatched(t *testing.T) {
	idx := testPathogenIndex()

	triple, ok := idx.Standardize("Pathogen X")
	assert.False(t, ok)
	assert.Equal(t, PathogenTriple{Pathogen: "Pathogen X"}, triple)
}

func TestPathogenEmptyInput(t *testing.T) {
	idx := testPathogenIndex()

	triple, ok := idx.Standardize("")
	assert.True(t, ok)
	assert.Equal(t, PathogenTriple{}, triple)
}
