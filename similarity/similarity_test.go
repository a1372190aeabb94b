package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/ecoprompt/corpus"
	"github.com/teilomillet/ecoprompt/types"
)

func mustCorpus(t *testing.T, prompts ...string) *corpus.Corpus {
	t.Helper()
	c, err := corpus.New(prompts)
	require.NoError(t, err)
	return c
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"45 degrees", []float32{1, 0}, []float32{1, 1}, 1 / math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestBestSingleEntry(t *testing.T) {
	c := mustCorpus(t, "The cat sat on the mat.")
	query := []float32{1, 1}
	entry := []float32{1, 0}

	m, err := Best(query, [][]float32{entry}, c)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position)
	assert.Equal(t, "The cat sat on the mat.", m.Prompt)
	assert.InDelta(t, 100*CosineSimilarity(query, entry), m.Similarity, 1e-9)
}

func TestBestPicksHighest(t *testing.T) {
	c := mustCorpus(t, "a", "b", "c")
	table := [][]float32{{0, 1}, {1, 0.1}, {-1, 0}}

	m, err := Best([]float32{1, 0}, table, c)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Position)
	assert.Equal(t, "b", m.Prompt)
}

func TestBestTieGoesToFirst(t *testing.T) {
	c := mustCorpus(t, "first", "second", "third")
	table := [][]float32{{0, 1}, {1, 0}, {2, 0}}

	for i := 0; i < 10; i++ {
		m, err := Best([]float32{3, 0}, table, c)
		require.NoError(t, err)
		assert.Equal(t, "second", m.Prompt)
		assert.Equal(t, 2, m.Position)
	}
}

func TestBestClampsNegativeSimilarity(t *testing.T) {
	c := mustCorpus(t, "only")
	m, err := Best([]float32{1, 0}, [][]float32{{-1, 0}}, c)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, m.Raw, 1e-9)
	assert.Equal(t, 0.0, m.Similarity)
}

func TestBestRankingUsesRawBeforeClamp(t *testing.T) {
	c := mustCorpus(t, "far", "less far")
	// Both clamp to 0 but the second is closer.
	table := [][]float32{{-1, 0}, {-1, 1}}

	m, err := Best([]float32{1, 0}, table, c)
	require.NoError(t, err)
	assert.Equal(t, "less far", m.Prompt)
	assert.Equal(t, 0.0, m.Similarity)
}

func TestBestEmptyCorpus(t *testing.T) {
	_, err := Best([]float32{1}, nil, mustCorpus(t))
	assert.ErrorIs(t, err, types.ErrEmptyCorpus)

	_, err = Best([]float32{1}, [][]float32{{1}}, nil)
	assert.ErrorIs(t, err, types.ErrEmptyCorpus)
}

func TestBestDimensionMismatch(t *testing.T) {
	c := mustCorpus(t, "a", "b")

	tests := []struct {
		name  string
		query []float32
		table [][]float32
	}{
		{"one entry differs", []float32{1, 0}, [][]float32{{1, 0}, {1, 0, 0}}},
		{"query differs", []float32{1, 0, 0}, [][]float32{{1, 0}, {0, 1}}},
		{"empty query", nil, [][]float32{{1, 0}, {0, 1}}},
		{"table shorter than corpus", []float32{1, 0}, [][]float32{{1, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Best(tt.query, tt.table, c)
			assert.ErrorIs(t, err, types.ErrDimensionMismatch)
		})
	}
}

func TestRankStableOrdering(t *testing.T) {
	c := mustCorpus(t, "w", "x", "y", "z")
	table := [][]float32{{0, 1}, {1, 0}, {1, 1}, {2, 0}}

	matches, err := Rank([]float32{1, 0}, table, c)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	got := []string{matches[0].Prompt, matches[1].Prompt, matches[2].Prompt, matches[3].Prompt}
	assert.Equal(t, []string{"x", "z", "y", "w"}, got)

	best, err := Best([]float32{1, 0}, table, c)
	require.NoError(t, err)
	assert.Equal(t, matches[0], best)
}
