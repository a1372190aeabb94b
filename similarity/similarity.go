// Package similarity finds the reference prompt closest to a query embedding.
package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/teilomillet/ecoprompt/complexity"
	"github.com/teilomillet/ecoprompt/corpus"
	"github.com/teilomillet/ecoprompt/types"
)

// CosineSimilarity returns dot(a,b)/(|a||b|) in [-1, 1]. It returns 0 when either
// vector has zero magnitude. Callers must pass vectors of equal length.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Match is one scored reference entry.
type Match struct {
	Position int    `json:"position"`
	Prompt   string `json:"prompt"`
	// Raw is the unclamped cosine similarity used for ranking.
	Raw float64 `json:"raw"`
	// Similarity is 100*Raw clamped to [0, 100].
	Similarity float64 `json:"similarity"`
}

func newMatch(position int, prompt string, raw float64) Match {
	return Match{
		Position:   position,
		Prompt:     prompt,
		Raw:        raw,
		Similarity: complexity.Clamp(raw * 100),
	}
}

// score checks the table against the query and returns the raw similarity of every
// entry in corpus order. table[i] belongs to corpus position i+1.
func score(query []float32, table [][]float32, c *corpus.Corpus) ([]float64, error) {
	if len(table) == 0 || c == nil || c.Len() == 0 {
		return nil, types.NewError(types.ErrorKindEmptyCorpus, "reference corpus has no entries", nil)
	}
	if len(table) != c.Len() {
		return nil, types.NewError(types.ErrorKindDimensionMismatch,
			fmt.Sprintf("embedding table has %d entries for %d corpus prompts", len(table), c.Len()), nil)
	}
	if len(query) == 0 {
		return nil, types.NewError(types.ErrorKindDimensionMismatch, "query vector is empty", nil)
	}

	scores := make([]float64, len(table))
	for i, vec := range table {
		if len(vec) != len(query) {
			return nil, types.NewError(types.ErrorKindDimensionMismatch,
				fmt.Sprintf("reference %d has %d dimensions, query has %d", i+1, len(vec), len(query)), nil)
		}
		scores[i] = CosineSimilarity(query, vec)
	}
	return scores, nil
}

// Best returns the entry most similar to query. Ties go to the earliest position.
func Best(query []float32, table [][]float32, c *corpus.Corpus) (Match, error) {
	scores, err := score(query, table, c)
	if err != nil {
		return Match{}, err
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	prompt, _ := c.At(best + 1)
	return newMatch(best+1, prompt, scores[best]), nil
}

// Rank returns every entry ordered by descending raw similarity; ties keep corpus order.
func Rank(query []float32, table [][]float32, c *corpus.Corpus) ([]Match, error) {
	scores, err := score(query, table, c)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(scores))
	for i, s := range scores {
		prompt, _ := c.At(i + 1)
		matches[i] = newMatch(i+1, prompt, s)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Raw > matches[j].Raw
	})
	return matches, nil
}
