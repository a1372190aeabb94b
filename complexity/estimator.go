// Package complexity scores prompts with a lexical heuristic that stands in for
// the computational cost of processing them.
package complexity

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Saturation points and weights of the three sub-scores.
const (
	wordSaturation       = 50.0
	uniqueSaturation     = 30.0
	wordLengthSaturation = 8.0

	lengthWeight     = 0.4
	uniqueWeight     = 0.3
	wordLengthWeight = 0.3

	MaxScore = 100.0
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Breakdown exposes the statistics behind a score.
type Breakdown struct {
	WordCount       int     `json:"wordCount"`
	UniqueWordCount int     `json:"uniqueWordCount"`
	MeanWordLength  float64 `json:"meanWordLength"`
	LengthScore     float64 `json:"lengthScore"`
	UniqueScore     float64 `json:"uniqueScore"`
	WordLengthScore float64 `json:"wordLengthScore"`
	Score           float64 `json:"score"`
}

// Tokenize lower-cases text and returns its maximal runs of letters, digits and underscores.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// Estimate returns the complexity of text in [0, 100]. Text without words scores exactly 0.
func Estimate(text string) float64 {
	return Analyze(text).Score
}

// Analyze computes the score together with its sub-scores.
func Analyze(text string) Breakdown {
	words := Tokenize(text)
	if len(words) == 0 {
		return Breakdown{}
	}

	unique := make(map[string]struct{}, len(words))
	totalRunes := 0
	for _, w := range words {
		unique[w] = struct{}{}
		totalRunes += utf8.RuneCountInString(w)
	}

	b := Breakdown{
		WordCount:       len(words),
		UniqueWordCount: len(unique),
		MeanWordLength:  float64(totalRunes) / float64(len(words)),
	}
	b.LengthScore = min(float64(b.WordCount)/wordSaturation, 1)
	b.UniqueScore = min(float64(b.UniqueWordCount)/uniqueSaturation, 1)
	b.WordLengthScore = min(b.MeanWordLength/wordLengthSaturation, 1)

	score := MaxScore * (lengthWeight*b.LengthScore + uniqueWeight*b.UniqueScore + wordLengthWeight*b.WordLengthScore)
	b.Score = Clamp(score)
	return b
}

// Clamp bounds a score to [0, 100].
func Clamp(score float64) float64 {
	return max(0, min(MaxScore, score))
}
