// Package types contains the domain types shared across ecoprompt packages.
// It helps avoid import cycles between the matcher, the optimizer and the analyzer.
package types

import (
	"fmt"
	"strings"
)

// Mode selects how a replacement prompt is produced.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// ParseMode accepts "local" or "remote", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLocal:
		return ModeLocal, nil
	case ModeRemote:
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("unknown mode %q: expected local or remote", s)
	}
}

// OptimizationResult is the outcome of one analysis, whichever mode produced it.
type OptimizationResult struct {
	OptimizedPrompt     string  `json:"optimizedPrompt"`
	SimilarityScore     float64 `json:"similarityScore"`
	OriginalComplexity  float64 `json:"originalComplexity"`
	OptimizedComplexity float64 `json:"optimizedComplexity"`
}
