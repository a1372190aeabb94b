package ecoprompt

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/teilomillet/ecoprompt/complexity"
	"github.com/teilomillet/ecoprompt/energy"
	"github.com/teilomillet/ecoprompt/similarity"
	"github.com/teilomillet/ecoprompt/types"
)

// Request is one analysis input. Empty Mode means local, empty Size means small.
type Request struct {
	Prompt string      `json:"prompt"`
	Size   energy.Size `json:"size,omitempty"`
	Mode   types.Mode  `json:"mode,omitempty"`
}

func (r Request) normalize() (Request, error) {
	if strings.TrimSpace(r.Prompt) == "" {
		return r, types.NewError(types.ErrorKindEmptyInput, "prompt is empty", nil)
	}

	if r.Mode == "" {
		r.Mode = types.ModeLocal
	}
	mode, err := types.ParseMode(string(r.Mode))
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	r.Mode = mode

	if r.Size == "" {
		r.Size = energy.SizeSmall
	}
	size, err := energy.ParseSize(string(r.Size))
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	r.Size = size
	return r, nil
}

// Report is the outcome of a successful analysis.
type Report struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	Mode      types.Mode  `json:"mode"`
	Size      energy.Size `json:"size"`
	Prompt    string      `json:"prompt"`
	// Source names the embedder (local) or generative model (remote) that produced Result.
	Source string                   `json:"source"`
	Result types.OptimizationResult `json:"result"`
	Energy energy.Comparison        `json:"energy"`

	OriginalTokens  int `json:"originalTokens"`
	OptimizedTokens int `json:"optimizedTokens"`

	// Local mode only.
	Match              *similarity.Match     `json:"match,omitempty"`
	Suggestions        []similarity.Match    `json:"suggestions,omitempty"`
	OriginalBreakdown  *complexity.Breakdown `json:"originalBreakdown,omitempty"`
	OptimizedBreakdown *complexity.Breakdown `json:"optimizedBreakdown,omitempty"`

	Elapsed time.Duration `json:"elapsedNs"`
}

// WriteText renders the report the way the CLI prints it.
func (r *Report) WriteText(b io.Writer) {
	fmt.Fprintf(b, "Analysis %s (%s mode, %s)\n\n", r.ID, r.Mode, r.Size.Description())
	fmt.Fprintf(b, "Original prompt:   %s\n", r.Prompt)
	fmt.Fprintf(b, "Optimized prompt:  %s\n", r.Result.OptimizedPrompt)
	fmt.Fprintf(b, "Similarity:        %.2f%%\n\n", r.Result.SimilarityScore)

	fmt.Fprintf(b, "Complexity:        %.2f -> %.2f\n", r.Result.OriginalComplexity, r.Result.OptimizedComplexity)
	fmt.Fprintf(b, "Tokens:            %d -> %d\n", r.OriginalTokens, r.OptimizedTokens)
	fmt.Fprintf(b, "Energy (mock):     %.4f kWh -> %.4f kWh\n", r.Energy.OriginalKWh, r.Energy.OptimizedKWh)
	if r.Energy.SavingsKWh >= 0 {
		fmt.Fprintf(b, "Savings:           %.4f kWh (%.2f%%)\n", r.Energy.SavingsKWh, r.Energy.SavingsPercent)
	} else {
		fmt.Fprintf(b, "Increase:          %.4f kWh (%.2f%%)\n", -r.Energy.SavingsKWh, -r.Energy.SavingsPercent)
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprint(b, "\nOther close reference prompts:\n")
		for _, s := range r.Suggestions {
			fmt.Fprintf(b, "  #%d %.2f%%  %s\n", s.Position, s.Similarity, s.Prompt)
		}
	}
	fmt.Fprintf(b, "\nSource: %s, took %s\n", r.Source, r.Elapsed.Round(time.Millisecond))
}

// String returns the text rendering.
func (r *Report) String() string {
	var b strings.Builder
	r.WriteText(&b)
	return b.String()
}
