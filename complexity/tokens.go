package complexity

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/teilomillet/ecoprompt/utils"
)

// TokenCounter reports how many model tokens a text uses.
type TokenCounter interface {
	Count(text string) int
}

// HeuristicCounter assumes about four characters per token.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// TiktokenCounter counts with the BPE encoding of a model. The encoding is loaded on
// first use; when it cannot be loaded the counter falls back to HeuristicCounter.
type TiktokenCounter struct {
	model    string
	logger   utils.Logger
	once     sync.Once
	encoding *tiktoken.Tiktoken
	fallback HeuristicCounter
}

func NewTiktokenCounter(model string, logger utils.Logger) *TiktokenCounter {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &TiktokenCounter{model: model, logger: logger}
}

func (c *TiktokenCounter) load() {
	encoding, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		c.logger.Warn("Failed to get encoding for model, trying cl100k_base", "model", c.model, "error", err)
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			c.logger.Warn("Token encoding unavailable, using character heuristic", "error", err)
			return
		}
	}
	c.encoding = encoding
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(c.load)
	if c.encoding == nil {
		return c.fallback.Count(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// NewTokenCounter returns a tiktoken counter for model, or the heuristic when model
// is empty or "heuristic".
func NewTokenCounter(model string, logger utils.Logger) TokenCounter {
	if model == "" || model == "heuristic" {
		return HeuristicCounter{}
	}
	return NewTiktokenCounter(model, logger)
}
