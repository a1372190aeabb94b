// Package embedding converts prompt text into dense vectors.
//
// Providers are expected to be deterministic for identical text and to return vectors
// of one fixed dimensionality for the lifetime of the process. Similar meanings should
// yield vectors that are close under cosine similarity.
package embedding

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/teilomillet/ecoprompt/utils"
)

// Provider embeds text.
type Provider interface {
	// Name returns the provider identifier ("ollama", "gemini", "openai", "hash").
	Name() string

	// Model returns the embedding model in use.
	Model() string

	// Dimensions returns the vector length, or 0 when it is only known after the first call.
	Dimensions() int

	// Encode returns the embedding of text.
	Encode(ctx context.Context, text string) ([]float32, error)
}

// ModelInfo describes a known embedding model.
type ModelInfo struct {
	Dimensions int
}

// KnownModels maps model names to their vector sizes.
var KnownModels = map[string]ModelInfo{
	"all-minilm":             {Dimensions: 384},
	"nomic-embed-text":       {Dimensions: 768},
	"mxbai-embed-large":      {Dimensions: 1024},
	"text-embedding-004":     {Dimensions: 768},
	"embedding-001":          {Dimensions: 768},
	"text-embedding-3-small": {Dimensions: 1536},
	"text-embedding-3-large": {Dimensions: 3072},
	"text-embedding-ada-002": {Dimensions: 1536},
}

func dimensionsFor(model string) int {
	return KnownModels[model].Dimensions
}

// Settings selects and configures a provider.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	Endpoint string
	Logger   utils.Logger
}

// New builds the provider named in s. An empty model selects the provider default.
func New(ctx context.Context, s Settings) (Provider, error) {
	if s.Logger == nil {
		s.Logger = utils.NewNopLogger()
	}
	switch strings.ToLower(s.Provider) {
	case "ollama":
		return NewOllamaProvider(s.Endpoint, s.Model, s.Logger), nil
	case "gemini", "google":
		p, err := NewGeminiProvider(ctx, s.APIKey, s.Model, s.Logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "openai":
		p, err := NewOpenAIProvider(s.APIKey, s.Model, s.Endpoint, s.Logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "hash":
		return NewHashProvider(0), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", s.Provider)
	}
}

// Close releases provider resources when the provider holds any.
func Close(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
