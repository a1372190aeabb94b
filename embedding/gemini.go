package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/teilomillet/ecoprompt/utils"
)

const DefaultGeminiModel = "text-embedding-004"

// GeminiProvider embeds text with the Gemini embedding models.
type GeminiProvider struct {
	client *genai.Client
	model  string
	em     *genai.EmbeddingModel
	logger utils.Logger
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, logger utils.Logger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key not found: set GEMINI_API_KEY")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  model,
		em:     client.EmbeddingModel(model),
		logger: logger,
	}, nil
}

func (p *GeminiProvider) Name() string    { return "gemini" }
func (p *GeminiProvider) Model() string   { return p.model }
func (p *GeminiProvider) Dimensions() int { return dimensionsFor(p.model) }

func (p *GeminiProvider) Encode(ctx context.Context, text string) ([]float32, error) {
	res, err := p.em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding error: %w", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("gemini returned no embedding")
	}
	p.logger.Debug("Embedded text", "provider", p.Name(), "model", p.model, "dimensions", len(res.Embedding.Values))
	return res.Embedding.Values, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
