package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/teilomillet/ecoprompt/utils"
)

const DefaultOpenAIModel = string(openai.SmallEmbedding3)

// OpenAIProvider embeds text with the OpenAI embeddings API.
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger utils.Logger
}

// NewOpenAIProvider creates the provider. baseURL overrides the API base (e.g. a proxy);
// leave it empty for api.openai.com.
func NewOpenAIProvider(apiKey, model, baseURL string, logger utils.Logger) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key not found: set OPENAI_API_KEY")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
		logger: logger,
	}, nil
}

func (p *OpenAIProvider) Name() string    { return "openai" }
func (p *OpenAIProvider) Model() string   { return string(p.model) }
func (p *OpenAIProvider) Dimensions() int { return dimensionsFor(string(p.model)) }

func (p *OpenAIProvider) Encode(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("openai returned no embedding")
	}
	p.logger.Debug("Embedded text", "provider", p.Name(), "model", p.model, "tokens", resp.Usage.TotalTokens)
	return resp.Data[0].Embedding, nil
}
