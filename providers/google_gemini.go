package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teilomillet/ecoprompt/utils"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements the Provider interface for Google's Gemini API (Generative Language API).
// Structured output uses generationConfig.responseMimeType and responseSchema.
type GeminiProvider struct {
	apiKey       string            // API key sent in x-goog-api-key
	model        string            // Model name (e.g., "gemini-2.0-flash")
	baseURL      string            // API root, overridable for proxies and tests
	extraHeaders map[string]string // Additional HTTP headers
	logger       utils.Logger
}

// NewGeminiProvider creates a new Google Gemini API provider instance.
//
// Parameters:
//   - apiKey: API key for the Google Generative Language API
//   - model: The model to use (e.g., "gemini-2.0-flash"); a "models/" prefix is optional
//   - extraHeaders: Additional HTTP headers to include in requests (can be nil)
func NewGeminiProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	provider := &GeminiProvider{
		apiKey:       apiKey,
		model:        model,
		baseURL:      geminiBaseURL,
		extraHeaders: make(map[string]string),
		logger:       utils.NewLogger(utils.LogLevelInfo),
	}
	for k, v := range extraHeaders {
		provider.extraHeaders[k] = v
	}
	return provider
}

func (p *GeminiProvider) Name() string {
	return "google"
}

// Endpoint returns the generateContent URL for the configured model, e.g.
// "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent".
func (p *GeminiProvider) Endpoint() string {
	modelName := p.model
	if !strings.HasPrefix(modelName, "models/") {
		modelName = "models/" + modelName
	}
	return fmt.Sprintf("%s/%s:generateContent", p.baseURL, modelName)
}

func (p *GeminiProvider) SetBaseURL(baseURL string) {
	if baseURL != "" {
		p.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func (p *GeminiProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":   "application/json",
		"x-goog-api-key": p.apiKey,
	}
	for k, v := range p.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (p *GeminiProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

func (p *GeminiProvider) SupportsJSONSchema() bool {
	return true
}

// generationConfig maps the generic option names onto Gemini's generationConfig keys.
func generationConfig(options map[string]any) map[string]any {
	genConfig := make(map[string]any)
	if maxTokens, ok := options["max_tokens"].(int); ok && maxTokens > 0 {
		genConfig["maxOutputTokens"] = maxTokens
	}
	if temp, ok := options["temperature"].(float64); ok {
		genConfig["temperature"] = temp
	}
	if topP, ok := options["top_p"].(float64); ok {
		genConfig["topP"] = topP
	}
	return genConfig
}

func (p *GeminiProvider) baseRequest(prompt string, options map[string]any) map[string]any {
	requestBody := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
	}
	if sys, ok := options["system_prompt"].(string); ok && sys != "" {
		requestBody["systemInstruction"] = map[string]any{
			"parts": []map[string]string{{"text": sys}},
		}
	}
	return requestBody
}

// PrepareRequestWithSchema instructs the model to answer with JSON matching schema.
func (p *GeminiProvider) PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error) {
	responseSchema, err := geminiSchema(schema)
	if err != nil {
		return nil, err
	}

	requestBody := p.baseRequest(prompt, options)
	genConfig := generationConfig(options)
	genConfig["responseMimeType"] = "application/json"
	genConfig["responseSchema"] = responseSchema
	requestBody["generationConfig"] = genConfig

	reqJSON, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Request with schema prepared", "provider", p.Name(), "bytes", len(reqJSON))
	return reqJSON, nil
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// ParseResponse concatenates the text parts of the first candidate.
func (p *GeminiProvider) ParseResponse(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse Gemini response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("gemini API error %d (%s): %s", resp.Error.Code, resp.Error.Status, resp.Error.Message)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in Gemini response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty Gemini response (finish reason %q)", resp.Candidates[0].FinishReason)
	}
	return text.String(), nil
}
