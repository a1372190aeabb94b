package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teilomillet/ecoprompt/utils"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider implements the Provider interface for OpenAI's chat completions API.
type OpenAIProvider struct {
	apiKey       string
	model        string
	baseURL      string
	extraHeaders map[string]string
	logger       utils.Logger
}

func NewOpenAIProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &OpenAIProvider{
		apiKey:       apiKey,
		model:        model,
		baseURL:      openAIBaseURL,
		extraHeaders: extraHeaders,
		logger:       utils.NewLogger(utils.LogLevelInfo),
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Endpoint() string {
	return p.baseURL + "/chat/completions"
}

func (p *OpenAIProvider) SetBaseURL(baseURL string) {
	if baseURL != "" {
		p.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func (p *OpenAIProvider) SupportsJSONSchema() bool {
	return true
}

func (p *OpenAIProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}
	for k, v := range p.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (p *OpenAIProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

func (p *OpenAIProvider) createBaseRequest(prompt string, options map[string]any) map[string]any {
	messages := []map[string]string{}
	if sys, ok := options["system_prompt"].(string); ok && sys != "" {
		messages = append(messages, map[string]string{"role": "system", "content": sys})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	request := map[string]any{
		"model":    p.model,
		"messages": messages,
	}
	for k, v := range options {
		if k == "system_prompt" {
			continue
		}
		request[k] = v
	}
	return request
}

// PrepareRequestWithSchema requests a strict json_schema response format.
func (p *OpenAIProvider) PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error) {
	schemaMap, err := normalizeSchema(schema, "$schema", "$id")
	if err != nil {
		return nil, err
	}

	request := p.createBaseRequest(prompt, options)
	request["response_format"] = map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "structured_response",
			"schema": schemaMap,
			"strict": true,
		},
	}

	reqJSON, err := json.Marshal(request)
	if err != nil {
		p.logger.Error("Failed to marshal request with schema", "error", err)
		return nil, err
	}
	p.logger.Debug("Request with schema prepared", "request", string(reqJSON))
	return reqJSON, nil
}

func (p *OpenAIProvider) ParseResponse(body []byte) (string, error) {
	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error,omitempty"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("openai API error (%s): %s", response.Error.Type, response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("empty response from API")
	}
	msg := response.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", msg.Refusal)
	}
	return msg.Content, nil
}
