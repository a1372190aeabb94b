// Package llm performs the HTTP round trip to a generative provider: request
// preparation, rate limiting, timeouts, retries and schema validation of the reply.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/teilomillet/ecoprompt/config"
	"github.com/teilomillet/ecoprompt/providers"
	"github.com/teilomillet/ecoprompt/utils"
)

// LLM is the structured-output client used by the remote optimizer.
type LLM interface {
	// GenerateWithSchema sends prompt and returns a JSON reply that matches schema.
	GenerateWithSchema(ctx context.Context, prompt string, schema any) (string, error)
	SetOption(key string, value any)
	ProviderName() string
	Model() string
	GetLogger() utils.Logger
}

// LLMImpl is the HTTP implementation of LLM.
type LLMImpl struct {
	Provider providers.Provider
	Options  map[string]any
	client   *http.Client
	logger   utils.Logger
	limiter  *rate.Limiter
	timeout  time.Duration
	model    string

	MaxRetries int
	RetryDelay time.Duration

	optionsMutex sync.RWMutex
}

// NewLLM resolves the configured provider from registry and applies config defaults.
func NewLLM(cfg *config.Config, logger utils.Logger, registry *providers.ProviderRegistry) (*LLMImpl, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	provider, err := registry.Get(cfg.Provider, cfg.APIKey(cfg.Provider), cfg.Model, cfg.ExtraHeaders)
	if err != nil {
		return nil, NewLLMError(ErrorTypeProvider, "failed to create provider", err)
	}
	provider.SetLogger(logger)
	provider.SetBaseURL(cfg.LLMEndpoint)

	l := &LLMImpl{
		Provider:   provider,
		Options:    make(map[string]any),
		client:     &http.Client{},
		logger:     logger,
		timeout:    cfg.Timeout,
		model:      cfg.Model,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}
	if cfg.RateLimit > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	l.SetOption("temperature", cfg.Temperature)
	l.SetOption("max_tokens", cfg.MaxTokens)
	return l, nil
}

// SetHTTPClient replaces the transport, mainly for tests.
func (l *LLMImpl) SetHTTPClient(client *http.Client) {
	l.client = client
}

// SetOption sets a generation option sent with every request, e.g. "temperature",
// "max_tokens", "top_p" or "system_prompt".
func (l *LLMImpl) SetOption(key string, value any) {
	l.optionsMutex.Lock()
	defer l.optionsMutex.Unlock()
	l.Options[key] = value
	l.logger.Debug("Option set", "key", key, "value", value)
}

func (l *LLMImpl) ProviderName() string {
	return l.Provider.Name()
}

func (l *LLMImpl) Model() string {
	return l.model
}

func (l *LLMImpl) GetLogger() utils.Logger {
	return l.logger
}

func (l *LLMImpl) options() map[string]any {
	l.optionsMutex.RLock()
	defer l.optionsMutex.RUnlock()
	opts := make(map[string]any, len(l.Options))
	for k, v := range l.Options {
		opts[k] = v
	}
	return opts
}

func (l *LLMImpl) GenerateWithSchema(ctx context.Context, prompt string, schema any) (string, error) {
	if !l.Provider.SupportsJSONSchema() {
		return "", NewLLMError(ErrorTypeProvider, fmt.Sprintf("provider %s does not support structured output", l.Provider.Name()), nil)
	}

	retry := NewRetryStrategy(l.MaxRetries, l.RetryDelay)
	for attempt := 1; ; attempt++ {
		l.logger.Debug("Generating with schema", "provider", l.Provider.Name(), "attempt", attempt)

		result, err := l.attemptGenerateWithSchema(ctx, prompt, schema)
		if err == nil {
			return result, nil
		}
		if !retry.ShouldRetry(err) {
			return "", err
		}

		delay := retry.NextDelay()
		l.logger.Warn("Generation attempt failed, retrying", "error", err, "attempt", attempt, "delay", delay)
		select {
		case <-ctx.Done():
			return "", NewLLMError(ErrorTypeTimeout, "cancelled while waiting to retry", ctx.Err())
		case <-time.After(delay):
		}
	}
}

func (l *LLMImpl) attemptGenerateWithSchema(ctx context.Context, prompt string, schema any) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return "", NewLLMError(ErrorTypeTimeout, "rate limiter wait aborted", err)
		}
	}

	reqBody, err := l.Provider.PrepareRequestWithSchema(prompt, l.options(), schema)
	if err != nil {
		return "", NewLLMError(ErrorTypeRequest, "failed to prepare request", err)
	}
	l.logger.Debug("Request body", "provider", l.Provider.Name(), "bytes", len(reqBody))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.Provider.Endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return "", NewLLMError(ErrorTypeRequest, "failed to create request", err)
	}
	for k, v := range l.Provider.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", NewLLMError(ErrorTypeTimeout, "request did not complete", err)
		}
		return "", NewLLMError(ErrorTypeRequest, "failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewLLMError(ErrorTypeRequest, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		l.logger.Error("API error", "provider", l.Provider.Name(), "status", resp.StatusCode, "body", string(body))
		return "", statusError(resp.StatusCode, body)
	}

	result, err := l.Provider.ParseResponse(body)
	if err != nil {
		return "", NewLLMError(ErrorTypeResponse, "failed to parse response", err)
	}

	if err := ValidateAgainstSchema(result, schema); err != nil {
		return "", NewLLMError(ErrorTypeResponse, "response does not match schema", err)
	}

	l.logger.Debug("Structured reply received", "provider", l.Provider.Name(), "bytes", len(result))
	return result, nil
}

func statusError(status int, body []byte) *LLMError {
	errType := ErrorTypeAPI
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		errType = ErrorTypeAuthentication
	case http.StatusTooManyRequests:
		errType = ErrorTypeRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		errType = ErrorTypeTimeout
	}
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	llmErr := NewLLMError(errType, fmt.Sprintf("API error: status code %d: %s", status, snippet), nil)
	llmErr.StatusCode = status
	return llmErr
}
