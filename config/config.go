// Package config loads ecoprompt settings from the environment and functional options.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/teilomillet/ecoprompt/utils"
)

type Config struct {
	// Generative provider used in remote mode.
	Provider    string        `env:"LLM_PROVIDER" envDefault:"google" validate:"required,oneof=google gemini openai"`
	Model       string        `env:"LLM_MODEL" envDefault:"gemini-2.0-flash" validate:"required"`
	Temperature float64       `env:"LLM_TEMPERATURE" envDefault:"0.2" validate:"gte=0,lte=2"`
	MaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"512" validate:"gte=1"`
	Timeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	MaxRetries  int           `env:"LLM_MAX_RETRIES" envDefault:"0" validate:"gte=0"`
	RetryDelay  time.Duration `env:"LLM_RETRY_DELAY" envDefault:"2s" validate:"gte=0"`
	// RateLimit is the maximum number of remote calls per second; 0 disables limiting.
	RateLimit float64 `env:"LLM_RATE_LIMIT" envDefault:"1" validate:"gte=0"`
	// LLMEndpoint overrides the provider's API root (proxies, gateways).
	LLMEndpoint string            `env:"LLM_ENDPOINT" validate:"omitempty,url"`
	APIKeys     map[string]string `validate:"-"`
	LogLevel    utils.LogLevel    `env:"LLM_LOG_LEVEL" envDefault:"WARN"`

	// Embedding provider used in local mode.
	EmbeddingProvider string `env:"EMBEDDING_PROVIDER" envDefault:"ollama" validate:"required,oneof=ollama gemini google openai hash"`
	EmbeddingModel    string `env:"EMBEDDING_MODEL"`
	OllamaEndpoint    string `env:"OLLAMA_ENDPOINT" envDefault:"http://localhost:11434"`

	// CorpusFile replaces the built-in reference corpus when set.
	CorpusFile        string  `env:"ECOPROMPT_CORPUS_FILE"`
	BaseEnergy        float64 `env:"ECOPROMPT_BASE_ENERGY" envDefault:"0.08" validate:"gt=0"`
	ClampRemoteScores bool    `env:"ECOPROMPT_CLAMP_REMOTE_SCORES" envDefault:"true"`
	// TokenizerModel selects the tiktoken encoding for token counts; "heuristic" disables tiktoken.
	TokenizerModel string `env:"ECOPROMPT_TOKENIZER_MODEL" envDefault:"gpt-4o"`
	ListenAddr     string `env:"ECOPROMPT_LISTEN_ADDR" envDefault:":8080"`

	ExtraHeaders map[string]string `validate:"-"`
	Logger       utils.Logger      `validate:"-"`
}

// LoadConfig reads the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys:      make(map[string]string),
		ExtraHeaders: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.Provider = strings.ToLower(cfg.Provider)
	cfg.EmbeddingProvider = strings.ToLower(cfg.EmbeddingProvider)

	loadAPIKeys(cfg)
	return cfg, nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && value != "" && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
	aliasGoogleKeys(cfg.APIKeys)
}

// Gemini keys are published under both names; GOOGLE_API_KEY wins when only it is set.
func aliasGoogleKeys(keys map[string]string) {
	if _, ok := keys["gemini"]; !ok && keys["google"] != "" {
		keys["gemini"] = keys["google"]
	}
	if _, ok := keys["google"]; !ok && keys["gemini"] != "" {
		keys["google"] = keys["gemini"]
	}
}

// APIKey returns the key for provider, or "".
func (c *Config) APIKey(provider string) string {
	return c.APIKeys[strings.ToLower(provider)]
}

type ConfigOption func(*Config)

// NewConfig returns the defaults without reading the environment.
func NewConfig() *Config {
	return &Config{
		Provider:          "google",
		Model:             "gemini-2.0-flash",
		Temperature:       0.2,
		MaxTokens:         512,
		Timeout:           30 * time.Second,
		MaxRetries:        0,
		RetryDelay:        2 * time.Second,
		RateLimit:         1,
		APIKeys:           make(map[string]string),
		LogLevel:          utils.LogLevelWarn,
		EmbeddingProvider: "ollama",
		OllamaEndpoint:    "http://localhost:11434",
		BaseEnergy:        0.08,
		ClampRemoteScores: true,
		TokenizerModel:    "gpt-4o",
		ListenAddr:        ":8080",
		ExtraHeaders:      make(map[string]string),
	}
}

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = strings.ToLower(provider)
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		if maxTokens < 1 {
			maxTokens = 1
		}
		c.MaxTokens = maxTokens
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// SetAPIKey stores the key for the currently selected provider, so apply it after SetProvider.
func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[c.Provider] = apiKey
		aliasGoogleKeys(c.APIKeys)
	}
}

func SetLLMEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.LLMEndpoint = endpoint
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetRetryDelay(retryDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = retryDelay
	}
}

func SetRateLimit(perSecond float64) ConfigOption {
	return func(c *Config) {
		c.RateLimit = perSecond
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func SetLogger(logger utils.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

func SetEmbeddingProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingProvider = strings.ToLower(provider)
	}
}

func SetEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func SetOllamaEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.OllamaEndpoint = endpoint
	}
}

func SetCorpusFile(path string) ConfigOption {
	return func(c *Config) {
		c.CorpusFile = path
	}
}

func SetBaseEnergy(base float64) ConfigOption {
	return func(c *Config) {
		c.BaseEnergy = base
	}
}

func SetClampRemoteScores(clamp bool) ConfigOption {
	return func(c *Config) {
		c.ClampRemoteScores = clamp
	}
}

func SetTokenizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.TokenizerModel = model
	}
}

func SetListenAddr(addr string) ConfigOption {
	return func(c *Config) {
		c.ListenAddr = addr
	}
}

func SetExtraHeaders(headers map[string]string) ConfigOption {
	return func(c *Config) {
		if c.ExtraHeaders == nil {
			c.ExtraHeaders = make(map[string]string)
		}
		for k, v := range headers {
			c.ExtraHeaders[k] = v
		}
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}

var validate = validator.New()

// Validate checks field ranges and enumerations. API keys are not required here:
// local mode with the ollama or hash embedder needs none.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
