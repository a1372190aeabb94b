package ecoprompt

import (
	"github.com/teilomillet/ecoprompt/config"
	"github.com/teilomillet/ecoprompt/utils"
)

// Re-export configuration types so callers only need this package.
type (
	// Config holds every setting the analyzer reads. See config.Config.
	//
	// Example usage:
	//   cfg := NewConfig()
	//   ApplyOptions(cfg, SetProvider("openai"), SetModel("gpt-4o-mini"))
	Config = config.Config

	ConfigOption = config.ConfigOption

	// LogLevel defines the verbosity of logging output.
	LogLevel = utils.LogLevel
)

var (
	// LoadConfig reads the environment, including every *_API_KEY variable.
	LoadConfig = config.LoadConfig

	NewConfig    = config.NewConfig
	ApplyOptions = config.ApplyOptions
)

var (
	// Remote optimization
	SetProvider    = config.SetProvider
	SetModel       = config.SetModel
	SetAPIKey      = config.SetAPIKey // applies to the provider selected so far
	SetLLMEndpoint = config.SetLLMEndpoint
	SetTimeout     = config.SetTimeout
	SetMaxRetries  = config.SetMaxRetries
	SetRateLimit   = config.SetRateLimit

	// Local matching
	SetEmbeddingProvider = config.SetEmbeddingProvider
	SetEmbeddingModel    = config.SetEmbeddingModel
	SetOllamaEndpoint    = config.SetOllamaEndpoint
	SetCorpusFile        = config.SetCorpusFile

	// Estimation and reporting
	SetBaseEnergy        = config.SetBaseEnergy
	SetClampRemoteScores = config.SetClampRemoteScores
	SetTokenizerModel    = config.SetTokenizerModel

	SetLogLevel = config.SetLogLevel
)

const (
	LogLevelOff   = utils.LogLevelOff
	LogLevelError = utils.LogLevelError
	LogLevelWarn  = utils.LogLevelWarn
	LogLevelInfo  = utils.LogLevelInfo
	LogLevelDebug = utils.LogLevelDebug
)
