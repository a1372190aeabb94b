// Package providers implements the generative model APIs used for remote prompt
// optimization. Each provider knows how to build a structured-output request and
// how to pull the generated text back out of the response.
package providers

import (
	"github.com/teilomillet/ecoprompt/utils"
)

// Provider defines the interface every generative provider implements.
type Provider interface {
	Name() string
	Endpoint() string
	Headers() map[string]string
	SetLogger(logger utils.Logger)

	// SetBaseURL points the provider at another host (proxy, gateway, test server).
	SetBaseURL(baseURL string)

	// PrepareRequestWithSchema builds the request body. options carries the
	// per-client generation settings (temperature, max_tokens, top_p, system_prompt).
	PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error)

	// ParseResponse returns the generated text of a successful response.
	ParseResponse(body []byte) (string, error)

	SupportsJSONSchema() bool
}

// ProviderConstructor creates a provider instance.
type ProviderConstructor func(apiKey, model string, extraHeaders map[string]string) Provider
