// Package optimizer asks a generative model for a shorter replacement prompt
// together with its own complexity and similarity estimates.
package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/teilomillet/ecoprompt/complexity"
	"github.com/teilomillet/ecoprompt/llm"
	"github.com/teilomillet/ecoprompt/types"
	"github.com/teilomillet/ecoprompt/utils"
)

// Optimizer produces a replacement prompt for prompt, guided by examples of good prompts.
type Optimizer interface {
	Optimize(ctx context.Context, prompt string, examples []string) (*types.OptimizationResult, error)
}

// remoteResponse is the reply shape requested from the model. Pointer fields
// distinguish an absent or null value from a legitimate zero.
type remoteResponse struct {
	GeneratedOptimizedPrompt  *string  `json:"generatedOptimizedPrompt" validate:"required" jsonschema:"description=A concise and energy-efficient rewrite of the user prompt"`
	SimilarityScore           *float64 `json:"similarityScore" validate:"required" jsonschema:"description=Similarity between the original and the rewrite from 0 to 100"`
	OriginalPromptComplexity  *float64 `json:"originalPromptComplexity" validate:"required" jsonschema:"description=Complexity of the original prompt from 0 to 100"`
	OptimizedPromptComplexity *float64 `json:"optimizedPromptComplexity" validate:"required" jsonschema:"description=Complexity of the rewrite from 0 to 100"`
}

// ResponseSchema is the JSON schema sent with every remote request.
func ResponseSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return r.Reflect(&remoteResponse{})
}

// SystemInstruction is sent as the system prompt of every remote request.
const SystemInstruction = "You rewrite prompts for large language models so they need less computation while keeping their intent. Answer only with the requested JSON object."

type RemoteOptimizer struct {
	client      llm.LLM
	logger      utils.Logger
	schema      *jsonschema.Schema
	clampScores bool
}

type RemoteOption func(*RemoteOptimizer)

// WithClampScores controls whether out-of-range scores are clamped into [0,100].
// When disabled they pass through unchanged.
func WithClampScores(clamp bool) RemoteOption {
	return func(o *RemoteOptimizer) {
		o.clampScores = clamp
	}
}

func WithLogger(logger utils.Logger) RemoteOption {
	return func(o *RemoteOptimizer) {
		o.logger = logger
	}
}

func NewRemoteOptimizer(client llm.LLM, opts ...RemoteOption) *RemoteOptimizer {
	o := &RemoteOptimizer{
		client:      client,
		logger:      client.GetLogger(),
		schema:      ResponseSchema(),
		clampScores: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = utils.NewNopLogger()
	}
	client.SetOption("system_prompt", SystemInstruction)
	return o
}

// Optimize performs exactly one structured-output exchange with the model.
func (o *RemoteOptimizer) Optimize(ctx context.Context, prompt string, examples []string) (*types.OptimizationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, types.NewError(types.ErrorKindEmptyInput, "prompt is empty", nil)
	}

	instruction, err := BuildInstruction(prompt, examples)
	if err != nil {
		return nil, types.NewError(types.ErrorKindUnknown, "failed to build instruction", err)
	}

	o.logger.Debug("Requesting remote optimization", "provider", o.client.ProviderName(), "model", o.client.Model(), "examples", len(examples))
	raw, err := o.client.GenerateWithSchema(ctx, instruction, o.schema)
	if err != nil {
		return nil, classify(err)
	}

	return o.decode(raw)
}

func classify(err error) error {
	if llm.TypeOf(err) == llm.ErrorTypeResponse {
		return types.NewError(types.ErrorKindMalformedResponse, "remote reply does not have the expected shape", err)
	}
	return types.NewError(types.ErrorKindUpstream, "remote optimization call failed", err)
}

func (o *RemoteOptimizer) decode(raw string) (*types.OptimizationResult, error) {
	var resp remoteResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, types.NewError(types.ErrorKindMalformedResponse, "remote reply is not valid JSON", err)
	}
	if err := llm.Validate(&resp); err != nil {
		return nil, types.NewError(types.ErrorKindMalformedResponse, "remote reply is missing fields", err)
	}
	if strings.TrimSpace(*resp.GeneratedOptimizedPrompt) == "" {
		return nil, types.NewError(types.ErrorKindMalformedResponse, "remote reply has an empty optimized prompt", nil)
	}

	result := &types.OptimizationResult{
		OptimizedPrompt:     *resp.GeneratedOptimizedPrompt,
		SimilarityScore:     o.score("similarityScore", *resp.SimilarityScore),
		OriginalComplexity:  o.score("originalPromptComplexity", *resp.OriginalPromptComplexity),
		OptimizedComplexity: o.score("optimizedPromptComplexity", *resp.OptimizedPromptComplexity),
	}
	return result, nil
}

func (o *RemoteOptimizer) score(field string, v float64) float64 {
	if !o.clampScores || (v >= 0 && v <= complexity.MaxScore) {
		return v
	}
	clamped := complexity.Clamp(v)
	if math.IsNaN(v) {
		clamped = 0
	}
	o.logger.Warn("Remote score out of range, clamping", "field", field, "value", v, "clamped", clamped)
	return clamped
}

// BuildInstruction renders the request text: the user prompt, the three scores
// wanted back, and the JSON-encoded example prompts.
func BuildInstruction(prompt string, examples []string) (string, error) {
	if examples == nil {
		examples = []string{}
	}
	encoded, err := json.Marshal(examples)
	if err != nil {
		return "", fmt.Errorf("failed to encode examples: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Given the user prompt: %q.\n\n", prompt)
	b.WriteString("Your task is to generate a concise and energy-efficient version of this prompt.\n")
	b.WriteString("Also, provide:\n")
	b.WriteString("1. A complexity score for the user's original prompt (a number between 0 and 100, where higher complexity generally implies more computational effort and thus higher energy consumption).\n")
	b.WriteString("2. A complexity score for the generated optimized prompt (a number between 0 and 100).\n")
	b.WriteString("3. A similarity score between the original prompt and your generated optimized prompt (a number between 0 and 100, where 100 is identical).\n\n")
	b.WriteString("Return the results in JSON format.\n\n")
	fmt.Fprintf(&b, "Examples of desired optimized prompts are: %s.\n", encoded)
	return b.String(), nil
}
