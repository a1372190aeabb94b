// Package ecoprompt estimates the mock energy cost of a text prompt and proposes a
// lower-complexity replacement, either from a local reference corpus or from a
// remote generative model.
package ecoprompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teilomillet/ecoprompt/complexity"
	"github.com/teilomillet/ecoprompt/config"
	"github.com/teilomillet/ecoprompt/corpus"
	"github.com/teilomillet/ecoprompt/embedding"
	"github.com/teilomillet/ecoprompt/energy"
	"github.com/teilomillet/ecoprompt/llm"
	"github.com/teilomillet/ecoprompt/metrics"
	"github.com/teilomillet/ecoprompt/optimizer"
	"github.com/teilomillet/ecoprompt/providers"
	"github.com/teilomillet/ecoprompt/similarity"
	"github.com/teilomillet/ecoprompt/types"
	"github.com/teilomillet/ecoprompt/utils"
)

// ErrInvalidRequest is returned for an unknown mode or model size.
var ErrInvalidRequest = errors.New("invalid request")

// maxSuggestions is how many runner-up reference prompts a local report lists.
const maxSuggestions = 3

// Analyzer runs analyses. It is safe for concurrent use; the reference table is
// the only shared state and is built once.
type Analyzer struct {
	cfg        *config.Config
	logger     utils.Logger
	corpus     *corpus.Corpus
	embedder   embedding.Provider
	table      *corpus.Table
	optimizer  optimizer.Optimizer
	calculator energy.Calculator
	tokens     complexity.TokenCounter
	metrics    *metrics.Metrics
	registry   *providers.ProviderRegistry
}

// Option customises an Analyzer.
type Option func(*Analyzer)

// WithLogger replaces the logger derived from the config.
func WithLogger(logger utils.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithCorpus replaces the configured reference corpus.
func WithCorpus(c *corpus.Corpus) Option {
	return func(a *Analyzer) {
		a.corpus = c
	}
}

// WithEmbedder supplies the embedding provider instead of building one from the config.
func WithEmbedder(p embedding.Provider) Option {
	return func(a *Analyzer) {
		a.embedder = p
	}
}

// WithTable supplies a prebuilt reference table. Its corpus becomes the analyzer's corpus.
func WithTable(t *corpus.Table) Option {
	return func(a *Analyzer) {
		a.table = t
		a.corpus = t.Corpus()
	}
}

// WithOptimizer supplies the remote optimizer instead of building one from the config.
func WithOptimizer(o optimizer.Optimizer) Option {
	return func(a *Analyzer) {
		a.optimizer = o
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

func WithTokenCounter(c complexity.TokenCounter) Option {
	return func(a *Analyzer) {
		a.tokens = c
	}
}

func WithProviderRegistry(r *providers.ProviderRegistry) Option {
	return func(a *Analyzer) {
		a.registry = r
	}
}

// New wires an Analyzer from cfg. Nothing is embedded or called remotely here;
// use Warm to build the reference table ahead of the first request.
func New(cfg *config.Config, opts ...Option) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:        cfg,
		logger:     cfg.Logger,
		calculator: energy.NewCalculator(cfg.BaseEnergy),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = utils.NewLogger(cfg.LogLevel)
	}
	if a.tokens == nil {
		a.tokens = complexity.NewTokenCounter(cfg.TokenizerModel, a.logger)
	}
	if a.registry == nil {
		a.registry = providers.NewProviderRegistry()
	}

	if a.corpus == nil {
		c, err := loadCorpus(cfg.CorpusFile)
		if err != nil {
			return nil, err
		}
		a.corpus = c
	}

	// The query is always encoded with the embedder, so a supplied table still needs one.
	if a.embedder == nil {
		p, err := embedding.New(context.Background(), embedding.Settings{
			Provider: cfg.EmbeddingProvider,
			Model:    cfg.EmbeddingModel,
			APIKey:   cfg.APIKey(cfg.EmbeddingProvider),
			Endpoint: embeddingEndpoint(cfg),
			Logger:   a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
		a.embedder = p
	}
	if a.table == nil {
		a.table = corpus.NewTable(a.corpus, a.embedder, a.logger)
	}
	a.table.OnBuild = a.metrics.ObserveTableBuild

	if a.optimizer == nil && cfg.APIKey(cfg.Provider) != "" {
		client, err := llm.NewLLM(cfg, a.logger, a.registry)
		if err != nil {
			return nil, err
		}
		a.optimizer = optimizer.NewRemoteOptimizer(client,
			optimizer.WithLogger(a.logger),
			optimizer.WithClampScores(cfg.ClampRemoteScores),
		)
	}

	a.logger.Debug("Analyzer ready", "corpus", a.corpus.Len(), "embedder", cfg.EmbeddingProvider, "remote", a.optimizer != nil)
	return a, nil
}

func loadCorpus(path string) (*corpus.Corpus, error) {
	if path == "" {
		return corpus.Default(), nil
	}
	return corpus.Load(path)
}

func embeddingEndpoint(cfg *config.Config) string {
	if strings.ToLower(cfg.EmbeddingProvider) == "ollama" {
		return cfg.OllamaEndpoint
	}
	return ""
}

// Corpus returns the reference corpus used in local mode.
func (a *Analyzer) Corpus() *corpus.Corpus {
	return a.corpus
}

// Warm builds the reference table now instead of on the first local request.
func (a *Analyzer) Warm(ctx context.Context) error {
	if err := a.table.Build(ctx); err != nil {
		return types.NewError(types.ErrorKindUpstream, "failed to build reference table", err)
	}
	return nil
}

// Close releases the embedding provider.
func (a *Analyzer) Close() error {
	if a.embedder == nil {
		return nil
	}
	return embedding.Close(a.embedder)
}

// Analyze runs one analysis. A blank prompt fails with EmptyInput before any
// embedding, matching or remote call happens. There are no partial results.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()

	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	a.logger.Info("Analysis started", "id", id, "mode", req.Mode, "size", req.Size)

	report, err := a.analyze(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		a.logger.Warn("Analysis failed", "id", id, "mode", req.Mode, "error", err)
		a.metrics.ObserveAnalysis(string(req.Mode), types.KindOf(err).String(), elapsed)
		return nil, err
	}

	report.ID = id
	report.CreatedAt = start.UTC()
	report.Elapsed = elapsed
	a.metrics.ObserveAnalysis(string(req.Mode), "success", elapsed)
	a.metrics.ObserveSavings(string(req.Mode), report.Energy.SavingsKWh)
	a.logger.Info("Analysis finished", "id", id, "savings_kwh", report.Energy.SavingsKWh, "elapsed", elapsed)
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, req Request) (*Report, error) {
	var (
		report *Report
		err    error
	)
	switch req.Mode {
	case types.ModeRemote:
		report, err = a.analyzeRemote(ctx, req)
	default:
		report, err = a.analyzeLocal(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	report.Energy, err = a.calculator.Compare(report.Result.OriginalComplexity, report.Result.OptimizedComplexity, req.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	report.OriginalTokens = a.tokens.Count(req.Prompt)
	report.OptimizedTokens = a.tokens.Count(report.Result.OptimizedPrompt)
	return report, nil
}

func (a *Analyzer) analyzeLocal(ctx context.Context, req Request) (*Report, error) {
	vectors, err := a.table.Vectors(ctx)
	if err != nil {
		return nil, types.NewError(types.ErrorKindUpstream, "reference table unavailable", err)
	}

	query, err := a.embedder.Encode(ctx, req.Prompt)
	if err != nil {
		return nil, types.NewError(types.ErrorKindUpstream, "failed to embed prompt", err)
	}

	ranked, err := similarity.Rank(query, vectors, a.corpus)
	if err != nil {
		return nil, err
	}
	best := ranked[0]

	original := complexity.Analyze(req.Prompt)
	optimized := complexity.Analyze(best.Prompt)

	report := &Report{
		Mode:   req.Mode,
		Size:   req.Size,
		Prompt: req.Prompt,
		Result: types.OptimizationResult{
			OptimizedPrompt:     best.Prompt,
			SimilarityScore:     best.Similarity,
			OriginalComplexity:  original.Score,
			OptimizedComplexity: optimized.Score,
		},
		Match:              &best,
		OriginalBreakdown:  &original,
		OptimizedBreakdown: &optimized,
		Source:             a.embedder.Name() + "/" + a.embedder.Model(),
	}
	if n := min(len(ranked)-1, maxSuggestions); n > 0 {
		report.Suggestions = append([]similarity.Match(nil), ranked[1:1+n]...)
	}
	return report, nil
}

func (a *Analyzer) analyzeRemote(ctx context.Context, req Request) (*Report, error) {
	if a.optimizer == nil {
		return nil, types.NewError(types.ErrorKindUpstream,
			fmt.Sprintf("no API key configured for provider %s", a.cfg.Provider), nil)
	}

	result, err := a.optimizer.Optimize(ctx, req.Prompt, a.corpus.Prompts())
	if err != nil {
		return nil, err
	}

	return &Report{
		Mode:   req.Mode,
		Size:   req.Size,
		Prompt: req.Prompt,
		Result: *result,
		Source: a.cfg.Provider + "/" + a.cfg.Model,
	}, nil
}
