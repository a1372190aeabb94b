package corpus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/teilomillet/ecoprompt/embedding"
	"github.com/teilomillet/ecoprompt/utils"
)

// Table maps corpus positions to embedding vectors. The vectors are computed at
// most once, on the first call to Vectors or Build; afterwards reads take no lock.
// A failed build is kept and returned to every later caller, unless it failed
// because the caller's context was cancelled or expired. In that case the next
// caller builds again.
type Table struct {
	corpus   *Corpus
	provider embedding.Provider
	logger   utils.Logger

	mu      sync.Mutex
	done    atomic.Bool
	vectors [][]float32
	err     error

	// OnBuild, when set, is called once with the settled build outcome.
	OnBuild func(err error)
}

func NewTable(c *Corpus, provider embedding.Provider, logger utils.Logger) *Table {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Table{corpus: c, provider: provider, logger: logger}
}

// NewTableFromVectors builds a table from precomputed vectors. vectors[i] belongs
// to position i+1.
func NewTableFromVectors(c *Corpus, vectors [][]float32) (*Table, error) {
	if len(vectors) != c.Len() {
		return nil, fmt.Errorf("got %d vectors for %d corpus entries", len(vectors), c.Len())
	}
	t := &Table{corpus: c, vectors: vectors, logger: utils.NewNopLogger()}
	t.done.Store(true)
	return t, nil
}

// Corpus returns the corpus the table indexes.
func (t *Table) Corpus() *Corpus {
	return t.corpus
}

// Build embeds every corpus entry unless that has already happened.
func (t *Table) Build(ctx context.Context) error {
	if t.done.Load() {
		return t.err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done.Load() {
		return t.err
	}

	vectors, err := t.build(ctx)
	if err != nil && aborted(ctx, err) {
		t.logger.Warn("Reference embedding build aborted, will retry on next use", "error", err)
		return err
	}
	t.vectors, t.err = vectors, err
	t.done.Store(true)
	if t.OnBuild != nil {
		t.OnBuild(err)
	}
	return err
}

// aborted reports whether err comes from ctx ending rather than from the provider.
func aborted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (t *Table) build(ctx context.Context) ([][]float32, error) {
	t.logger.Info("Pre-computing reference embeddings", "entries", t.corpus.Len(), "provider", t.provider.Name(), "model", t.provider.Model())
	vectors := make([][]float32, t.corpus.Len())
	for i, prompt := range t.corpus.prompts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("embedding reference prompt %d: %w", i+1, err)
		}
		vec, err := t.provider.Encode(ctx, prompt)
		if err != nil {
			t.logger.Error("Failed to embed reference prompt", "position", i+1, "error", err)
			return nil, fmt.Errorf("embedding reference prompt %d: %w", i+1, err)
		}
		vectors[i] = vec
	}
	t.logger.Debug("Reference embeddings ready", "entries", len(vectors))
	return vectors, nil
}

// Vectors returns the table contents, building them on first use. The returned
// slice must not be modified.
func (t *Table) Vectors(ctx context.Context) ([][]float32, error) {
	if err := t.Build(ctx); err != nil {
		return nil, err
	}
	return t.vectors, nil
}

// Len returns the number of corpus entries.
func (t *Table) Len() int {
	return t.corpus.Len()
}
