package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCorpus(t *testing.T) {
	c := Default()
	require.Greater(t, c.Len(), 0)

	first, ok := c.At(1)
	assert.True(t, ok)
	assert.NotEmpty(t, first)

	_, ok = c.At(0)
	assert.False(t, ok)
	_, ok = c.At(c.Len() + 1)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte("prompts:\n  - \" Summarize it. \"\n  - Translate it.\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{" Summarize it. ", "Translate it."}, c.Prompts())

	_, err = Parse([]byte("prompts: [\"ok\", \"  \"]"))
	assert.Error(t, err)

	_, err = Parse([]byte("prompts: {not: a list}"))
	assert.Error(t, err)

	empty, err := Parse([]byte("prompts: []"))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompts:\n  - Write a haiku.\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	p, _ := c.At(1)
	assert.Equal(t, "Write a haiku.", p)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPromptsReturnsCopy(t *testing.T) {
	c, err := New([]string{"a", "b"})
	require.NoError(t, err)
	ps := c.Prompts()
	ps[0] = "mutated"
	p, _ := c.At(1)
	assert.Equal(t, "a", p)
}

type countingProvider struct {
	calls atomic.Int32
	err   error
}

func (p *countingProvider) Name() string    { return "counting" }
func (p *countingProvider) Model() string   { return "test" }
func (p *countingProvider) Dimensions() int { return 2 }

func (p *countingProvider) Encode(_ context.Context, text string) ([]float32, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestTableBuildsOnceUnderConcurrency(t *testing.T) {
	c, err := New([]string{"one", "three", "fifteen"})
	require.NoError(t, err)
	provider := &countingProvider{}
	table := NewTable(c, provider, nil)

	var builds atomic.Int32
	table.OnBuild = func(error) { builds.Add(1) }

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vecs, err := table.Vectors(context.Background())
			assert.NoError(t, err)
			assert.Len(t, vecs, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), provider.calls.Load())
	assert.Equal(t, int32(1), builds.Load())

	vecs, err := table.Vectors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vecs[1])
}

func TestTableBuildFailureIsCached(t *testing.T) {
	c, err := New([]string{"one", "two"})
	require.NoError(t, err)
	provider := &countingProvider{err: errors.New("connection refused")}
	table := NewTable(c, provider, nil)

	_, err = table.Vectors(context.Background())
	require.Error(t, err)
	_, err = table.Vectors(context.Background())
	require.Error(t, err)

	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestTableBuildRetriesAfterCancelledContext(t *testing.T) {
	c, err := New([]string{"one", "two"})
	require.NoError(t, err)
	provider := &countingProvider{}
	table := NewTable(c, provider, nil)

	var builds []error
	table.OnBuild = func(err error) { builds = append(builds, err) }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = table.Vectors(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, builds)

	vecs, err := table.Vectors(context.Background())
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	require.Len(t, builds, 1)
	assert.NoError(t, builds[0])
}

func TestNewTableFromVectors(t *testing.T) {
	c, err := New([]string{"a", "b"})
	require.NoError(t, err)

	table, err := NewTableFromVectors(c, [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	vecs, err := table.Vectors(context.Background())
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 2, table.Len())
	assert.Same(t, c, table.Corpus())

	_, err = NewTableFromVectors(c, [][]float32{{1, 0}})
	assert.Error(t, err)
}
