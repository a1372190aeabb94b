package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProviderEncode(t *testing.T) {
	var got ollamaEmbedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.1, -0.2, 0.3}})
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL+"/", "", nil)
	vec, err := p.Encode(context.Background(), "summarize this")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, -0.2, 0.3}, vec)
	assert.Equal(t, DefaultOllamaModel, got.Model)
	assert.Equal(t, "summarize this", got.Prompt)
	assert.Equal(t, 384, p.Dimensions())
}

func TestOllamaProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
		want    string
	}{
		{"api error", http.StatusNotFound, `{"error":"model not found"}`, "status 404: model not found"},
		{"plain text error", http.StatusNotFound, "404 page not found\n", "status 404: 404 page not found"},
		{"empty embedding", http.StatusOK, `{"embedding":[]}`, "empty embedding"},
		{"invalid json", http.StatusOK, `not json`, "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			_, err := NewOllamaProvider(server.URL, "all-minilm", nil).Encode(context.Background(), "x")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestOpenAIProviderEncode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.5, 0.25, -1]}],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 3, "total_tokens": 3}
		}`))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider("sk-test", "", server.URL+"/v1", nil)
	require.NoError(t, err)

	vec, err := p.Encode(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25, -1}, vec)
	assert.Equal(t, 1536, p.Dimensions())
}

func TestOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "", nil)
	assert.Error(t, err)
}

func TestGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "", "", nil)
	assert.Error(t, err)
}

func TestHashProviderDeterministicAndNormalised(t *testing.T) {
	p := NewHashProvider(64)
	ctx := context.Background()

	a, err := p.Encode(ctx, "The cat sat on the mat")
	require.NoError(t, err)
	b, err := p.Encode(ctx, "the CAT sat on the mat!")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestHashProviderEmptyText(t *testing.T) {
	vec, err := NewHashProvider(0).Encode(context.Background(), "...")
	require.NoError(t, err)
	assert.Len(t, vec, DefaultHashDimensions)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	p, err := New(ctx, Settings{Provider: "hash"})
	require.NoError(t, err)
	assert.Equal(t, "hash", p.Name())

	p, err = New(ctx, Settings{Provider: "Ollama", Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, 768, p.Dimensions())
	assert.NoError(t, Close(p))

	_, err = New(ctx, Settings{Provider: "word2vec"})
	assert.Error(t, err)

	_, err = New(ctx, Settings{Provider: "openai"})
	assert.Error(t, err)
}
