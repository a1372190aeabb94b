package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/ecoprompt"
	"github.com/teilomillet/ecoprompt/complexity"
	"github.com/teilomillet/ecoprompt/config"
	"github.com/teilomillet/ecoprompt/corpus"
	"github.com/teilomillet/ecoprompt/embedding"
	"github.com/teilomillet/ecoprompt/metrics"
	"github.com/teilomillet/ecoprompt/types"
	"github.com/teilomillet/ecoprompt/utils"
)

type stubOptimizer struct {
	err error
}

func (s stubOptimizer) Optimize(context.Context, string, []string) (*types.OptimizationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.OptimizationResult{OptimizedPrompt: "Be brief.", SimilarityScore: 70, OriginalComplexity: 40, OptimizedComplexity: 10}, nil
}

func newTestServer(t *testing.T, remoteErr error) *httptest.Server {
	t.Helper()
	c, err := corpus.New([]string{"Write a haiku about autumn.", "Translate this sentence into French."})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetEmbeddingProvider("hash"))
	a, err := ecoprompt.New(cfg,
		ecoprompt.WithLogger(utils.NewNopLogger()),
		ecoprompt.WithCorpus(c),
		ecoprompt.WithEmbedder(embedding.NewHashProvider(0)),
		ecoprompt.WithTokenCounter(complexity.HeuristicCounter{}),
		ecoprompt.WithOptimizer(stubOptimizer{err: remoteErr}),
		ecoprompt.WithMetrics(m),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(New(a, reg, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestAnalyzeEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, out := post(t, ts.URL+"/api/v1/analyze", `{"prompt":"Write a haiku about autumn.","size":"large"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "local", out["mode"])
	assert.Equal(t, "large", out["size"])
	result := out["result"].(map[string]any)
	assert.Equal(t, "Write a haiku about autumn.", result["optimizedPrompt"])

	resp, out = post(t, ts.URL+"/api/v1/analyze", `{"prompt":"hello","mode":"remote"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Be brief.", out["result"].(map[string]any)["optimizedPrompt"])
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	tests := []struct {
		name      string
		remoteErr error
		body      string
		status    int
		kind      string
	}{
		{"empty prompt", nil, `{"prompt":"  "}`, http.StatusBadRequest, "EmptyInput"},
		{"unknown mode", nil, `{"prompt":"hi","mode":"hybrid"}`, http.StatusBadRequest, "InvalidRequest"},
		{"unknown size", nil, `{"prompt":"hi","size":"xl"}`, http.StatusBadRequest, "InvalidRequest"},
		{"bad json", nil, `{"prompt":`, http.StatusBadRequest, "InvalidRequest"},
		{"unknown field", nil, `{"prompt":"hi","temperature":1}`, http.StatusBadRequest, "InvalidRequest"},
		{"upstream", types.NewError(types.ErrorKindUpstream, "401", nil), `{"prompt":"hi","mode":"remote"}`, http.StatusBadGateway, "UpstreamError"},
		{"malformed", types.NewError(types.ErrorKindMalformedResponse, "missing field", nil), `{"prompt":"hi","mode":"remote"}`, http.StatusBadGateway, "MalformedResponse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.remoteErr)
			resp, out := post(t, ts.URL+"/api/v1/analyze", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			errBody := out["error"].(map[string]any)
			assert.Equal(t, tt.kind, errBody["kind"])
		})
	}
}

func TestBatchEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, out := post(t, ts.URL+"/api/v1/analyze/batch", `{"requests":[{"prompt":"Translate this please"},{"prompt":""}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := out["results"].([]any)
	require.Len(t, results, 2)
	assert.Contains(t, results[0].(map[string]any), "report")
	assert.Equal(t, "EmptyInput", results[1].(map[string]any)["error"].(map[string]any)["kind"])

	resp, _ = post(t, ts.URL+"/api/v1/analyze/batch", `{"requests":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadOnlyEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	get := func(path string) map[string]any {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	prompts := get("/api/v1/corpus")["prompts"].([]any)
	require.Len(t, prompts, 2)
	assert.EqualValues(t, 1, prompts[0].(map[string]any)["position"])

	sizes := get("/api/v1/sizes")["sizes"].([]any)
	require.Len(t, sizes, 3)
	assert.Equal(t, 0.8, sizes[0].(map[string]any)["multiplier"])

	assert.Equal(t, "ok", get("/healthz")["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	post(t, ts.URL+"/api/v1/analyze", `{"prompt":"hello"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `ecoprompt_analyses_total{mode="local",status="success"} 1`)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/api/v1/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
