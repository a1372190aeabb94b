package ecoprompt

import (
	"context"
	"sync"
)

// BatchResult pairs a batch entry with its outcome. Exactly one of Report and Err is set.
type BatchResult struct {
	Request Request `json:"request"`
	Report  *Report `json:"report,omitempty"`
	Err     error   `json:"-"`
}

// DefaultBatchConcurrency bounds the number of analyses AnalyzeBatch runs at once.
const DefaultBatchConcurrency = 4

// AnalyzeBatch analyzes every request concurrently and returns the results in
// input order. One failing entry does not affect the others. Remote calls still
// go through the client's rate limiter.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []Request, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(reqs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = BatchResult{Request: req, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			report, err := a.Analyze(ctx, req)
			results[i] = BatchResult{Request: req, Report: report, Err: err}
		}(i, req)
	}
	wg.Wait()
	return results
}
