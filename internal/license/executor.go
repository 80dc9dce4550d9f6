package license

import (
	"context"
	"errors"
	"sync"

	"licensing-webhooks/internal/client"
)

// Executor dispatches derived operations against the backend. All
// operations of one event are issued concurrently and joined before the
// outcome is finalized; an in-flight sibling is never cancelled by another
// operation's failure, so the caller always learns exactly what completed.
type Executor struct {
	api client.Cryptlex
}

func NewExecutor(api client.Cryptlex) *Executor {
	return &Executor{api: api}
}

// Run executes every operation and returns the results of the ones that
// succeeded, in dispatch order, together with the joined error of the ones
// that failed. Nothing is retried.
func (e *Executor) Run(ctx context.Context, ops []Operation) ([]OperationResult, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	results := make([]OperationResult, len(ops))
	errs := make([]error, len(ops))

	var wg sync.WaitGroup
	for i, op := range ops {
		wg.Add(1)
		go func(i int, op Operation) {
			defer wg.Done()
			results[i], errs[i] = op.run(ctx, e.api)
		}(i, op)
	}
	wg.Wait()

	completed := make([]OperationResult, 0, len(ops))
	for i := range ops {
		if errs[i] == nil {
			completed = append(completed, results[i])
		}
	}
	return completed, errors.Join(errs...)
}

// AffectedIDs extracts the license ids out of completed results.
func AffectedIDs(results []OperationResult) []string {
	ids := make([]string, 0, len(results))
	for _, res := range results {
		if res.LicenseID != "" {
			ids = append(ids, res.LicenseID)
		}
	}
	return ids
}
