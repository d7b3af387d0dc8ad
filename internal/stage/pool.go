// Package stage implements the Stage Updaters of spec.md §4.G: for each
// step S1..S5, select scope (internal/extract), fan out fetch+decode
// (internal/fetch), save (internal/save), and report per-stage counts.
package stage

import (
	"context"
	"strconv"
	"sync"

	"github.com/sawpanic/keirin-ingest/internal/metrics"
)

// Metrics is the process-wide metrics collector for stage item counts. It
// is nil until cmd/keirin-ingest wires one in; recordItems is a no-op until
// then, matching ratelimit.Limiter and httpapi.Client's optional metrics.
var Metrics *metrics.Metrics

func recordItems(step int, ok, failed int) {
	if Metrics == nil {
		return
	}
	label := strconv.Itoa(step)
	Metrics.StageItemsTotal.WithLabelValues(label, "ok").Add(float64(ok))
	Metrics.StageItemsTotal.WithLabelValues(label, "failed").Add(float64(failed))
}

// itemResult pairs one input item with the error processing it produced.
type itemResult[T any] struct {
	item T
	err  error
}

// runPool processes items with up to concurrency goroutines in flight.
// The pool checks cancellation before dispatching each item (spec.md §5)
// and never abandons an item it has started; a started item receives ctx
// and stops at its own cancellation checks (rate-limiter wait, between
// HTTP retry attempts).
func runPool[T any](ctx context.Context, concurrency int, items []T, fn func(context.Context, T) error) []itemResult[T] {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]itemResult[T], len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			results[i] = itemResult[T]{item: item, err: err}
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = itemResult[T]{item: item, err: fn(ctx, item)}
		}(i, item)
	}
	wg.Wait()
	return results
}

// Report is the per-stage (ok, message, count) summary spec.md §4.G, §5
// requires the Pipeline Coordinator to collect from every Updater.
type Report struct {
	OK      bool
	Message string
	Count   int
}

// muCounter serializes updates to counters shared across pool workers.
type muCounter struct {
	mu sync.Mutex
}

func (m *muCounter) add(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

func summarize[T any](results []itemResult[T]) (ok, failed int) {
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		ok++
	}
	return ok, failed
}
