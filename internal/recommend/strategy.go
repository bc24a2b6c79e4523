package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"repomatch/internal/logging"
	"repomatch/internal/metrics"
)

// searchQuery is one external search request.
type searchQuery struct {
	terms  string
	fields []string
}

// tier is one stage of a fallback search. A tier either issues queries or,
// when local is set, produces candidates without calling the source.
type tier[T any] struct {
	name     string
	queries  []searchQuery
	pageSize int
	local    func() []T
}

// budget caps the number of searches in one run. A nil budget is unlimited.
type budget struct {
	left atomic.Int64
}

func newBudget(n int) *budget {
	if n <= 0 {
		return nil
	}
	b := &budget{}
	b.left.Store(int64(n))
	return b
}

func (b *budget) take() bool {
	if b == nil {
		return true
	}
	return b.left.Add(-1) >= 0
}

// strategy runs tiers in order until quota candidates are accepted.
type strategy[T any] struct {
	output string
	kind   string // search kind for metrics: repositories or users
	tiers  []tier[T]
	search func(ctx context.Context, q searchQuery, pageSize int) ([]T, error)
	// accept is always called from one goroutine, in discovery order.
	accept func(T) bool

	quota int
	// pageCut stops mid-page once the quota is met.
	pageCut     bool
	parallelism int
	callTimeout time.Duration
	budget      *budget
}

func (s *strategy[T]) full(pool []T) bool { return len(pool) >= s.quota }

// run executes the strategy and returns accepted candidates in tier order
// then discovery order.
func (s *strategy[T]) run(ctx context.Context) []T {
	var pool []T
	batch := s.parallelism
	if batch < 1 {
		batch = 1
	}
	for _, t := range s.tiers {
		if s.full(pool) {
			break
		}
		if t.local != nil {
			pool = s.acceptPage(pool, t.name, t.local())
			continue
		}
		for i := 0; i < len(t.queries) && !s.full(pool); i += batch {
			end := i + batch
			if end > len(t.queries) {
				end = len(t.queries)
			}
			pages, stop := s.fetch(ctx, t, t.queries[i:end])
			for _, page := range pages {
				pool = s.acceptPage(pool, t.name, page)
				if s.full(pool) {
					break
				}
			}
			if stop {
				return pool
			}
		}
	}
	return pool
}

func (s *strategy[T]) acceptPage(pool []T, tierName string, page []T) []T {
	for _, c := range page {
		if s.pageCut && s.full(pool) {
			break
		}
		if s.accept(c) {
			pool = append(pool, c)
			metrics.AcceptedCandidates.WithLabelValues(s.output, tierName).Inc()
		}
	}
	return pool
}

// fetch issues a batch of queries and returns pages in query order. Failed
// calls yield empty pages. stop is true when the budget ran out or ctx ended.
func (s *strategy[T]) fetch(ctx context.Context, t tier[T], qs []searchQuery) ([][]T, bool) {
	n := 0
	stop := false
	for range qs {
		if ctx.Err() != nil || !s.budget.take() {
			stop = true
			break
		}
		n++
	}
	pages := make([][]T, n)
	if n == 1 {
		pages[0] = s.call(ctx, t, qs[0])
		return pages, stop
	}
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			pages[i] = s.call(ctx, t, qs[i])
			return nil
		})
	}
	_ = g.Wait()
	return pages, stop
}

func (s *strategy[T]) call(ctx context.Context, t tier[T], q searchQuery) []T {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	items, err := s.search(cctx, q, t.pageSize)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.IncSearch(s.kind, outcome)
		logging.Debug("search_failed", map[string]any{
			"output": s.output, "tier": t.name, "query": q.terms, "error": err.Error(),
		})
		return nil
	}
	metrics.IncSearch(s.kind, "ok")
	return items
}
