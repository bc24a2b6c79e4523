package recommend

import (
	"context"
	"time"

	"repomatch/internal/logging"
	"repomatch/internal/metrics"
)

// optional runs a best-effort lookup. Any error or timeout yields the zero
// value; the failure is logged and counted but never returned.
func optional[T any](ctx context.Context, timeout time.Duration, source string, fn func(context.Context) (T, error)) T {
	var zero T
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	v, err := fn(cctx)
	if err != nil {
		metrics.IncEnrichmentFailure(source)
		logging.Warn("enrichment_failed", map[string]any{"source": source, "error": err.Error()})
		return zero
	}
	return v
}
