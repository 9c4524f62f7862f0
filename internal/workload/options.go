package workload

import (
	"log/slog"

	"github.com/nao1215/heatgraph/internal/normalize"
)

// DefaultWorkers is used when no worker count is given.
const DefaultWorkers = 4

// Option configures a Deduper.
type Option func(*Deduper)

// WithWorkers sets the maximum number of concurrent workers.
// Non-positive values keep the default.
func WithWorkers(n int) Option {
	return func(d *Deduper) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithNormalizer sets the function applied to every key before the cache
// sees it. name is recorded in run reports.
func WithNormalizer(name string, fn normalize.Func) Option {
	return func(d *Deduper) {
		if fn != nil {
			d.normalizeName = name
			d.normalize = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deduper) {
		d.logger = logger
	}
}
