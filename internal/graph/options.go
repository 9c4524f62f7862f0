package graph

import "log/slog"

const (
	// DefaultFanOut is the number of child slots per node.
	DefaultFanOut = 5

	// DefaultMinCountdown is the smallest number of successful lookups
	// between two reform passes.
	DefaultMinCountdown = 4

	// DefaultReformFactor scales the reform interval with the graph size:
	// after a pass the countdown restarts at max(MinCountdown, size*factor).
	DefaultReformFactor = 0.25
)

// Option configures a Graph at construction time.
type Option func(*Graph)

// WithFanOut sets the number of children per node. Values below 1 are ignored.
func WithFanOut(k int) Option {
	return func(g *Graph) {
		if k >= 1 {
			g.fanOut = k
		}
	}
}

// WithMinCountdown sets the minimum reform interval. Values below 1 are ignored.
func WithMinCountdown(n int) Option {
	return func(g *Graph) {
		if n >= 1 {
			g.minCountdown = int64(n)
		}
	}
}

// WithReformFactor sets how the reform interval grows with size.
// Negative values are ignored.
func WithReformFactor(f float64) Option {
	return func(g *Graph) {
		if f >= 0 {
			g.reformFactor = f
		}
	}
}

// WithLogger sets the logger used for reform and clear events.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}
