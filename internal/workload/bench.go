package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"

	"github.com/nao1215/heatgraph/internal/graph"
	"github.com/nao1215/heatgraph/internal/model"
	"golang.org/x/sync/errgroup"
)

// ErrLostKey is returned by Bench.Run when a key that was inserted could not
// be found afterwards.
var ErrLostKey = errors.New("inserted key not found")

// Default bench settings.
const (
	DefaultKeysPerWorker = 1000
	DefaultHotKeys       = 16
	DefaultHotLookups    = 10000

	// hotPercent is the share of lookups aimed at the hot set.
	hotPercent = 80

	maxKeyLength = 19
)

// BenchConfig describes one benchmark run.
type BenchConfig struct {
	// Workers is the number of concurrent goroutines in both phases.
	Workers int

	// KeysPerWorker is the number of random keys each worker inserts.
	KeysPerWorker int

	// HotKeys is the size of the set most lookups are aimed at.
	HotKeys int

	// HotLookups is the total number of lookups in the second phase.
	HotLookups int

	// Seed makes key generation repeatable. Worker w uses the stream
	// (Seed, w).
	Seed uint64
}

// DefaultBenchConfig returns the settings used when no flags are given.
func DefaultBenchConfig() BenchConfig {
	return BenchConfig{
		Workers:       DefaultWorkers,
		KeysPerWorker: DefaultKeysPerWorker,
		HotKeys:       DefaultHotKeys,
		HotLookups:    DefaultHotLookups,
		Seed:          1,
	}
}

// Bench runs a two-phase concurrent workload against a graph.Graph.
type Bench struct {
	graph  *graph.Graph
	cfg    BenchConfig
	logger *slog.Logger
	lost   atomic.Int64
}

// NewBench creates a Bench. Non-positive counts in cfg fall back to the
// defaults, except HotLookups where 0 skips the lookup phase.
func NewBench(g *graph.Graph, cfg BenchConfig, logger *slog.Logger) *Bench {
	def := DefaultBenchConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.KeysPerWorker <= 0 {
		cfg.KeysPerWorker = def.KeysPerWorker
	}
	if cfg.HotKeys <= 0 {
		cfg.HotKeys = def.HotKeys
	}
	if cfg.HotLookups < 0 {
		cfg.HotLookups = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bench{graph: g, cfg: cfg, logger: logger}
}

// Config returns the effective settings.
func (b *Bench) Config() BenchConfig {
	return b.cfg
}

// Run executes both phases and returns the finished report.
//
// In the fill phase every worker inserts its own random keys and checks
// each one with Contains right after inserting it. In the lookup phase the
// workers share HotLookups lookups, most of them on the first HotKeys keys,
// which makes reform passes run under concurrent readers.
//
// A key that goes missing is counted in RunReport.LostKeys and makes Run
// return ErrLostKey.
func (b *Bench) Run(ctx context.Context) (*model.RunReport, error) {
	report := model.NewRunReport(model.KindBench)
	report.Workers = b.cfg.Workers

	b.logger.Info("starting bench",
		"workers", b.cfg.Workers,
		"keys_per_worker", b.cfg.KeysPerWorker,
		"hot_keys", b.cfg.HotKeys,
		"hot_lookups", b.cfg.HotLookups,
	)

	keys, err := b.fill(ctx)
	if err == nil {
		err = b.lookup(ctx, keys)
	}

	report.Inserted = b.graph.Size()
	report.LostKeys = int(b.lost.Load())
	if err == nil && report.LostKeys > 0 {
		err = fmt.Errorf("%w: %d misses", ErrLostKey, report.LostKeys)
	}
	report.Fail(err)
	report.Finish(b.graph)

	b.logger.Info("bench complete",
		"inserted", report.Inserted,
		"lookups", report.Lookups,
		"reforms", report.Reforms,
		"depth", report.Depth,
		"elapsed", report.Elapsed,
	)
	return report, err
}

// fill inserts and verifies every worker's keys. The returned slice holds
// worker 0's keys first, then worker 1's, and so on.
func (b *Bench) fill(ctx context.Context) ([]string, error) {
	perWorker := make([][]string, b.cfg.Workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)

	for w := range b.cfg.Workers {
		g.Go(func() error {
			r := rand.New(rand.NewPCG(b.cfg.Seed, uint64(w)))
			keys := make([]string, 0, b.cfg.KeysPerWorker)
			for range b.cfg.KeysPerWorker {
				if err := ctx.Err(); err != nil {
					return err
				}
				k := RandomKey(r)
				b.graph.Insert(k)
				if !b.graph.Contains(k) {
					b.lost.Add(1)
					b.logger.Warn("key lost after insert", "key", k, "worker", w)
				}
				keys = append(keys, k)
			}
			perWorker[w] = keys
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fill phase: %w", err)
	}

	var all []string
	for _, keys := range perWorker {
		all = append(all, keys...)
	}
	return all, nil
}

// lookup spreads HotLookups lookups across the workers.
func (b *Bench) lookup(ctx context.Context, keys []string) error {
	if b.cfg.HotLookups == 0 || len(keys) == 0 {
		return nil
	}
	hot := keys[:min(b.cfg.HotKeys, len(keys))]

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)

	for w := range b.cfg.Workers {
		share := b.cfg.HotLookups / b.cfg.Workers
		if w < b.cfg.HotLookups%b.cfg.Workers {
			share++
		}
		g.Go(func() error {
			r := rand.New(rand.NewPCG(b.cfg.Seed^0x9e3779b97f4a7c15, uint64(w)))
			for range share {
				if err := ctx.Err(); err != nil {
					return err
				}
				var k string
				if r.IntN(100) < hotPercent {
					k = hot[r.IntN(len(hot))]
				} else {
					k = keys[r.IntN(len(keys))]
				}
				if !b.graph.Contains(k) {
					b.lost.Add(1)
					b.logger.Warn("key lost during lookups", "key", k, "worker", w)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("lookup phase: %w", err)
	}
	return nil
}

// RandomKey returns a key of 1 to 19 lowercase ASCII letters.
func RandomKey(r *rand.Rand) string {
	buf := make([]byte, r.IntN(maxKeyLength)+1)
	for i := range buf {
		buf[i] = byte('a' + r.IntN(26))
	}
	return string(buf)
}
