package workload

import (
	"bufio"
	"context"
	"fmt"
	"hash/maphash"
	"io"
	"log/slog"
	"strings"

	"github.com/nao1215/heatgraph/internal/graph"
	"github.com/nao1215/heatgraph/internal/model"
	"github.com/nao1215/heatgraph/internal/normalize"
	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds a single key read by ReadKeys.
const maxLineSize = 1 << 20

// Result is the outcome for one input key.
type Result struct {
	// Key is the key as read.
	Key string `json:"key"`

	// Normalized is the form handed to the cache.
	Normalized string `json:"normalized"`

	// Duplicate is true when the cache had already seen Normalized.
	Duplicate bool `json:"duplicate"`

	checked bool
}

// Fresh reports whether the key reached the cache and was new to it. Keys
// left unchecked by a cancelled run are neither fresh nor duplicates.
func (r Result) Fresh() bool {
	return r.checked && !r.Duplicate
}

// Deduper feeds keys through a graph.Graph and reports which ones were new.
type Deduper struct {
	graph         *graph.Graph
	workers       int
	normalize     normalize.Func
	normalizeName string
	logger        *slog.Logger
}

// NewDeduper creates a Deduper over g.
func NewDeduper(g *graph.Graph, opts ...Option) *Deduper {
	d := &Deduper{
		graph:         g,
		workers:       DefaultWorkers,
		normalize:     normalize.None,
		normalizeName: normalize.ModeNone,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d
}

// Dedupe checks every key against the cache and records the new ones.
// Results are returned in input order.
//
// Keys are split across workers by the hash of their normalized form, so
// equal keys are always handled by the same worker in input order. The
// first occurrence is therefore the fresh one no matter how many workers
// run.
//
// On cancellation the returned results are partial; Count skips keys that
// were never reached.
func (d *Deduper) Dedupe(ctx context.Context, keys []string) ([]Result, error) {
	results := make([]Result, len(keys))
	partitions := make([][]int, d.workers)

	seed := maphash.MakeSeed()
	for i, k := range keys {
		n := d.normalize(k)
		results[i] = Result{Key: k, Normalized: n}
		p := maphash.String(seed, n) % uint64(d.workers)
		partitions[p] = append(partitions[p], i)
	}

	d.logger.Debug("starting dedupe",
		"keys", len(keys),
		"workers", d.workers,
		"normalize", d.normalizeName,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, part := range partitions {
		if len(part) == 0 {
			continue
		}
		g.Go(func() error {
			for _, i := range part {
				if err := ctx.Err(); err != nil {
					return err
				}
				// Each index belongs to exactly one partition.
				results[i].Duplicate = d.graph.Seen(results[i].Normalized)
				results[i].checked = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("dedupe interrupted: %w", err)
	}
	return results, nil
}

// Run reads keys from r, dedupes them and returns a finished run report
// together with the per-key results.
func (d *Deduper) Run(ctx context.Context, r io.Reader) (*model.RunReport, []Result, error) {
	report := model.NewRunReport(model.KindDedupe)
	report.Workers = d.workers
	report.Normalize = d.normalizeName

	keys, err := ReadKeys(r)
	if err != nil {
		report.Fail(err)
		report.Finish(d.graph)
		return report, nil, err
	}

	results, err := d.Dedupe(ctx, keys)
	report.Inserted, report.Duplicates = Count(results)
	if err != nil {
		report.Fail(err)
	}
	report.Finish(d.graph)

	d.logger.Info("dedupe complete",
		"keys", len(keys),
		"fresh", report.Inserted,
		"duplicates", report.Duplicates,
		"elapsed", report.Elapsed,
	)
	return report, results, err
}

// Count returns the number of fresh and duplicate results.
func Count(results []Result) (fresh, duplicates int) {
	for _, r := range results {
		if !r.checked {
			continue
		}
		if r.Duplicate {
			duplicates++
		} else {
			fresh++
		}
	}
	return fresh, duplicates
}

// ReadKeys reads newline-separated keys from r. Blank lines are skipped and
// a trailing carriage return is dropped; other whitespace is kept.
func ReadKeys(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var keys []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return keys, fmt.Errorf("failed to read keys: %w", err)
	}
	return keys, nil
}
