package model

import (
	"cmp"
	"encoding/hex"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/heatgraph/internal/graph"
	"golang.org/x/crypto/sha3"
)

// HottestLimit is the number of keys kept in RunReport.Hottest.
const HottestLimit = 5

// KeyHeat is one key and the heat of the node holding it.
type KeyHeat struct {
	Key   string `json:"key"`
	Heat  int64  `json:"heat"`
	Depth int    `json:"depth"`
}

// RunReport is the result of one dedupe or bench run.
type RunReport struct {
	// ID is a random UUID assigned when the run starts.
	ID string `json:"id"`

	Kind RunKind `json:"kind"`

	// StartedAt is when NewRunReport was called.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock time up to Finish.
	Elapsed time.Duration `json:"elapsed_ns"`

	// === Settings ===

	FanOut    int    `json:"fan_out"`
	Workers   int    `json:"workers"`
	Normalize string `json:"normalize,omitempty"`

	// === Workload counters ===

	// Inserted is the number of keys stored by the run.
	Inserted int `json:"inserted"`

	// Duplicates is the number of keys the cache had already seen.
	Duplicates int `json:"duplicates"`

	// LostKeys counts keys that were inserted but not found right after.
	// Anything other than zero is a bug in the cache.
	LostKeys int `json:"lost_keys"`

	// === Cache state, copied by Finish ===

	Lookups int64 `json:"lookups"`
	Hits    int64 `json:"hits"`
	Reforms int64 `json:"reforms"`
	Size    int   `json:"size"`
	Depth   int   `json:"depth"`

	// HeatByDepth sums node heat per tree level; index 0 is the root.
	HeatByDepth []int64 `json:"heat_by_depth,omitempty"`

	// Hottest lists up to HottestLimit keys with non-zero heat, hottest first.
	Hottest []KeyHeat `json:"hottest,omitempty"`

	// Traversal is the breadth-first key order at Finish.
	Traversal []string `json:"traversal,omitempty"`

	// Digest is the hex SHA3-256 of Traversal, one key per line. Two runs
	// with the same digest left their caches in the same shape.
	Digest string `json:"digest"`

	// Error is the error that ended the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewRunReport starts a report of the given kind.
func NewRunReport(kind RunKind) *RunReport {
	return &RunReport{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now(),
	}
}

// Finish records the elapsed time and copies the cache's counters and shape.
func (r *RunReport) Finish(g *graph.Graph) {
	r.Elapsed = time.Since(r.StartedAt)

	stats := g.Stats()
	r.FanOut = stats.FanOut
	r.Lookups = stats.Lookups
	r.Hits = stats.Hits
	r.Reforms = stats.Reforms

	nodes := g.Snapshot()
	r.Size = len(nodes)
	r.Depth = 0
	r.HeatByDepth = nil
	r.Traversal = make([]string, 0, len(nodes))
	for _, n := range nodes {
		r.Traversal = append(r.Traversal, n.Key)
		r.Depth = max(r.Depth, n.Depth+1)
		for len(r.HeatByDepth) <= n.Depth {
			r.HeatByDepth = append(r.HeatByDepth, 0)
		}
		r.HeatByDepth[n.Depth] += n.Heat
	}
	r.Hottest = hottest(nodes, HottestLimit)
	r.Digest = Digest(r.Traversal)
}

// Fail records err as the reason the run ended.
func (r *RunReport) Fail(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// HitRate returns Hits/Lookups, or 0 before the first lookup.
func (r *RunReport) HitRate() float64 {
	if r.Lookups == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Lookups)
}

// Digest hashes keys in order with SHA3-256 and returns the hex sum.
func Digest(keys []string) string {
	h := sha3.New256()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// hottest returns the limit hottest nodes. Equal heat keeps breadth-first
// order, so shallower nodes come first.
func hottest(nodes []graph.NodeInfo, limit int) []KeyHeat {
	var out []KeyHeat
	for _, n := range nodes {
		if n.Heat > 0 {
			out = append(out, KeyHeat{Key: n.Key, Heat: n.Heat, Depth: n.Depth})
		}
	}
	slices.SortStableFunc(out, func(a, b KeyHeat) int {
		return cmp.Compare(b.Heat, a.Heat)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
