package workload

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/heatgraph/internal/graph"
	"github.com/nao1215/heatgraph/internal/model"
)

func TestNewBench(t *testing.T) {
	t.Parallel()

	t.Run("fills in defaults", func(t *testing.T) {
		t.Parallel()

		b := NewBench(newTestGraph(), BenchConfig{HotLookups: -5}, nil)
		cfg := b.Config()
		if cfg.Workers != DefaultWorkers {
			t.Errorf("expected %d workers, got %d", DefaultWorkers, cfg.Workers)
		}
		if cfg.KeysPerWorker != DefaultKeysPerWorker {
			t.Errorf("expected %d keys per worker, got %d", DefaultKeysPerWorker, cfg.KeysPerWorker)
		}
		if cfg.HotKeys != DefaultHotKeys {
			t.Errorf("expected %d hot keys, got %d", DefaultHotKeys, cfg.HotKeys)
		}
		if cfg.HotLookups != 0 {
			t.Errorf("expected negative lookups to become 0, got %d", cfg.HotLookups)
		}
		if b.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		t.Parallel()

		want := BenchConfig{Workers: 3, KeysPerWorker: 7, HotKeys: 2, HotLookups: 11, Seed: 5}
		if got := NewBench(newTestGraph(), want, discardLogger()).Config(); got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})
}

// TestBench_Run runs a small concurrent bench and checks the report.
func TestBench_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fanOut int
		cfg    BenchConfig
	}{
		{
			name:   "default fan-out",
			fanOut: graph.DefaultFanOut,
			cfg:    BenchConfig{Workers: 4, KeysPerWorker: 100, HotKeys: 8, HotLookups: 2000, Seed: 1},
		},
		{
			name:   "binary tree",
			fanOut: 2,
			cfg:    BenchConfig{Workers: 8, KeysPerWorker: 50, HotKeys: 4, HotLookups: 1000, Seed: 2},
		},
		{
			name:   "chain",
			fanOut: 1,
			cfg:    BenchConfig{Workers: 2, KeysPerWorker: 30, HotKeys: 3, HotLookups: 200, Seed: 3},
		},
		{
			name:   "fill only",
			fanOut: 3,
			cfg:    BenchConfig{Workers: 3, KeysPerWorker: 40, HotKeys: 1, HotLookups: 0, Seed: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := newTestGraph(graph.WithFanOut(tt.fanOut))
			report, err := NewBench(g, tt.cfg, discardLogger()).Run(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			total := tt.cfg.Workers * tt.cfg.KeysPerWorker
			if report.Kind != model.KindBench {
				t.Errorf("expected bench report, got %v", report.Kind)
			}
			if report.Inserted != total || report.Size != total {
				t.Errorf("expected %d keys, got inserted=%d size=%d", total, report.Inserted, report.Size)
			}
			if report.LostKeys != 0 {
				t.Errorf("expected no lost keys, got %d", report.LostKeys)
			}
			wantLookups := int64(total + tt.cfg.HotLookups)
			if report.Lookups != wantLookups || report.Hits != wantLookups {
				t.Errorf("expected %d lookups and hits, got %d/%d", wantLookups, report.Lookups, report.Hits)
			}
			if report.Reforms == 0 {
				t.Error("expected at least one reform pass")
			}
			if report.FanOut != tt.fanOut {
				t.Errorf("expected fan-out %d, got %d", tt.fanOut, report.FanOut)
			}

			var heat int64
			for _, h := range report.HeatByDepth {
				heat += h
			}
			if heat != report.Hits {
				t.Errorf("expected heat total %d to equal hits, got %d", report.Hits, heat)
			}
		})
	}
}

// TestBench_RoundsOnBinaryTree repeats a short bench on a narrow tree, where
// concurrent inserters most often fill sibling slots out of order.
func TestBench_RoundsOnBinaryTree(t *testing.T) {
	t.Parallel()

	for round := range 10 {
		cfg := BenchConfig{Workers: 8, KeysPerWorker: 60, HotKeys: 4, HotLookups: 300, Seed: uint64(round + 1)}
		report, err := NewBench(newTestGraph(graph.WithFanOut(2)), cfg, discardLogger()).Run(context.Background())
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", round, err)
		}
		if report.LostKeys != 0 {
			t.Fatalf("round %d: expected no lost keys, got %d", round, report.LostKeys)
		}
	}
}

// TestBench_Deterministic tests that a seed fixes the inserted key multiset.
func TestBench_Deterministic(t *testing.T) {
	t.Parallel()

	cfg := BenchConfig{Workers: 1, KeysPerWorker: 25, HotKeys: 1, HotLookups: 0, Seed: 42}

	first, err := NewBench(newTestGraph(), cfg, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewBench(newTestGraph(), cfg, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Digest != second.Digest {
		t.Errorf("expected equal digests for one worker and one seed, got %s and %s", first.Digest, second.Digest)
	}
	if first.ID == second.ID {
		t.Error("expected distinct run ids")
	}
}

func TestBench_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewBench(newTestGraph(), DefaultBenchConfig(), discardLogger()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrLostKey) {
		t.Error("cancellation must not be reported as a lost key")
	}
	if report.ErrorMessage == "" {
		t.Error("expected error recorded in report")
	}
	if report.Inserted != 0 {
		t.Errorf("expected no inserts after cancel, got %d", report.Inserted)
	}
}
