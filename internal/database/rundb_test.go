package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/heatgraph/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *RunDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// newTestRun creates a finished-looking report started at the given offset
// from a fixed time.
func newTestRun(kind model.RunKind, offset time.Duration) *model.RunReport {
	r := model.NewRunReport(kind)
	r.StartedAt = time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC).Add(offset)
	r.Elapsed = 250 * time.Millisecond
	r.FanOut = 5
	r.Workers = 2
	r.Inserted = 3
	r.Duplicates = 1
	r.Lookups = 4
	r.Hits = 4
	r.Reforms = 1
	r.Size = 3
	r.Depth = 2
	r.Traversal = []string{"a", "b", "c"}
	r.Digest = model.Digest(r.Traversal)
	return r
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})

	t.Run("without WAL", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), Options{CreateIfNotExists: true})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		_ = db.Close()
	})
}

func TestRunDB_SaveAndGet(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	want := newTestRun(model.KindBench, 0)
	want.LostKeys = 1
	want.Fail(errors.New("inserted key not found: 1 misses"))
	if err := db.SaveRun(ctx, want); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	got, err := db.GetRun(ctx, want.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.ID != want.ID || got.Kind != model.KindBench {
		t.Errorf("unexpected identity: %s %v", got.ID, got.Kind)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("expected start %v, got %v", want.StartedAt, got.StartedAt)
	}
	if got.Elapsed != want.Elapsed {
		t.Errorf("expected elapsed %v, got %v", want.Elapsed, got.Elapsed)
	}
	if !slices.Equal(got.Traversal, want.Traversal) || got.Digest != want.Digest {
		t.Errorf("expected traversal %v, got %v", want.Traversal, got.Traversal)
	}
	if got.Error == nil || got.ErrorMessage != want.ErrorMessage {
		t.Errorf("expected error %q restored, got %v", want.ErrorMessage, got.Error)
	}

	t.Run("duplicate id is rejected", func(t *testing.T) {
		if err := db.SaveRun(ctx, want); err == nil {
			t.Error("expected error for duplicate id")
		}
	})
}

func TestRunDB_GetRun_Prefix(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	a := newTestRun(model.KindDedupe, 0)
	a.ID = "aaaa1111-0000-4000-8000-000000000000"
	b := newTestRun(model.KindDedupe, time.Minute)
	b.ID = "aaaa2222-0000-4000-8000-000000000000"
	for _, r := range []*model.RunReport{a, b} {
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}

	tests := []struct {
		name    string
		id      string
		wantID  string
		wantErr error
	}{
		{name: "full id", id: a.ID, wantID: a.ID},
		{name: "unique prefix", id: "aaaa2", wantID: b.ID},
		{name: "ambiguous prefix", id: "aaaa", wantErr: ErrAmbiguousID},
		{name: "short prefix", id: "aaa", wantErr: ErrRunNotFound},
		{name: "unknown id", id: "ffffffff", wantErr: ErrRunNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := db.GetRun(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("expected %s, got %s", tt.wantID, got.ID)
			}
		})
	}
}

func TestRunDB_ListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	// Saved out of order; sub-second offsets check the text ordering.
	offsets := []time.Duration{time.Second, 0, 1500 * time.Millisecond, 10 * time.Second}
	var ids []string
	for _, off := range offsets {
		r := newTestRun(model.KindBench, off)
		ids = append(ids, r.ID)
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}
	wantOrder := []string{ids[3], ids[2], ids[0], ids[1]}

	t.Run("all runs newest first", func(t *testing.T) {
		t.Parallel()

		runs, err := db.ListRuns(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		got := make([]string, len(runs))
		for i, r := range runs {
			got[i] = r.ID
		}
		if !slices.Equal(got, wantOrder) {
			t.Errorf("expected order %v, got %v", wantOrder, got)
		}

		first := runs[0]
		if first.Kind != model.KindBench || first.Inserted != 3 || first.Duplicates != 1 {
			t.Errorf("unexpected summary: %+v", first)
		}
		if first.Elapsed != 250*time.Millisecond {
			t.Errorf("expected elapsed 250ms, got %v", first.Elapsed)
		}
		if first.StartedAt.IsZero() {
			t.Error("expected parsed start time")
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		runs, err := db.ListRuns(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 || runs[0].ID != wantOrder[0] {
			t.Errorf("expected 2 newest runs, got %+v", runs)
		}
	})
}

func TestRunDB_FindByDigestAndDelete(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	same1 := newTestRun(model.KindBench, 0)
	same2 := newTestRun(model.KindBench, time.Second)
	other := newTestRun(model.KindDedupe, 2*time.Second)
	other.Traversal = []string{"z"}
	other.Digest = model.Digest(other.Traversal)
	for _, r := range []*model.RunReport{same1, same2, other} {
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}

	runs, err := db.FindByDigest(ctx, same1.Digest)
	if err != nil {
		t.Fatalf("failed to find runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != same2.ID || runs[1].ID != same1.ID {
		t.Errorf("expected the two matching runs newest first, got %+v", runs)
	}

	if err := db.DeleteRun(ctx, same2.ID); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}
	if err := db.DeleteRun(ctx, "missing"); err != nil {
		t.Errorf("expected no error deleting unknown id, got %v", err)
	}
	if _, err := db.GetRun(ctx, same2.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound after delete, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "stored format", input: "2026-10-16T08:00:00.000000000Z"},
		{name: "RFC3339", input: "2026-10-16T08:00:00Z"},
		{name: "SQLite default", input: "2026-10-16 08:00:00"},
		{name: "ISO without zone", input: "2026-10-16T08:00:00"},
		{name: "garbage", input: "yesterday", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if tt.zero {
				if !got.IsZero() {
					t.Errorf("expected zero time, got %v", got)
				}
				return
			}
			if !got.Equal(want) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}
