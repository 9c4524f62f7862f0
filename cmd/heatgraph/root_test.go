package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv isolates a command run from the user's configuration and history.
type testEnv struct {
	dir    string
	config string
	dbDir  string
}

// newTestEnv writes a small configuration file into a temporary directory.
func newTestEnv(t *testing.T, configYAML string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		config: filepath.Join(dir, "heatgraph.yaml"),
		dbDir:  filepath.Join(dir, "db"),
	}
	if err := os.WriteFile(env.config, []byte(configYAML), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// run executes the root command with the environment's config and history
// directory and returns what it wrote.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config", e.config, "--db-dir", e.dbDir))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "heatgraph" {
			t.Errorf("expected use 'heatgraph', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{name: "verbose", shorthand: "v", defValue: "false"},
			{name: "config", shorthand: "c", defValue: ""},
			{name: "db-dir", defValue: ""},
			{name: "log-json", defValue: "false"},
		}
		for _, tt := range tests {
			flag := cmd.PersistentFlags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("%s: expected default %q, got %q", tt.name, tt.defValue, flag.DefValue)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		want := map[string]bool{
			"dedupe [file...]": false,
			"bench":            false,
			"history [id]":     false,
			"init":             false,
			"version":          false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Use]; ok {
				want[sub.Use] = true
			}
		}
		for use, found := range want {
			if !found {
				t.Errorf("expected %q subcommand", use)
			}
		}
	})
}

func TestRootCmd_UnknownSubcommand(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	if _, _, err := env.run(t, "", "frobnicate"); err == nil {
		t.Error("expected error for unknown subcommand")
	}
}
