package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the dot-file looked up in the working and home directories.
const DefaultConfigFile = ".heatgraph"

// ErrConfigNotFound reports a configuration path with nothing behind it.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile decodes the YAML file at path. A missing file yields
// ErrConfigNotFound so callers can tell it apart from a malformed one.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user or a fixed lookup list
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}

	cf := new(File)
	if err := yaml.Unmarshal(data, cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cf, nil
}

// configCandidates lists where an unnamed configuration may live, nearest
// first: the working directory, the home directory, then the XDG config
// directory.
func configCandidates() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), "config.yaml"))
}

// FindConfigFile resolves the configuration to load. An explicit configPath
// is used only if it exists; otherwise the first existing candidate wins.
// It returns "" when there is nothing to load.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if exists(configPath) {
			return configPath
		}
		return ""
	}

	for _, p := range configCandidates() {
		if exists(p) {
			return p
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
