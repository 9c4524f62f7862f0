package config

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/adrg/xdg"
	"github.com/nao1215/heatgraph/internal/graph"
)

// Default configuration values.
const (
	// DefaultFanOut is the number of children per tree node.
	DefaultFanOut = graph.DefaultFanOut

	// DefaultMinCountdown is the smallest number of hits between reform passes.
	DefaultMinCountdown = graph.DefaultMinCountdown

	// DefaultReformFactor scales the reform interval with the cache size.
	DefaultReformFactor = graph.DefaultReformFactor

	// DefaultWorkers is the number of goroutines feeding the cache.
	DefaultWorkers = 4

	// DefaultNormalize keeps keys as they are.
	DefaultNormalize = "none"

	// AppName is used for XDG directory paths.
	AppName = "heatgraph"
)

// NormalizeModes lists the accepted values of Config.Normalize.
var NormalizeModes = []string{"none", "upper", "fold", "url"}

// Config holds all settings for one heatgraph command.
// It is passed explicitly rather than kept in a global.
type Config struct {
	// FanOut is the number of child slots per node.
	FanOut int

	// MinCountdown is the minimum number of successful lookups between two
	// reform passes.
	MinCountdown int

	// ReformFactor sets the next reform interval to size*ReformFactor when
	// that exceeds MinCountdown.
	ReformFactor float64

	// Workers is the number of goroutines that feed keys to the cache.
	Workers int

	// Normalize names the key normalization applied before the cache sees a
	// key: none, upper, fold or url.
	Normalize string

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport and MarkdownReport select the report format. They are
	// mutually exclusive; neither means plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile receives the report instead of stdout when set.
	ReportFile string

	// SaveHistory stores each run report in the history database.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	DBDir string

	// ConfigFilePath is the YAML file given with --config.
	ConfigFilePath string
}

// NewConfig returns a Config filled with defaults.
func NewConfig() *Config {
	return &Config{
		FanOut:       DefaultFanOut,
		MinCountdown: DefaultMinCountdown,
		ReformFactor: DefaultReformFactor,
		Workers:      DefaultWorkers,
		Normalize:    DefaultNormalize,
		SaveHistory:  true,
		DBDir:        XDGDataDir(),
	}
}

// GraphOptions converts the cache settings into graph options.
func (c *Config) GraphOptions() []graph.Option {
	return []graph.Option{
		graph.WithFanOut(c.FanOut),
		graph.WithMinCountdown(c.MinCountdown),
		graph.WithReformFactor(c.ReformFactor),
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/heatgraph.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/heatgraph.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate returns the first problem found, or nil.
func (c *Config) Validate() error {
	if c.FanOut < 1 {
		return ErrInvalidFanOut
	}
	if c.MinCountdown < 1 {
		return ErrInvalidMinCountdown
	}
	if c.ReformFactor < 0 {
		return ErrInvalidReformFactor
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if !slices.Contains(NormalizeModes, c.Normalize) {
		return fmt.Errorf("%w: %q (want one of %v)", ErrUnknownNormalizeMode, c.Normalize, NormalizeModes)
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
