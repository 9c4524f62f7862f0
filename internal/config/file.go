package config

// GraphSection configures the cache tree.
type GraphSection struct {
	// FanOut overrides the number of child slots per node. Zero keeps the default.
	FanOut int `yaml:"fanOut,omitempty"`

	// MinCountdown overrides the minimum reform interval. Zero keeps the default.
	MinCountdown int `yaml:"minCountdown,omitempty"`

	// ReformFactor overrides the size-proportional reform interval.
	// A pointer so that an explicit 0 can be told apart from "unset".
	ReformFactor *float64 `yaml:"reformFactor,omitempty"`
}

// HistorySection configures the run history database.
type HistorySection struct {
	// Disabled turns off saving run reports.
	Disabled bool `yaml:"disabled,omitempty"`

	// Dir overrides the database directory.
	Dir string `yaml:"dir,omitempty"`
}

// File represents the structure of the .heatgraph configuration file.
type File struct {
	Graph GraphSection `yaml:"graph,omitempty"`

	// Normalize is the default key normalization mode.
	Normalize string `yaml:"normalize,omitempty"`

	// Workers is the default worker count.
	Workers int `yaml:"workers,omitempty"`

	History HistorySection `yaml:"history,omitempty"`
}

// Apply copies every value set in the file onto cfg. Unset values leave cfg
// untouched, so flags parsed afterwards still win.
func (cf *File) Apply(cfg *Config) {
	if cf == nil {
		return
	}
	if cf.Graph.FanOut != 0 {
		cfg.FanOut = cf.Graph.FanOut
	}
	if cf.Graph.MinCountdown != 0 {
		cfg.MinCountdown = cf.Graph.MinCountdown
	}
	if cf.Graph.ReformFactor != nil {
		cfg.ReformFactor = *cf.Graph.ReformFactor
	}
	if cf.Normalize != "" {
		cfg.Normalize = cf.Normalize
	}
	if cf.Workers != 0 {
		cfg.Workers = cf.Workers
	}
	if cf.History.Disabled {
		cfg.SaveHistory = false
	}
	if cf.History.Dir != "" {
		cfg.DBDir = cf.History.Dir
	}
}
