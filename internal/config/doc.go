// Package config holds heatgraph's settings: the cache's construction
// parameters, worker counts, key normalization and report output.
//
// Values come from three layers, later layers winning: the defaults of
// NewConfig, the optional YAML file (.heatgraph) and command-line flags.
package config
