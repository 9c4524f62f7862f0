package model

import (
	"fmt"
	"strings"
)

// RunKind identifies the command that produced a RunReport.
type RunKind int

const (
	// KindDedupe is a run that fed an input stream through the cache.
	KindDedupe RunKind = iota

	// KindBench is a synthetic concurrent benchmark run.
	KindBench
)

// String returns the lower-case name used in reports and the database.
func (k RunKind) String() string {
	switch k {
	case KindDedupe:
		return "dedupe"
	case KindBench:
		return "bench"
	default:
		return "unknown"
	}
}

// ParseRunKind is the inverse of String. Matching ignores case.
func ParseRunKind(s string) (RunKind, error) {
	switch strings.ToLower(s) {
	case "dedupe":
		return KindDedupe, nil
	case "bench":
		return KindBench, nil
	default:
		return 0, fmt.Errorf("unknown run kind %q", s)
	}
}

// MarshalText stores the kind by name.
func (k RunKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a name written by MarshalText.
func (k *RunKind) UnmarshalText(b []byte) error {
	parsed, err := ParseRunKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
