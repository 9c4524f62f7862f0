package config

import "errors"

// Validation errors returned by Config.Validate. Callers match them with
// errors.Is.
var (
	// ErrInvalidFanOut is returned when the fan-out is below 1.
	ErrInvalidFanOut = errors.New("invalid fan-out: must be at least 1")

	// ErrInvalidMinCountdown is returned when the minimum reform interval is below 1.
	ErrInvalidMinCountdown = errors.New("invalid minimum countdown: must be at least 1")

	// ErrInvalidReformFactor is returned when the reform factor is negative.
	ErrInvalidReformFactor = errors.New("invalid reform factor: must be non-negative")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrUnknownNormalizeMode is returned for a normalize mode that does not exist.
	ErrUnknownNormalizeMode = errors.New("unknown normalize mode")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
