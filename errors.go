package flags

import (
	"errors"
	"fmt"
)

// Error taxonomy. MissingSdkKey and InvalidOption are thrown at
// construction and never recovered; FallbackNotFound,
// FallbackEntryNotFound, and UnexpectedBundledError come from
// GetFallbackDatafile. FlagNotFound never appears here — it's always
// returned inside an EvaluationResult's ErrorCode, never thrown
// (datafile.ErrorCodeFlagNotFound).
var (
	// ErrMissingSdkKey is returned by New when the supplied key is empty,
	// doesn't start with "vf_", or is a connection string with no
	// embedded sdkKey field.
	ErrMissingSdkKey = errors.New("flags: missing or malformed SDK key")

	// ErrFallbackNotFound is returned by GetFallbackDatafile when no
	// bundled-definitions artifact is configured or present.
	ErrFallbackNotFound = errors.New("flags: no bundled definitions artifact available")

	// ErrFallbackEntryNotFound is returned by GetFallbackDatafile when
	// the bundled artifact exists but has no entry for this SDK key.
	ErrFallbackEntryNotFound = errors.New("flags: bundled artifact has no entry for this SDK key")
)

// InvalidOptionError reports a caller-supplied Option that fails
// validation at construction — currently only a polling interval
// below polling.MinInterval.
type InvalidOptionError struct {
	Option string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("flags: invalid option %s: %s", e.Option, e.Reason)
}

// UnexpectedBundledError wraps a lower-level read/parse failure on the
// bundled-definitions artifact. Unwrap exposes the underlying cause.
type UnexpectedBundledError struct {
	Cause error
}

func (e *UnexpectedBundledError) Error() string {
	return fmt.Sprintf("flags: bundled artifact unreadable: %v", e.Cause)
}

func (e *UnexpectedBundledError) Unwrap() error {
	return e.Cause
}

// NoDefinitionsAvailableError is returned by Evaluate (called without a
// defaultValue) when every configuration source has failed to produce a
// datafile.
type NoDefinitionsAvailableError struct {
	Message string
}

func (e *NoDefinitionsAvailableError) Error() string {
	return e.Message
}
