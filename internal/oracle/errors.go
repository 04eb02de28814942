package oracle

import (
	"errors"
	"fmt"
)

var (
	// ErrPatternNotFound means a pattern has no match in the expected log.
	ErrPatternNotFound = errors.New("not found in expected log")
	// ErrNoCrashSignature means the expected log has no parsable crash dump.
	ErrNoCrashSignature = errors.New("no crash signature in expected log")
	// ErrInvalidPattern means a pattern does not compile or has the wrong
	// number of capture groups.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrUnknownBugType is returned for bug types outside the known set.
	ErrUnknownBugType = errors.New("unknown bug type")
	// ErrNoPatterns means a pattern-regime descriptor has an empty set.
	ErrNoPatterns = errors.New("no patterns configured")
)

// ConfigError reports that the descriptor or the expected log is wrong, as
// opposed to the minimized program failing to reproduce the symptom.
type ConfigError struct {
	Pattern string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Pattern == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("pattern %s %s", e.Pattern, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
