package oracle

import "fmt"

// BugType selects the comparison regime.
type BugType string

const (
	BugCrash         BugType = "crash"
	BugError         BugType = "error"
	BugFalsePositive BugType = "false_positive"
	BugSemiCrash     BugType = "semi_crash"
	BugOther         BugType = "other"
)

// ParseBugType validates a bug type string.
func ParseBugType(s string) (BugType, error) {
	switch t := BugType(s); t {
	case BugCrash, BugError, BugFalsePositive, BugSemiCrash, BugOther:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBugType, s)
	}
}

// Descriptor configures one evaluation. Build it with NewCrashDescriptor or
// NewPatternDescriptor.
type Descriptor struct {
	Type         BugType
	RequireStack bool
	Patterns     PatternSet
}

// NewCrashDescriptor returns a descriptor for the crash regime.
func NewCrashDescriptor(requireStack bool) Descriptor {
	return Descriptor{Type: BugCrash, RequireStack: requireStack}
}

// NewPatternDescriptor compiles patterns for one of the pattern regimes.
func NewPatternDescriptor(t BugType, p Patterns) (Descriptor, error) {
	if t == BugCrash {
		return Descriptor{}, fmt.Errorf("%w: crash does not take patterns", ErrUnknownBugType)
	}
	if _, err := ParseBugType(string(t)); err != nil {
		return Descriptor{}, err
	}
	set, err := CompilePatterns(p)
	if err != nil {
		return Descriptor{}, err
	}
	if set.Len() == 0 {
		return Descriptor{}, &ConfigError{Err: fmt.Errorf("%w for bug type %s", ErrNoPatterns, t)}
	}
	return Descriptor{Type: t, Patterns: set}, nil
}

// NewDescriptor builds the descriptor matching the bug type.
func NewDescriptor(bugType string, requireStack bool, p Patterns) (Descriptor, error) {
	t, err := ParseBugType(bugType)
	if err != nil {
		return Descriptor{}, err
	}
	if t == BugCrash {
		return NewCrashDescriptor(requireStack), nil
	}
	return NewPatternDescriptor(t, p)
}
