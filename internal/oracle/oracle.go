// Package oracle decides whether a minimized program still shows the same
// diagnostic as the original program, by comparing the two analysis logs.
//
// Everything here is a pure function of its inputs and is safe to call from
// many goroutines at once.
package oracle

import (
	"errors"
	"fmt"

	"github.com/metalagman/preserve/internal/model"
)

// ReasonNotReproduced prefixes every FAIL reason.
const ReasonNotReproduced = "signature not reproduced"

// Outcome is the result of a completed comparison.
type Outcome struct {
	Preserved bool
	Reason    string
}

// Evaluate compares the expected and actual logs under the descriptor's
// regime. A *ConfigError is returned when the expected side cannot be
// evaluated; that is never reported as a non-preserving Outcome.
func Evaluate(expected, actual string, d Descriptor) (Outcome, error) {
	switch d.Type {
	case BugCrash:
		return evaluateCrash(expected, actual, d.RequireStack)
	case BugError, BugFalsePositive, BugSemiCrash, BugOther:
		return evaluatePatterns(expected, actual, d.Patterns)
	default:
		return Outcome{}, &ConfigError{Err: fmt.Errorf("%w: %q", ErrUnknownBugType, d.Type)}
	}
}

// Judge runs Evaluate and folds the result into a preservation status and
// reason. Configuration errors become model.StatusError.
func Judge(expected, actual string, d Descriptor) (model.Status, string) {
	out, err := Evaluate(expected, actual, d)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return model.StatusError, cfgErr.Error()
		}
		return model.StatusError, err.Error()
	}
	if out.Preserved {
		return model.StatusPass, ""
	}
	return model.StatusFail, out.Reason
}

func evaluateCrash(expected, actual string, requireStack bool) (Outcome, error) {
	want := ExtractCrashes(expected, requireStack)
	if len(want) == 0 {
		return Outcome{}, &ConfigError{Err: ErrNoCrashSignature}
	}
	// Expected logs are authored to hold a single crash; the first wins.
	target := want[0]
	got := ExtractCrashes(actual, requireStack)
	for _, rec := range got {
		if rec.Equal(target, requireStack) {
			return Outcome{Preserved: true}, nil
		}
	}
	reason := fmt.Sprintf("%s: %s in %s not found among %d crash(es) in actual log",
		ReasonNotReproduced, target.ExceptionType, target.CrashedClass, len(got))
	return Outcome{Reason: reason}, nil
}

func evaluatePatterns(expected, actual string, set PatternSet) (Outcome, error) {
	if set.Len() == 0 {
		return Outcome{}, &ConfigError{Err: ErrNoPatterns}
	}
	wants := make([]string, len(set.entries))
	for i, p := range set.entries {
		v, err := ExtractOne(expected, p)
		if err != nil {
			return Outcome{}, err
		}
		wants[i] = v
	}
	for i, p := range set.entries {
		if _, ok := ExtractAll(actual, p)[wants[i]]; !ok {
			return Outcome{
				Reason: fmt.Sprintf("%s: %s value %q missing from actual log", ReasonNotReproduced, p.Name, wants[i]),
			}, nil
		}
	}
	return Outcome{Preserved: true}, nil
}
