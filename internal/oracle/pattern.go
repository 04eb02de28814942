package oracle

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// Pattern names understood by the pattern regime.
const (
	FilePattern     = "file_pattern"
	ErrorPattern    = "error_pattern"
	SourcePattern   = "source_pattern"
	ReasonPattern   = "reason_pattern"
	FoundPattern    = "found_pattern"
	RequiredPattern = "required_pattern"
)

// Patterns is the configured form of a pattern set. Empty fields are unused.
type Patterns struct {
	File     string `json:"file_pattern,omitempty"     yaml:"file_pattern,omitempty"     mapstructure:"file_pattern"`
	Error    string `json:"error_pattern,omitempty"    yaml:"error_pattern,omitempty"    mapstructure:"error_pattern"`
	Source   string `json:"source_pattern,omitempty"   yaml:"source_pattern,omitempty"   mapstructure:"source_pattern"`
	Reason   string `json:"reason_pattern,omitempty"   yaml:"reason_pattern,omitempty"   mapstructure:"reason_pattern"`
	Found    string `json:"found_pattern,omitempty"    yaml:"found_pattern,omitempty"    mapstructure:"found_pattern"`
	Required string `json:"required_pattern,omitempty" yaml:"required_pattern,omitempty" mapstructure:"required_pattern"`
}

// IsZero reports whether no pattern is set.
func (p Patterns) IsZero() bool {
	return p == Patterns{}
}

// Merge returns p with every empty field filled from fallback.
func (p Patterns) Merge(fallback Patterns) Patterns {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Patterns{
		File:     pick(p.File, fallback.File),
		Error:    pick(p.Error, fallback.Error),
		Source:   pick(p.Source, fallback.Source),
		Reason:   pick(p.Reason, fallback.Reason),
		Found:    pick(p.Found, fallback.Found),
		Required: pick(p.Required, fallback.Required),
	}
}

func (p Patterns) ordered() [][2]string {
	return [][2]string{
		{FilePattern, p.File},
		{ErrorPattern, p.Error},
		{SourcePattern, p.Source},
		{ReasonPattern, p.Reason},
		{FoundPattern, p.Found},
		{RequiredPattern, p.Required},
	}
}

// NamedPattern is a compiled single-capture-group expression.
type NamedPattern struct {
	Name string
	re   *regexp.Regexp
}

// PatternSet is a validated, ordered set of patterns. The zero value is empty.
type PatternSet struct {
	entries []NamedPattern
}

// CompilePatterns validates every non-empty pattern and compiles it in
// multi-line mode. Each expression must have exactly one capturing group.
func CompilePatterns(p Patterns) (PatternSet, error) {
	var set PatternSet
	for _, kv := range p.ordered() {
		name, expr := kv[0], kv[1]
		if expr == "" {
			continue
		}
		re, err := regexp.Compile("(?m)" + expr)
		if err != nil {
			return PatternSet{}, &ConfigError{Pattern: name, Err: fmt.Errorf("%w: %v", ErrInvalidPattern, err)}
		}
		if re.NumSubexp() != 1 {
			return PatternSet{}, &ConfigError{
				Pattern: name,
				Err:     fmt.Errorf("%w: want 1 capture group, got %d", ErrInvalidPattern, re.NumSubexp()),
			}
		}
		set.entries = append(set.entries, NamedPattern{Name: name, re: re})
	}
	return set, nil
}

// Len returns the number of patterns in the set.
func (s PatternSet) Len() int {
	return len(s.entries)
}

// Names returns the pattern names in evaluation order.
func (s PatternSet) Names() []string {
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.Name)
	}
	return names
}

// ExtractOne returns the first capture of the pattern in text, normalized.
func ExtractOne(text string, p NamedPattern) (string, error) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return "", &ConfigError{Pattern: p.Name, Err: ErrPatternNotFound}
	}
	return normalize(p.Name, m[1]), nil
}

// ExtractAll returns every capture of the pattern in text, normalized.
func ExtractAll(text string, p NamedPattern) map[string]struct{} {
	out := make(map[string]struct{})
	for _, m := range p.re.FindAllStringSubmatch(text, -1) {
		out[normalize(p.Name, m[1])] = struct{}{}
	}
	return out
}

// normalize reduces file paths to their basename so absolute paths from the
// original and minimized layouts compare equal.
func normalize(name, value string) string {
	if name == FilePattern && value != "" {
		return filepath.Base(value)
	}
	return value
}
