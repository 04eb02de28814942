// Package issue describes the bug reports a minimization run is evaluated on
// and loads them from JSON or YAML issue lists.
package issue

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/metalagman/preserve/internal/oracle"
)

// Target is one method the minimizer must keep.
type Target struct {
	Method string `json:"method" yaml:"method" mapstructure:"method" validate:"required"`
	File   string `json:"file"   yaml:"file"   mapstructure:"file"   validate:"required,endswith=.java"`
}

// Issue is one evaluation subject.
type Issue struct {
	ID           string          `json:"issue_id"               yaml:"issue_id"               mapstructure:"issue_id"      validate:"required"`
	URL          string          `json:"url"                    yaml:"url"                    mapstructure:"url"           validate:"required"`
	Branch       string          `json:"branch,omitempty"       yaml:"branch,omitempty"       mapstructure:"branch"`
	CommitHash   string          `json:"commitHash,omitempty"   yaml:"commitHash,omitempty"   mapstructure:"commitHash"    validate:"omitempty,hexadecimal"`
	RootDir      string          `json:"rootDir"                yaml:"rootDir"                mapstructure:"rootDir"`
	Package      string          `json:"package"                yaml:"package"                mapstructure:"package"       validate:"required"`
	Targets      []Target        `json:"targets"                yaml:"targets"                mapstructure:"targets"       validate:"required,min=1,dive"`
	JDKVersion   string          `json:"jdk_version,omitempty"  yaml:"jdk_version,omitempty"  mapstructure:"jdk_version"`
	Checker      string          `json:"checker,omitempty"      yaml:"checker,omitempty"      mapstructure:"checker"`
	BugType      string          `json:"bug_type"               yaml:"bug_type"               mapstructure:"bug_type"      validate:"required,oneof=crash error false_positive semi_crash other"`
	RequireStack bool            `json:"require_stack,omitempty" yaml:"require_stack,omitempty" mapstructure:"require_stack"`
	Patterns     oracle.Patterns `json:"patterns,omitempty"     yaml:"patterns,omitempty"     mapstructure:"patterns"`
	ExpectedLog  string          `json:"expected_log,omitempty" yaml:"expected_log,omitempty" mapstructure:"expected_log"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the issue's fields.
func (i Issue) Validate() error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("issue %q: %w", i.ID, err)
	}
	return nil
}

// Descriptor builds the oracle descriptor for the issue, using defaults when
// the issue has no patterns of its own.
func (i Issue) Descriptor(defaults map[string]oracle.Patterns) (oracle.Descriptor, error) {
	p := i.Patterns
	if p.IsZero() {
		p = defaults[i.BugType]
	}
	d, err := oracle.NewDescriptor(i.BugType, i.RequireStack, p)
	if err != nil {
		return oracle.Descriptor{}, fmt.Errorf("issue %s: %w", i.ID, err)
	}
	return d, nil
}

// ExpectedLogPath returns where the issue's expected log lives.
func (i Issue) ExpectedLogPath(expectedLogsDir string) string {
	if i.ExpectedLog != "" {
		if filepath.IsAbs(i.ExpectedLog) || expectedLogsDir == "" {
			return i.ExpectedLog
		}
		return filepath.Join(expectedLogsDir, i.ExpectedLog)
	}
	return filepath.Join(expectedLogsDir, i.ID+"_expected_log.txt")
}

// PackagePath turns the issue's package into a directory path.
func (i Issue) PackagePath() string {
	return strings.ReplaceAll(i.Package, ".", "/")
}
