// Package config provides configuration loading and management for preserve.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/metalagman/preserve/internal/oracle"
)

// Config is the root configuration.
type Config struct {
	IssuesFile      string                     `json:"issues_file"                 mapstructure:"issues_file"`
	IssuesDir       string                     `json:"issues_dir"                  mapstructure:"issues_dir"`
	ExpectedLogsDir string                     `json:"expected_logs_dir"           mapstructure:"expected_logs_dir"`
	Minimizer       MinimizerConfig            `json:"minimizer"                   mapstructure:"minimizer"`
	Checker         CheckerConfig              `json:"checker"                     mapstructure:"checker"`
	JDKs            map[string]string          `json:"jdks,omitempty"              mapstructure:"jdks"`
	Concurrency     int                        `json:"concurrency,omitempty"       mapstructure:"concurrency"`
	Timeouts        Timeouts                   `json:"timeouts"                    mapstructure:"timeouts"`
	Patterns        map[string]oracle.Patterns `json:"patterns,omitempty"          mapstructure:"patterns"`
	Retention       RetentionPolicy            `json:"retention"                   mapstructure:"retention"`
}

// MinimizerConfig describes where the minimizer lives and how to start it.
type MinimizerConfig struct {
	Dir string   `json:"dir"           mapstructure:"dir"`
	Cmd []string `json:"cmd,omitempty" mapstructure:"cmd"`
}

// CheckerConfig locates the analysis used to rebuild minimized programs.
type CheckerConfig struct {
	Jar       string   `json:"jar"                  mapstructure:"jar"`
	ExtraArgs []string `json:"extra_args,omitempty" mapstructure:"extra_args"`
}

// Timeouts bound external processes. Zero means no limit.
type Timeouts struct {
	Minimizer time.Duration `json:"minimizer,omitempty" mapstructure:"minimizer"`
	Build     time.Duration `json:"build,omitempty"     mapstructure:"build"`
}

// MarshalJSON spells durations the way the config file does, e.g. "30m".
func (t Timeouts) MarshalJSON() ([]byte, error) {
	out := map[string]string{}
	if t.Minimizer > 0 {
		out["minimizer"] = t.Minimizer.String()
	}
	if t.Build > 0 {
		out["build"] = t.Build.String()
	}
	return json.Marshal(out)
}

// RetentionPolicy defines how many old runs to keep.
type RetentionPolicy struct {
	KeepLast int `json:"keep_last,omitempty" mapstructure:"keep_last"`
	KeepDays int `json:"keep_days,omitempty" mapstructure:"keep_days"`
}

// Default returns the configuration written by `preserve init`.
func Default() Config {
	return Config{
		IssuesFile:      filepath.Join("resources", "test_data.json"),
		IssuesDir:       "ISSUES",
		ExpectedLogsDir: filepath.Join("resources", "expected_logs"),
		Minimizer: MinimizerConfig{
			Dir: "specimin",
			Cmd: []string{"./gradlew", "run"},
		},
		Checker: CheckerConfig{
			Jar: filepath.Join("checker-framework", "checker", "dist", "checker.jar"),
		},
		JDKs:        map[string]string{},
		Concurrency: 1,
		Timeouts: Timeouts{
			Minimizer: 30 * time.Minute,
			Build:     10 * time.Minute,
		},
		Patterns:  DefaultPatterns(),
		Retention: RetentionPolicy{KeepLast: 50, KeepDays: 30},
	}
}

// DefaultPatterns holds the pattern sets used when an issue names none.
func DefaultPatterns() map[string]oracle.Patterns {
	fileAndKey := oracle.Patterns{
		File:  `^(\S+\.java):\d+: error:`,
		Error: `: error: \[([\w.-]+)\]`,
	}
	return map[string]oracle.Patterns{
		string(oracle.BugError): fileAndKey,
		string(oracle.BugFalsePositive): fileAndKey.Merge(oracle.Patterns{
			Found:    `^\s*found\s*:\s*(.+?)\s*$`,
			Required: `^\s*required\s*:\s*(.+?)\s*$`,
		}),
		string(oracle.BugSemiCrash): {
			File:   `^(\S+\.java):\d+: error:`,
			Reason: `unexpected Throwable \((\w+)\)`,
		},
	}
}

// JavaHome returns the JAVA_HOME configured for a JDK version, or empty.
func (c Config) JavaHome(version string) string {
	if version == "" {
		return ""
	}
	return c.JDKs[version]
}

// Validate checks invariants the schema cannot express.
func (c Config) Validate() error {
	if c.IssuesDir == "" {
		return fmt.Errorf("issues_dir is required")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0")
	}
	for bugType, p := range c.Patterns {
		if _, err := oracle.ParseBugType(bugType); err != nil {
			return fmt.Errorf("patterns: %w", err)
		}
		if _, err := oracle.CompilePatterns(p); err != nil {
			return fmt.Errorf("patterns.%s: %w", bugType, err)
		}
	}
	return nil
}
