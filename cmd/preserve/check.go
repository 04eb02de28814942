package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/metalagman/preserve/internal/config"
	"github.com/metalagman/preserve/internal/model"
	"github.com/metalagman/preserve/internal/oracle"
	"github.com/spf13/cobra"
)

// errNotPreserved makes check exit non-zero without printing twice.
var errNotPreserved = errors.New("diagnostic not preserved")

func checkCmd(opts *rootOptions) *cobra.Command {
	var (
		expectedPath string
		actualPath   string
		bugType      string
		requireStack bool
		patterns     oracle.Patterns
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare an expected and an actual log with the preservation oracle",
		Long: "Compare two analysis logs. Crash bugs compare crash signatures; other bug types compare values captured by patterns. " +
			"Pattern bug types without pattern flags use the configured defaults, or the built-in ones when no config exists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			expected, err := os.ReadFile(expectedPath)
			if err != nil {
				return fmt.Errorf("read expected log: %w", err)
			}
			actual, err := os.ReadFile(actualPath)
			if err != nil {
				return fmt.Errorf("read actual log: %w", err)
			}

			p := patterns
			if p.IsZero() && bugType != string(oracle.BugCrash) {
				p = defaultPatterns(opts)[bugType]
			}
			d, err := oracle.NewDescriptor(bugType, requireStack, p)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", model.StatusError, err)
				return errNotPreserved
			}

			status, reason := oracle.Judge(string(expected), string(actual), d)
			if status == model.StatusPass {
				fmt.Fprintln(cmd.OutOrStdout(), status)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", status, reason)
			return errNotPreserved
		},
	}
	cmd.Flags().StringVar(&expectedPath, "expected", "", "log of the original program")
	cmd.Flags().StringVar(&actualPath, "actual", "", "log of the minimized program")
	cmd.Flags().StringVar(&bugType, "bug-type", string(oracle.BugCrash), "crash, error, false_positive, semi_crash or other")
	cmd.Flags().BoolVar(&requireStack, "require-stack", false, "crash signatures must also match stack frames")
	cmd.Flags().StringVar(&patterns.File, "file-pattern", "", "regex capturing the source file")
	cmd.Flags().StringVar(&patterns.Error, "error-pattern", "", "regex capturing the error key")
	cmd.Flags().StringVar(&patterns.Source, "source-pattern", "", "regex capturing the offending source")
	cmd.Flags().StringVar(&patterns.Reason, "reason-pattern", "", "regex capturing the reason")
	cmd.Flags().StringVar(&patterns.Found, "found-pattern", "", "regex capturing the found type")
	cmd.Flags().StringVar(&patterns.Required, "required-pattern", "", "regex capturing the required type")
	_ = cmd.MarkFlagRequired("expected")
	_ = cmd.MarkFlagRequired("actual")
	return cmd
}

func defaultPatterns(opts *rootOptions) map[string]oracle.Patterns {
	if _, err := os.Stat(opts.configPath); err != nil {
		return config.DefaultPatterns()
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return config.DefaultPatterns()
	}
	return cfg.Patterns
}
