package main

import (
	"fmt"
	"path/filepath"

	"github.com/metalagman/preserve/internal/db"
	"github.com/metalagman/preserve/internal/evaluation"
	"github.com/metalagman/preserve/internal/issue"
	"github.com/metalagman/preserve/internal/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func runCmd(opts *rootOptions) *cobra.Command {
	var (
		issuesFile  string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "run [issue-id...]",
		Short: "Minimize the issues and judge whether each defect is preserved",
		Long:  "Run the minimizer on every issue (or the given ones), rebuild the minimized programs and compare their logs with the expected logs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if issuesFile != "" {
				cfg.IssuesFile = issuesFile
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}

			all, err := issue.Load(cfg.IssuesFile)
			if err != nil {
				return err
			}
			issues, err := issue.Select(all, args)
			if err != nil {
				return err
			}

			storeDB, dir, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			runner := evaluation.NewRunner(dir, cfg, db.NewStore(storeDB), evaluation.DefaultSteps())
			rep, err := runner.Run(cmd.Context(), issues)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			data := report.New(rep.RunID, rep.Results)
			if err := report.WriteJSONFile(filepath.Join(rep.RunDir, report.JSONFileName), data); err != nil {
				return err
			}
			htmlPath := filepath.Join(cfg.IssuesDir, report.HTMLFileName)
			if err := report.WriteHTMLFile(htmlPath, data); err != nil {
				return err
			}
			log.Info().Str("path", htmlPath).Msg("html report written")

			fmt.Fprint(cmd.OutOrStdout(), report.Table(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&issuesFile, "issues", "", "issues file (overrides issues_file)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "issues evaluated in parallel (overrides concurrency)")
	return cmd
}
