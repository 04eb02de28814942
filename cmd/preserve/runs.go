package main

import (
	"fmt"
	"path/filepath"

	"github.com/metalagman/preserve/internal/config"
	"github.com/metalagman/preserve/internal/db"
	"github.com/metalagman/preserve/internal/evaluation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func runsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage evaluation runs",
	}
	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsPruneCmd(opts))
	return cmd
}

func runsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, _, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			runs, err := db.NewStore(storeDB).ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d issues\t%d minimized\t%d preserved\n",
					run.ID, run.Status, run.IssueCount, run.Minimized, run.Preserved)
			}
			return nil
		},
	}
}

func runsPruneCmd(opts *rootOptions) *cobra.Command {
	var keepLast int
	var keepDays int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Prune old runs from disk and database",
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, dir, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			policy := config.RetentionPolicy{KeepLast: keepLast, KeepDays: keepDays}
			if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				policy = cfg.Retention
			}
			if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
				return fmt.Errorf("set --keep-last or --keep-days (or configure retention in %s)", opts.configPath)
			}

			lock, err := evaluation.AcquireLock(dir)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			res, err := evaluation.PruneRuns(cmd.Context(), storeDB, filepath.Join(dir, "runs"), policy, dryRun)
			if err != nil {
				return err
			}
			mode := "deleted"
			if dryRun {
				mode = "would delete"
			}
			log.Info().Msgf("%s %d runs (kept %d, skipped %d)", mode, res.Deleted, res.Kept, res.Skipped)
			return nil
		},
	}
	cmd.Flags().IntVar(&keepLast, "keep-last", 0, "keep the newest N runs")
	cmd.Flags().IntVar(&keepDays, "keep-days", 0, "keep runs newer than N days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be pruned without deleting")
	return cmd
}
