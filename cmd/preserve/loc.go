package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/metalagman/preserve/internal/evaluation"
	"github.com/metalagman/preserve/internal/git"
	"github.com/metalagman/preserve/internal/issue"
	"github.com/metalagman/preserve/internal/loc"
	"github.com/spf13/cobra"
)

func locCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "loc [issue-id...]",
		Short: "Compare lines of code of hand-written and automatic minimizations",
		Long:  "Count Java lines with scc in each issue's hand-minimized test case and in the minimizer output.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			all, err := issue.Load(cfg.IssuesFile)
			if err != nil {
				return err
			}
			issues, err := issue.Select(all, args)
			if err != nil {
				return err
			}

			comparisons := make([]loc.Comparison, 0, len(issues))
			for _, it := range issues {
				repo := git.RepositoryName(it.URL)
				comparisons = append(comparisons, loc.Compare(cmd.Context(), loc.CountJava, it.ID, evaluation.IssueDir(cfg.IssuesDir, it.ID), repo))
			}
			fmt.Fprint(cmd.OutOrStdout(), locTable(comparisons))
			return nil
		},
	}
}

func locTable(cs []loc.Comparison) string {
	count := func(n int, err error) string {
		if err != nil {
			return "-"
		}
		return strconv.Itoa(n)
	}
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{c.IssueID, c.Repo, count(c.Hand, c.HandErr), count(c.Minimized, c.MinErr)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ISSUE", "REPO", "HAND", "MINIMIZED").
		Rows(rows...)

	hand, minimized, n := loc.Averages(cs)
	if n == 0 {
		return t.String() + "\nno issue has both counts\n"
	}
	return t.String() + fmt.Sprintf("\naverage over %d issues: hand %.1f, minimized %.1f\n", n, hand, minimized)
}
