package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/metalagman/preserve/internal/db"
	"github.com/metalagman/preserve/internal/report"
	"github.com/spf13/cobra"
)

func reportCmd(_ *rootOptions) *cobra.Command {
	var (
		format string
		output string
		style  string
		width  int
	)
	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Show the results of a run (the latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, _, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()
			store := db.NewStore(storeDB)

			var run db.RunRecord
			if len(args) == 1 {
				run, err = store.GetRun(cmd.Context(), args[0])
			} else {
				run, err = store.LatestRun(cmd.Context())
			}
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("no such run")
			}
			if err != nil {
				return err
			}
			results, err := store.Results(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			data := report.New(run.ID, results)
			if !run.FinishedAt.IsZero() {
				data.GeneratedAt = run.FinishedAt
			}

			switch format {
			case "html":
				if output != "" {
					return report.WriteHTMLFile(output, data)
				}
				return report.WriteHTML(cmd.OutOrStdout(), data, "")
			case "json":
				if output != "" {
					return report.WriteJSONFile(output, data)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(data)
			case "markdown":
				md := report.Markdown(data)
				if output != "" {
					return os.WriteFile(output, []byte(md), 0o644)
				}
				out, err := report.RenderMarkdown(md, style, width)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			case "table":
				fmt.Fprint(cmd.OutOrStdout(), report.Table(data))
				return nil
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "markdown", "output format: markdown, table, html or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&style, "style", "auto", "markdown style: auto, dark, light or notty")
	cmd.Flags().IntVar(&width, "width", 0, "markdown word wrap width")
	return cmd
}
