package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/metalagman/preserve/internal/model"
)

// Markdown renders the report as a Markdown document.
func Markdown(d Data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Evaluation run %s\n\n", d.RunID)
	fmt.Fprintf(&b, "- Issues: %d\n", d.Summary.Total)
	fmt.Fprintf(&b, "- Minimized: %d (%s)\n", d.Summary.Minimized, rate(d.Summary.Minimized, d.Summary.Total))
	fmt.Fprintf(&b, "- Preserved: %d (%s)\n", d.Summary.Preserved, rate(d.Summary.Preserved, d.Summary.Total))
	if d.Summary.Errors > 0 {
		fmt.Fprintf(&b, "- Configuration errors: %d\n", d.Summary.Errors)
	}
	if len(d.Results) == 0 {
		return b.String()
	}

	b.WriteString("\n| Issue | Status | Reason | Preservation | Preservation Reason | Duration |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, res := range d.Results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			cell(res.IssueID),
			res.Verdict.Status,
			cell(res.Verdict.FailReason),
			orDash(res.Verdict.Preservation),
			cell(res.Verdict.PreservationReason),
			res.Duration.Round(time.Second))
	}
	return b.String()
}

// RenderMarkdown renders Markdown for the terminal. Style is a glamour
// standard style name such as "dark", "light" or "notty"; width <= 0 keeps
// glamour's default wrapping.
func RenderMarkdown(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func orDash(s model.Status) string {
	if s == "" {
		return "-"
	}
	return string(s)
}
