package report

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/metalagman/preserve/internal/model"
)

var (
	colorPass   = lipgloss.Color("#2CD7C7")
	colorFail   = lipgloss.Color("#E74C3C")
	colorError  = lipgloss.Color("#F4D03F")
	colorBorder = lipgloss.Color("#2C4A54")

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPass)
)

func statusStyle(s model.Status) lipgloss.Style {
	switch s {
	case model.StatusPass:
		return cellStyle.Foreground(colorPass)
	case model.StatusFail:
		return cellStyle.Foreground(colorFail)
	case model.StatusError:
		return cellStyle.Foreground(colorError)
	default:
		return cellStyle
	}
}

// Table renders the results as a terminal table followed by a summary line.
func Table(d Data) string {
	rows := make([][]string, 0, len(d.Results))
	for _, res := range d.Results {
		rows = append(rows, []string{
			res.IssueID,
			string(res.Verdict.Status),
			res.Verdict.FailReason,
			orDash(res.Verdict.Preservation),
			res.Verdict.PreservationReason,
			res.Duration.Round(time.Second).String(),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("ISSUE", "STATUS", "REASON", "PRESERVATION", "PRESERVATION REASON", "DURATION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case 1:
				return statusStyle(d.Results[row].Verdict.Status)
			case 3:
				return statusStyle(d.Results[row].Verdict.Preservation)
			}
			return cellStyle
		})

	summary := fmt.Sprintf("%d/%d minimized, %d/%d preserved",
		d.Summary.Minimized, d.Summary.Total, d.Summary.Preserved, d.Summary.Total)
	if d.Summary.Errors > 0 {
		summary += fmt.Sprintf(", %d configuration errors", d.Summary.Errors)
	}
	return t.String() + "\n" + titleStyle.Render(summary) + "\n"
}
