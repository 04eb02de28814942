package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metalagman/preserve/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"duration": func(d time.Duration) string { return d.Round(time.Second).String() },
	"rate":     rate,
	"statusClass": func(s model.Status) string {
		return strings.ToLower(string(s))
	},
}

var reportTmpl = template.Must(template.New("report.html").Funcs(funcs).ParseFS(templatesFS, "templates/report.html"))

type htmlRow struct {
	model.Result
	LogLink string
}

type htmlPage struct {
	Data
	Rows []htmlRow
}

// WriteHTML renders the report. Log links are made relative to baseDir, the
// directory the HTML file will live in.
func WriteHTML(w io.Writer, d Data, baseDir string) error {
	page := htmlPage{Data: d, Rows: make([]htmlRow, 0, len(d.Results))}
	for _, res := range d.Results {
		row := htmlRow{Result: res, LogLink: res.LogPath}
		if res.LogPath != "" && baseDir != "" {
			if rel, err := filepath.Rel(baseDir, res.LogPath); err == nil {
				row.LogLink = filepath.ToSlash(rel)
			}
		}
		page.Rows = append(page.Rows, row)
	}
	if err := reportTmpl.Execute(w, page); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

// WriteHTMLFile writes the report to path.
func WriteHTMLFile(path string, d Data) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cErr)
		}
	}()
	return WriteHTML(f, d, filepath.Dir(path))
}
