package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var (
	htmlOnce sync.Once
	htmlTmpl *template.Template
	htmlErr  error
)

type htmlData struct {
	Title       string
	Generated   string
	Report      Report
	TrendLabels []string
	TrendValues []float64
}

func htmlTemplate() (*template.Template, error) {
	htmlOnce.Do(func() {
		htmlTmpl, htmlErr = template.New("report.html.tmpl").Funcs(template.FuncMap{
			"score":  score,
			"tier":   tierLabel,
			"bounds": tierRange,
			"last":   func(i int, tiers []TierCount) bool { return i == len(tiers)-1 },
		}).ParseFS(templateFS, "templates/report.html.tmpl")
	})
	return htmlTmpl, htmlErr
}

// HTML writes a standalone dashboard page. When the report carries trend
// points a line chart of the corpus average is included.
func HTML(w io.Writer, r Report) error {
	t, err := htmlTemplate()
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}
	data := htmlData{
		Title:     "Agent Quality Report",
		Generated: r.GeneratedAt.Format("2006-01-02 15:04 MST"),
		Report:    r,
	}
	for _, p := range r.Trend {
		data.TrendLabels = append(data.TrendLabels, p.Date)
		data.TrendValues = append(data.TrendValues, p.Average)
	}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}
