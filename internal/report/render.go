package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/agentx-labs/agentq/internal/errs"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format names an output rendering of a Report.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatTable    Format = "table"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatMarkdown, FormatHTML, FormatTable}

var printer = message.NewPrinter(language.English)

// ParseFormat accepts a format name or a common alias ("md").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "table", "":
		return FormatTable, nil
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", errs.Newf(errs.KindValidation, "unknown report format %q (want %s)", s, strings.Join(names, ", "))
}

// Extension returns the file extension used when writing f to a directory.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	default:
		return ".txt"
	}
}

// Render writes r to w in format f.
func Render(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatJSON:
		return JSON(w, r)
	case FormatMarkdown:
		return Markdown(w, r)
	case FormatHTML:
		return HTML(w, r)
	case FormatTable:
		return Table(w, r)
	}
	return fmt.Errorf("rendering report: unknown format %q", f)
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// tierLabel renders "needs-work" as "Needs-Work".
func tierLabel(name string) string {
	return cases.Title(language.English).String(name)
}

func score(v float64) string {
	return printer.Sprintf("%.1f", v)
}

func tierRange(t TierCount, last bool) string {
	closing := ")"
	if last {
		closing = "]"
	}
	return printer.Sprintf("[%v, %v%s", t.Min, t.Max, closing)
}
