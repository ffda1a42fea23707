package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numStyle    = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

	tierStyles = map[string]lipgloss.Style{
		"poor":       lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		"needs-work": lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")),
		"fair":       lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
		"good":       lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		"excellent":  lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
	}
)

// Table writes a styled terminal summary: one row per document followed
// by the tier counts and rankings.
func Table(w io.Writer, r Report) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Agent Quality Report"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(printer.Sprintf("%d documents, overall %s, policy %s", r.Documents, score(r.Overall), r.Policy)))
	b.WriteString("\n\n")

	headers := append([]string{"Document", "Version"}, r.Dimensions...)
	headers = append(headers, "Overall", "Tier")
	rows := make([][]string, 0, len(r.Entries)+1)
	for _, e := range r.Entries {
		version := e.Version
		if version == "" {
			version = "-"
		}
		row := []string{e.ID, version}
		for _, d := range r.Dimensions {
			row = append(row, score(e.Score.Dimension(d)))
		}
		row = append(row, score(e.Score.Overall), tierLabel(e.Tier))
		rows = append(rows, row)
	}
	avg := []string{"average", ""}
	for _, d := range r.Dimensions {
		avg = append(avg, score(r.Averages[d]))
	}
	avg = append(avg, score(r.Overall), "")
	rows = append(rows, avg)

	tierCol := len(headers) - 1
	entries := r.Entries
	docs := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == len(entries):
				return headerStyle
			case col == tierCol:
				if s, ok := tierStyles[entries[row].Tier]; ok {
					return s.Padding(0, 1)
				}
				return cellStyle
			case col >= 2:
				return numStyle
			}
			return cellStyle
		})
	b.WriteString(docs.Render())
	b.WriteString("\n\n")

	tiers := make([]string, 0, len(r.Tiers))
	for _, t := range r.Tiers {
		style, ok := tierStyles[t.Name]
		if !ok {
			style = cellStyle
		}
		tiers = append(tiers, style.Render(fmt.Sprintf("%s %d", tierLabel(t.Name), t.Count)))
	}
	b.WriteString(strings.Join(tiers, mutedStyle.Render("  ·  ")))
	b.WriteString("\n")

	writePlainTallies(&b, "Top issues", r.TopIssues)
	writePlainTallies(&b, "Top strengths", r.TopStrengths)

	_, err := io.WriteString(w, b.String())
	return err
}

func writePlainTallies(b *strings.Builder, title string, tallies []Tally) {
	if len(tallies) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	for _, t := range tallies {
		b.WriteString(printer.Sprintf("  %3d  %s\n", t.Count, t.Text))
	}
}
