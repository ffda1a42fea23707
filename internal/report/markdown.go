package report

import (
	"fmt"
	"io"
	"strings"
)

// Markdown writes a human-readable summary with tables.
func Markdown(w io.Writer, r Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Agent Quality Report\n\n")
	fmt.Fprintf(&b, "Generated %s with policy `%s`.\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"), r.Policy)
	b.WriteString(printer.Sprintf("**%d documents**, overall average **%s**.\n\n", r.Documents, score(r.Overall)))

	b.WriteString("## Averages\n\n| Dimension | Average |\n|---|---:|\n")
	for _, d := range r.Dimensions {
		fmt.Fprintf(&b, "| %s | %s |\n", d, score(r.Averages[d]))
	}
	fmt.Fprintf(&b, "| **overall** | **%s** |\n\n", score(r.Overall))

	b.WriteString("## Tiers\n\n| Tier | Range | Documents |\n|---|---|---:|\n")
	for i, t := range r.Tiers {
		b.WriteString(printer.Sprintf("| %s | %s | %d |\n", tierLabel(t.Name), tierRange(t, i == len(r.Tiers)-1), t.Count))
	}
	b.WriteString("\n")

	writeTallies(&b, "Top Issues", r.TopIssues)
	writeTallies(&b, "Top Strengths", r.TopStrengths)

	if len(r.Entries) > 0 {
		b.WriteString("## Documents\n\n| Document | Version |")
		for _, d := range r.Dimensions {
			fmt.Fprintf(&b, " %s |", d)
		}
		b.WriteString(" Overall | Tier |\n|---|---|")
		for range r.Dimensions {
			b.WriteString("---:|")
		}
		b.WriteString("---:|---|\n")
		for _, e := range r.Entries {
			version := e.Version
			if version == "" {
				version = "-"
			}
			fmt.Fprintf(&b, "| %s | %s |", escapeCell(e.ID), version)
			for _, d := range r.Dimensions {
				fmt.Fprintf(&b, " %s |", score(e.Score.Dimension(d)))
			}
			fmt.Fprintf(&b, " %s | %s |\n", score(e.Score.Overall), tierLabel(e.Tier))
		}
		b.WriteString("\n")
	}

	if len(r.Trend) > 0 {
		b.WriteString("## Trend\n\n| Date | Average | Documents |\n|---|---:|---:|\n")
		for _, p := range r.Trend {
			b.WriteString(printer.Sprintf("| %s | %s | %d |\n", p.Date, score(p.Average), p.Documents))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTallies(b *strings.Builder, title string, tallies []Tally) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(tallies) == 0 {
		b.WriteString("_None._\n\n")
		return
	}
	for i, t := range tallies {
		b.WriteString(printer.Sprintf("%d. %s (%d)\n", i+1, escapeCell(t.Text), t.Count))
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
