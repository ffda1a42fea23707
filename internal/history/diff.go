package history

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agentx-labs/agentq/internal/document"
)

// maxSamples caps the example lines kept per Change.
const maxSamples = 3

var bulletLineRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)

// delta is the line level difference between two texts.
type delta struct {
	added   []string
	removed []string
}

// contentLines returns the non-blank lines of text with trailing space and
// CR removed.
func contentLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// diffLines treats both sides as sets: a line is added if it is absent
// from old, removed if it is absent from new. Order of first appearance is
// kept and duplicates are dropped.
func diffLines(oldLines, newLines []string) delta {
	oldSet := toSet(oldLines)
	newSet := toSet(newLines)
	var d delta
	seen := map[string]bool{}
	for _, l := range newLines {
		if !oldSet[l] && !seen[l] {
			seen[l] = true
			d.added = append(d.added, l)
		}
	}
	seen = map[string]bool{}
	for _, l := range oldLines {
		if !newSet[l] && !seen[l] {
			seen[l] = true
			d.removed = append(d.removed, l)
		}
	}
	return d
}

func toSet(lines []string) map[string]bool {
	set := make(map[string]bool, len(lines))
	for _, l := range lines {
		set[l] = true
	}
	return set
}

// headingSet returns the headings of text as the scorer sees them: body
// only, fenced code skipped, keyed by level and text.
func headingSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, h := range document.Parse("", []byte(text)).Headings() {
		set[fmt.Sprintf("%d %s", h.Level, h.Text)] = true
	}
	return set
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// classify picks the bump for a change from oldText to newText. Any change
// to the set of headings is major; more than bulletThreshold added
// list items is minor; anything else is a patch.
func classify(oldText, newText string, bulletThreshold int) (Bump, []Change) {
	oldLines := contentLines(oldText)
	newLines := contentLines(newText)
	d := diffLines(oldLines, newLines)

	var changes []Change
	if len(d.added) > 0 {
		changes = append(changes, Change{Kind: ChangeAddition, Count: len(d.added), Samples: samples(d.added)})
	}
	if len(d.removed) > 0 {
		changes = append(changes, Change{Kind: ChangeRemoval, Count: len(d.removed), Samples: samples(d.removed)})
	}

	if !sameSet(headingSet(oldText), headingSet(newText)) {
		return BumpMajor, changes
	}
	bullets := 0
	for _, l := range d.added {
		if bulletLineRe.MatchString(l) {
			bullets++
		}
	}
	if bullets > bulletThreshold {
		return BumpMinor, changes
	}
	return BumpPatch, changes
}

func samples(lines []string) []string {
	n := len(lines)
	if n == 0 {
		return nil
	}
	if n > maxSamples {
		n = maxSamples
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = strings.TrimSpace(lines[i])
	}
	return out
}
