package links

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agentx-labs/agentq/internal/document"
)

var (
	linkRe          = regexp.MustCompile(`!?\[([^\]]*)\]\(\s*<?([^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)
	codeSpanRe      = regexp.MustCompile("`[^`]*`")
	externalSchemes = map[string]bool{"http": true, "https": true, "mailto": true}
)

// Link is one inline markdown link.
type Link struct {
	Text   string
	Target string
	Line   int // 1-based line within the body
}

// Broken is a link that does not resolve.
type Broken struct {
	Link
	Reason string
}

func (b Broken) String() string {
	return fmt.Sprintf("line %d: %s (%s)", b.Line, b.Target, b.Reason)
}

// Result lists the links of one document and those that are broken.
type Result struct {
	ID     string
	Path   string
	Links  int
	Broken []Broken
}

// Extract returns the inline links of doc's body, skipping fenced code and
// code spans.
func Extract(doc *document.Document) []Link {
	var out []Link
	for i, line := range document.BodyLines(doc.Body) {
		if line.Fenced {
			continue
		}
		text := codeSpanRe.ReplaceAllString(line.Text, "")
		for _, m := range linkRe.FindAllStringSubmatch(text, -1) {
			out = append(out, Link{Text: m[1], Target: m[2], Line: i + 1})
		}
	}
	return out
}

// Slug converts heading text to a GitHub style anchor: lowercase, spaces
// become hyphens, and punctuation other than '-' and '_' is dropped.
func Slug(heading string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(heading)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Anchors returns the set of anchors doc's headings produce. Repeated
// headings get "-1", "-2" suffixes.
func Anchors(doc *document.Document) map[string]bool {
	set := map[string]bool{}
	counts := map[string]int{}
	for _, h := range doc.Headings() {
		slug := Slug(h.Text)
		if n := counts[slug]; n > 0 {
			set[fmt.Sprintf("%s-%d", slug, n)] = true
		} else {
			set[slug] = true
		}
		counts[slug]++
	}
	return set
}

// Checker validates links, caching the anchors of every markdown file it
// reads. A Checker is not safe for concurrent use.
type Checker struct {
	anchors map[string]map[string]bool
}

// NewChecker returns an empty checker.
func NewChecker() *Checker {
	return &Checker{anchors: map[string]map[string]bool{}}
}

// Check validates every link of doc. External links are only checked for
// syntax; relative targets must exist next to doc.Path; fragments must
// name a heading of the target markdown file.
func (c *Checker) Check(doc *document.Document) Result {
	res := Result{ID: doc.ID, Path: doc.Path}
	links := Extract(doc)
	res.Links = len(links)
	if doc.Path != "" {
		c.anchors[filepath.Clean(doc.Path)] = Anchors(doc)
	}
	for _, l := range links {
		if reason := c.check(doc, l.Target); reason != "" {
			res.Broken = append(res.Broken, Broken{Link: l, Reason: reason})
		}
	}
	return res
}

func (c *Checker) check(doc *document.Document, target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "malformed URL"
	}
	if u.Scheme != "" {
		if !externalSchemes[strings.ToLower(u.Scheme)] {
			return fmt.Sprintf("unsupported scheme %q", u.Scheme)
		}
		if u.Scheme != "mailto" && u.Host == "" {
			return "missing host"
		}
		return ""
	}

	if u.Path == "" {
		if u.Fragment == "" {
			return "empty link"
		}
		if !Anchors(doc)[strings.ToLower(u.Fragment)] {
			return fmt.Sprintf("no heading for #%s", u.Fragment)
		}
		return ""
	}

	if doc.Path == "" {
		return ""
	}
	resolved := filepath.Join(filepath.Dir(doc.Path), filepath.FromSlash(u.Path))
	info, err := os.Stat(resolved)
	if err != nil {
		return "file not found"
	}
	if u.Fragment == "" || info.IsDir() || !strings.EqualFold(filepath.Ext(resolved), ".md") {
		return ""
	}
	anchors, err := c.anchorsOf(resolved)
	if err != nil {
		return "unreadable target"
	}
	if !anchors[strings.ToLower(u.Fragment)] {
		return fmt.Sprintf("no heading for #%s in %s", u.Fragment, u.Path)
	}
	return ""
}

func (c *Checker) anchorsOf(path string) (map[string]bool, error) {
	path = filepath.Clean(path)
	if a, ok := c.anchors[path]; ok {
		return a, nil
	}
	doc, err := document.Read(filepath.Dir(path), path)
	if err != nil {
		return nil, err
	}
	a := Anchors(doc)
	c.anchors[path] = a
	return a, nil
}

// CheckAll validates every document and returns results sorted by id.
func CheckAll(docs []*document.Document) []Result {
	c := NewChecker()
	results := make([]Result, 0, len(docs))
	for _, d := range docs {
		results = append(results, c.Check(d))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

// Failures flattens results into one message per broken link.
func Failures(results []Result) []string {
	var out []string
	for _, r := range results {
		for _, b := range r.Broken {
			out = append(out, fmt.Sprintf("%s: %s", r.ID, b))
		}
	}
	return out
}
