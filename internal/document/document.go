package document

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agentx-labs/agentq/internal/errs"
	"go.yaml.in/yaml/v3"
)

// Marker is the line that opens and closes a frontmatter block.
const Marker = "---"

// ErrUnclosedFrontmatter is recorded when the opening marker has no match.
var ErrUnclosedFrontmatter = errors.New("frontmatter block is not closed")

// Document is one markdown template read from disk. It is never mutated
// after Parse; an edit produces a new Document.
type Document struct {
	ID   string // path relative to the library root, slash separated, no extension
	Path string
	Raw  []byte
	Hash string

	// HasFrontmatter reports whether the text opens with a marker line.
	HasFrontmatter bool
	// FrontmatterErr is set when the block is present but cannot be decoded.
	FrontmatterErr error
	Frontmatter    map[string]any

	Body string
}

// Heading is a markdown ATX heading found in the body.
type Heading struct {
	Level int
	Text  string
	Line  int // 1-based line within the body
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

// Hash returns the stable content digest used to bind scores and version
// records to an exact byte sequence.
func Hash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Parse splits raw into frontmatter and body. Decoding failures are kept on
// the document rather than returned, so one bad header never stops a scan.
func Parse(id string, raw []byte) *Document {
	doc := &Document{
		ID:   id,
		Raw:  raw,
		Hash: Hash(raw),
	}

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t\n") != Marker {
		doc.Body = text
		return doc
	}
	doc.HasFrontmatter = true

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t\n") == Marker {
			closing = i
			break
		}
	}
	if closing < 0 {
		doc.FrontmatterErr = ErrUnclosedFrontmatter
		doc.Body = text
		return doc
	}

	doc.Body = strings.Join(lines[closing+1:], "")

	block := strings.Join(lines[1:closing], "")
	fm := map[string]any{}
	if strings.TrimSpace(block) != "" {
		var node any
		if err := yaml.Unmarshal([]byte(block), &node); err != nil {
			doc.FrontmatterErr = err
			return doc
		}
		m, ok := node.(map[string]any)
		if !ok {
			doc.FrontmatterErr = fmt.Errorf("frontmatter is a %T, not a key/value mapping", node)
			return doc
		}
		fm = m
	}
	doc.Frontmatter = fm
	return doc
}

// Read loads the file at path and parses it. The identifier is derived from
// the path relative to root.
func Read(root, path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FromFS(err, "reading document", path)
	}
	doc := Parse(IDFor(root, path), raw)
	doc.Path = path
	return doc, nil
}

// IDFor returns the document identifier for path under root: the relative
// path, slash separated, without extension. Both sides are made absolute
// first so a relative root and an absolute path agree. A path outside root
// is identified by its absolute path, which never collides with an id
// inside the library.
func IDFor(root, path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = filepath.Clean(path)
	}
	id := absPath
	if absRoot, err := filepath.Abs(root); err == nil {
		if rel, err := filepath.Rel(absRoot, absPath); err == nil && !outside(rel) {
			id = rel
		}
	}
	id = filepath.ToSlash(id)
	return strings.TrimSuffix(id, filepath.Ext(id))
}

func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// value looks a key up case-insensitively.
func (d *Document) value(key string) (any, bool) {
	if d.Frontmatter == nil {
		return nil, false
	}
	if v, ok := d.Frontmatter[key]; ok {
		return v, true
	}
	for k, v := range d.Frontmatter {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Field returns a frontmatter scalar as a trimmed string. Maps, sequences
// and null values report ok=false.
func (d *Document) Field(key string) (string, bool) {
	v, ok := d.value(key)
	if !ok || v == nil {
		return "", false
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

// List returns a frontmatter sequence. Missing keys and non-sequences report ok=false.
func (d *Document) List(key string) ([]any, bool) {
	v, ok := d.value(key)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	return items, ok
}

// Headings returns every ATX heading in the body, skipping fenced code.
func (d *Document) Headings() []Heading {
	var out []Heading
	for i, line := range BodyLines(d.Body) {
		if line.Fenced {
			continue
		}
		m := headingRe.FindStringSubmatch(line.Text)
		if m == nil {
			continue
		}
		out = append(out, Heading{Level: len(m[1]), Text: m[2], Line: i + 1})
	}
	return out
}

// Line is one body line annotated with whether it sits inside a fenced
// code block (fence lines themselves count as fenced).
type Line struct {
	Text   string
	Fenced bool
}

// BodyLines splits text into lines and tracks ``` and ~~~ fences.
func BodyLines(text string) []Line {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]Line, 0, len(raw))
	fence := ""
	for _, l := range raw {
		trimmed := strings.TrimSpace(l)
		switch {
		case fence == "" && (strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")):
			fence = trimmed[:3]
			out = append(out, Line{Text: l, Fenced: true})
		case fence != "" && strings.HasPrefix(trimmed, fence):
			fence = ""
			out = append(out, Line{Text: l, Fenced: true})
		default:
			out = append(out, Line{Text: l, Fenced: fence != ""})
		}
	}
	return out
}
