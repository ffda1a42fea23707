package fixer

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/agentx-labs/agentq/internal/document"
	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/platform"
	"github.com/agentx-labs/agentq/internal/quality"
)

//go:embed templates/section.md.tmpl
var templateFS embed.FS

// BackupSuffix is appended to a file name for its pre-fix copy.
const BackupSuffix = ".bak"

// SectionData holds the variables available to the section template.
type SectionData struct {
	Heading string // e.g. "Error Handling"
	Name    string // frontmatter name, or the document id
}

// Options controls how FixFile writes.
type Options struct {
	DryRun bool // report what would change without writing
	Backup bool // keep a .bak copy of the original
}

// Result holds the outcome of fixing one document.
type Result struct {
	Path     string
	ID       string
	Inserted []string // headings appended, in policy order
	Backup   string   // backup path, empty when none was written
	Output   []byte   // the fixed content
}

// Changed reports whether any section was inserted.
func (r Result) Changed() bool { return len(r.Inserted) > 0 }

type requiredSection struct {
	heading string
	re      *regexp.Regexp
}

// Fixer appends missing required sections to templates.
type Fixer struct {
	sections []requiredSection
	tmpl     *template.Template
}

// New builds a fixer for every heading check in p.
func New(p quality.Policy) (*Fixer, error) {
	tmpl, err := template.New("section.md.tmpl").
		Funcs(template.FuncMap{"lower": strings.ToLower}).
		ParseFS(templateFS, "templates/section.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing section template: %w", err)
	}

	f := &Fixer{tmpl: tmpl}
	headings := p.RequiredHeadings()
	for _, d := range p.Dimensions {
		for _, c := range d.Checks {
			if c.Kind != quality.KindHeading {
				continue
			}
			re, err := regexp.Compile(quality.HeadingPattern(c.Target))
			if err != nil {
				return nil, errs.Parse(err, fmt.Sprintf("compiling heading %q", c.Target), "")
			}
			f.sections = append(f.sections, requiredSection{heading: headings[len(f.sections)], re: re})
		}
	}
	return f, nil
}

// Missing returns the required headings doc does not have.
func (f *Fixer) Missing(doc *document.Document) []string {
	headings := doc.Headings()
	var missing []string
	for _, s := range f.sections {
		found := false
		for _, h := range headings {
			if s.re.MatchString(h.Text) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, s.heading)
		}
	}
	return missing
}

// Apply returns doc's content with every missing section appended. The
// existing bytes, frontmatter included, are kept unchanged as a prefix, and
// appended text uses CRLF line endings when the document does.
func (f *Fixer) Apply(doc *document.Document) ([]byte, []string, error) {
	missing := f.Missing(doc)
	if len(missing) == 0 {
		return doc.Raw, nil, nil
	}

	name := doc.ID
	if v, ok := doc.Field("name"); ok {
		name = v
	}

	var sections bytes.Buffer
	if len(doc.Raw) > 0 && !bytes.HasSuffix(doc.Raw, []byte("\n")) {
		sections.WriteByte('\n')
	}
	for _, heading := range missing {
		if len(doc.Raw) > 0 || sections.Len() > 0 {
			sections.WriteByte('\n')
		}
		if err := f.tmpl.Execute(&sections, SectionData{Heading: heading, Name: name}); err != nil {
			return nil, nil, fmt.Errorf("rendering section %q: %w", heading, err)
		}
	}

	added := sections.Bytes()
	if bytes.Contains(doc.Raw, []byte("\r\n")) {
		added = bytes.ReplaceAll(added, []byte("\n"), []byte("\r\n"))
	}
	out := make([]byte, 0, len(doc.Raw)+len(added))
	out = append(out, doc.Raw...)
	return append(out, added...), missing, nil
}

// FixFile reads path, appends missing sections and writes the result in
// place. A document with nothing missing is left untouched.
func (f *Fixer) FixFile(root, path string, opts Options) (Result, error) {
	doc, err := document.Read(root, path)
	if err != nil {
		return Result{}, errs.WithOp(err, "fix")
	}
	out, inserted, err := f.Apply(doc)
	if err != nil {
		return Result{}, err
	}
	res := Result{Path: path, ID: doc.ID, Inserted: inserted, Output: out}
	if !res.Changed() || opts.DryRun {
		return res, nil
	}

	if opts.Backup {
		res.Backup = path + BackupSuffix
		if err := platform.CopyFile(path, res.Backup); err != nil {
			return Result{}, errs.IO(err, "writing backup", res.Backup)
		}
	}
	if err := platform.WriteFileAtomic(path, out, 0644); err != nil {
		return Result{}, errs.IO(err, "writing fixed template", path)
	}
	return res, nil
}

// HasBackup reports whether path has a backup from a previous fix.
func HasBackup(path string) bool {
	_, err := os.Stat(path + BackupSuffix)
	return err == nil
}
