package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentx-labs/agentq/internal/document"
	"github.com/agentx-labs/agentq/internal/errs"
)

// Template is one markdown template found in a library, enriched with
// frontmatter metadata when the block parses.
type Template struct {
	ID          string // e.g. "review/code-reviewer"
	Path        string
	Name        string // frontmatter name, or the file base name
	Description string
	Model       string
}

// Discover walks root and returns every template sorted by id. Hidden
// directories and README files are skipped; unreadable entries are
// ignored so one bad file never stops a scan.
func Discover(root string) ([]Template, error) {
	paths, err := walk(root)
	if err != nil {
		return nil, err
	}
	result := make([]Template, 0, len(paths))
	for _, path := range paths {
		t := Template{
			ID:   document.IDFor(root, path),
			Path: path,
			Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		}
		if doc, err := document.Read(root, path); err == nil && doc.FrontmatterErr == nil {
			if v, ok := doc.Field("name"); ok && v != "" {
				t.Name = v
			}
			t.Description, _ = doc.Field("description")
			t.Model, _ = doc.Field("model")
		}
		result = append(result, t)
	}
	return result, nil
}

// Load reads every template under root.
func Load(root string) ([]*document.Document, error) {
	paths, err := walk(root)
	if err != nil {
		return nil, err
	}
	docs := make([]*document.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := document.Read(root, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Resolve expands command arguments into template paths. Directories are
// walked; files are taken as given. With no arguments the library root
// itself is walked.
func Resolve(root string, args []string) ([]string, error) {
	if len(args) == 0 {
		return walk(root)
	}
	var out []string
	seen := map[string]bool{}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errs.FromFS(err, "resolving template", arg)
		}
		var paths []string
		if info.IsDir() {
			if paths, err = walk(arg); err != nil {
				return nil, err
			}
		} else {
			paths = []string{arg}
		}
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// IsTemplate reports whether path names a file Discover would return.
func IsTemplate(path string) bool {
	name := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(name), ".md") {
		return false
	}
	if strings.EqualFold(name, "README.md") || strings.HasPrefix(name, ".") {
		return false
	}
	return true
}

// IsHiddenDir reports whether a directory entry should be skipped.
func IsHiddenDir(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

// walk returns the template paths under root sorted by document id.
func walk(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errs.FromFS(err, "opening library", root)
	}
	if !info.IsDir() {
		return nil, errs.Newf(errs.KindValidation, "library %s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if d.IsDir() {
			if path != root && IsHiddenDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsTemplate(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errs.IO(err, "walking library", root)
	}
	sort.Slice(paths, func(i, j int) bool {
		return document.IDFor(root, paths[i]) < document.IDFor(root, paths[j])
	})
	return paths, nil
}
