package fixer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentx-labs/agentq/internal/document"
	"github.com/agentx-labs/agentq/internal/quality"
)

func newFixer(t *testing.T) *Fixer {
	t.Helper()
	f, err := New(quality.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func copyFixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("testdata", "partial.md"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "deployer.md")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestMissing(t *testing.T) {
	f := newFixer(t)
	doc := document.Parse("x", []byte("## Goal\n## Process\n## tools and integrations\n"))
	missing := f.Missing(doc)

	if len(missing) != 10 {
		t.Fatalf("Missing returned %d headings, want 10: %v", len(missing), missing)
	}
	for _, h := range []string{"Goal", "Workflow", "Tools"} {
		for _, m := range missing {
			if m == h {
				t.Errorf("%q reported missing", h)
			}
		}
	}
	if missing[0] != "Role" {
		t.Errorf("missing[0] = %q, want policy order starting at Role", missing[0])
	}
}

func TestApplyPreservesContent(t *testing.T) {
	f := newFixer(t)
	raw, err := os.ReadFile(filepath.Join("testdata", "partial.md"))
	if err != nil {
		t.Fatal(err)
	}
	doc := document.Parse("deployer", raw)

	out, inserted, err := f.Apply(doc)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !bytes.HasPrefix(out, raw) {
		t.Error("original content is not a prefix of the fixed output")
	}
	if len(inserted) != 11 {
		t.Errorf("inserted %d sections, want 11: %v", len(inserted), inserted)
	}
	if !strings.Contains(string(out), "## Error Handling\n\n<!-- TODO(deployer): describe the error handling of this agent. -->") {
		t.Errorf("section placeholder not rendered:\n%s", out)
	}

	fixed := document.Parse("deployer", out)
	if m := f.Missing(fixed); len(m) != 0 {
		t.Errorf("still missing after fix: %v", m)
	}
	if got := quality.MustDefaultScorer().Score(fixed).Dimension("sections"); got != 100 {
		t.Errorf("sections score after fix = %v, want 100", got)
	}
}

func TestApplyNothingMissing(t *testing.T) {
	f := newFixer(t)
	raw, err := os.ReadFile(filepath.Join("..", "quality", "testdata", "complete.md"))
	if err != nil {
		t.Fatal(err)
	}
	out, inserted, err := f.Apply(document.Parse("complete", raw))
	if err != nil {
		t.Fatal(err)
	}
	if len(inserted) != 0 || !bytes.Equal(out, raw) {
		t.Errorf("complete template was modified: %v", inserted)
	}
}

func TestApplyNoTrailingNewline(t *testing.T) {
	p := quality.Policy{
		Name:  "tiny",
		Tiers: quality.Default().Tiers,
		Dimensions: []quality.Dimension{{Name: "sections", Weight: 1, Checks: []quality.Check{
			{Kind: quality.KindHeading, Target: "Steps", Weight: 100},
		}}},
	}
	f, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	out, _, err := f.Apply(document.Parse("tiny", []byte("# Tiny")))
	if err != nil {
		t.Fatal(err)
	}
	want := "# Tiny\n\n## Steps\n\n<!-- TODO(tiny): describe the steps of this agent. -->\n"
	if string(out) != want {
		t.Errorf("Apply = %q, want %q", out, want)
	}
}

func TestFixFile(t *testing.T) {
	f := newFixer(t)
	dir, path := copyFixture(t)
	original, _ := os.ReadFile(path)

	res, err := f.FixFile(dir, path, Options{Backup: true})
	if err != nil {
		t.Fatalf("FixFile: %v", err)
	}
	if !res.Changed() || res.ID != "deployer" {
		t.Errorf("result = %+v", res)
	}

	backup, err := os.ReadFile(res.Backup)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Error("backup does not match original")
	}
	if !HasBackup(path) {
		t.Error("HasBackup = false after backup was written")
	}

	written, _ := os.ReadFile(path)
	if !bytes.Equal(written, res.Output) {
		t.Error("file content does not match result output")
	}

	again, err := f.FixFile(dir, path, Options{Backup: true})
	if err != nil {
		t.Fatal(err)
	}
	if again.Changed() {
		t.Errorf("second fix inserted %v", again.Inserted)
	}
}

func TestFixFileDryRun(t *testing.T) {
	f := newFixer(t)
	dir, path := copyFixture(t)
	original, _ := os.ReadFile(path)

	res, err := f.FixFile(dir, path, Options{DryRun: true, Backup: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed() {
		t.Error("dry run reported no changes")
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(after, original) {
		t.Error("dry run modified the file")
	}
	if HasBackup(path) {
		t.Error("dry run wrote a backup")
	}
}

func TestFixFileMissing(t *testing.T) {
	f := newFixer(t)
	if _, err := f.FixFile(t.TempDir(), "missing.md", Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyKeepsCRLF(t *testing.T) {
	p := quality.Policy{
		Name:  "tiny",
		Tiers: quality.Default().Tiers,
		Dimensions: []quality.Dimension{{Name: "sections", Weight: 1, Checks: []quality.Check{
			{Kind: quality.KindHeading, Target: "Steps|Process", Weight: 50},
			{Kind: quality.KindHeading, Target: "Notes", Weight: 50},
		}}},
	}
	f, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	raw := "---\r\nname: tiny\r\n---\r\n# Tiny"
	out, _, err := f.Apply(document.Parse("tiny", []byte(raw)))
	if err != nil {
		t.Fatal(err)
	}
	want := raw + "\r\n\r\n## Steps\r\n\r\n<!-- TODO(tiny): describe the steps of this agent. -->\r\n" +
		"\r\n## Notes\r\n\r\n<!-- TODO(tiny): describe the notes of this agent. -->\r\n"
	if string(out) != want {
		t.Errorf("Apply = %q, want %q", out, want)
	}
	if strings.Contains(strings.ReplaceAll(string(out), "\r\n", ""), "\n") {
		t.Error("output mixes LF and CRLF line endings")
	}
}

func TestMissingUsesPolicyHeadingNames(t *testing.T) {
	f := newFixer(t)
	got := f.Missing(document.Parse("empty", nil))
	want := quality.Default().RequiredHeadings()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Missing(empty) = %v, want %v", got, want)
	}
}
