package cli

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentx-labs/agentq/internal/errs"
	"github.com/agentx-labs/agentq/internal/history"
	"github.com/agentx-labs/agentq/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// testEnv holds the paths of an isolated library and history.
type testEnv struct {
	Home    string
	Library string
	History string
}

// setupTestEnv copies testdata/agents into a temp library and points HOME
// at an empty directory so no user config is read.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{Home: t.TempDir()}
	work := t.TempDir()
	env.Library = filepath.Join(work, "agents")
	env.History = filepath.Join(work, ".agentq", "history.json")
	t.Setenv("HOME", env.Home)
	copyTree(t, filepath.Join("testdata", "agents"), env.Library)
	t.Cleanup(viper.Reset)
	return env
}

func copyTree(t *testing.T, src, dst string) {
	t.Helper()
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, path)
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
	if err != nil {
		t.Fatalf("copying %s: %v", src, err)
	}
}

// resetFlags restores every flag of the command tree to its default so
// package-level flag variables do not leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the root command with args against env and returns stdout
// and stderr, the latter including the printed error.
func (env *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--library", env.Library, "--history", env.History}, args...))
	err := rootCmd.Execute()
	if err != nil {
		printError(&stderr, err)
	}
	return stdout.String(), stderr.String(), err
}

func (env *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, stderr)
	}
	return out
}

func (env *testEnv) appendTo(t *testing.T, name, text string) {
	t.Helper()
	path := filepath.Join(env.Library, name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, append(data, text...), 0644); err != nil {
		t.Fatal(err)
	}
}

func loadHistory(t *testing.T, env *testEnv) history.History {
	t.Helper()
	h, err := history.NewStore(env.History).Load()
	if err != nil {
		t.Fatalf("loading history: %v", err)
	}
	return h
}

func TestRecordCreatedThenUnchanged(t *testing.T) {
	env := setupTestEnv(t)

	out := env.mustRun(t, "record")
	for _, want := range []string{"created", "partial", "review/complete", "1.0.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("first record output missing %q:\n%s", want, out)
		}
	}

	out = env.mustRun(t, "record")
	if strings.Contains(out, "created") || !strings.Contains(out, "unchanged") {
		t.Errorf("second record output:\n%s", out)
	}
	if n := len(loadHistory(t, env).Versions); n != 2 {
		t.Errorf("history has %d versions, want 2", n)
	}
}

func TestRecordBumpsAfterEdit(t *testing.T) {
	env := setupTestEnv(t)
	env.mustRun(t, "record")

	env.appendTo(t, "partial.md", "\n## Tools\n")
	out := env.mustRun(t, "record", filepath.Join(env.Library, "partial.md"))
	if !strings.Contains(out, "2.0.0") || !strings.Contains(out, "major from 1.0.0") {
		t.Errorf("record output:\n%s", out)
	}

	env.appendTo(t, "partial.md", "- a\n- b\n- c\n- d\n")
	env.mustRun(t, "record", "--json", filepath.Join(env.Library, "partial.md"))
	latest, ok := loadHistory(t, env).Latest("partial")
	if !ok || latest.Version != "2.1.0" {
		t.Errorf("latest = %+v, want 2.1.0", latest)
	}
}

func TestRecordMissingFile(t *testing.T) {
	env := setupTestEnv(t)
	_, _, err := env.run(t, "record", filepath.Join(env.Library, "nope.md"))
	if !errs.Is(err, errs.KindNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
	if _, statErr := os.Stat(env.History); !os.IsNotExist(statErr) {
		t.Error("history written despite failure")
	}
}

func TestHistoryIOErrorIsFatal(t *testing.T) {
	env := setupTestEnv(t)
	if err := os.MkdirAll(env.History, 0755); err != nil {
		t.Fatal(err)
	}
	_, _, err := env.run(t, "record")
	if !errs.Is(err, errs.KindIO) {
		t.Errorf("err = %v, want IOError", err)
	}
}

func TestCorruptHistoryIsParseError(t *testing.T) {
	env := setupTestEnv(t)
	os.MkdirAll(filepath.Dir(env.History), 0755)
	if err := os.WriteFile(env.History, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := env.run(t, "report", "--format", "json")
	if !errs.Is(err, errs.KindParse) {
		t.Errorf("err = %v, want ParseError", err)
	}
}

func TestReportJSON(t *testing.T) {
	env := setupTestEnv(t)
	env.mustRun(t, "record")

	out := env.mustRun(t, "report", "--format", "json", "--top", "3")
	var r report.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out)
	}
	if r.Documents != 2 || r.TierTotal() != 2 {
		t.Errorf("documents = %d, tier total = %d", r.Documents, r.TierTotal())
	}
	if len(r.TopIssues) > 3 {
		t.Errorf("top issues = %d, want at most 3", len(r.TopIssues))
	}
	for _, e := range r.Entries {
		if e.Version != "1.0.0" {
			t.Errorf("entry %s version = %q, want 1.0.0", e.ID, e.Version)
		}
	}
	if len(r.Trend) != 1 {
		t.Errorf("trend points = %d, want 1", len(r.Trend))
	}
}

func TestReportToFile(t *testing.T) {
	env := setupTestEnv(t)
	path := filepath.Join(t.TempDir(), "out", "report.html")

	out := env.mustRun(t, "report", "--format", "html", "--output", path)
	if !strings.Contains(out, "Wrote html report for 2 templates") {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), "<html") {
		t.Error("report file is not HTML")
	}
}

func TestReportMarkdownAndBadFormat(t *testing.T) {
	env := setupTestEnv(t)
	out := env.mustRun(t, "report", "-f", "md")
	if !strings.HasPrefix(out, "# Agent Quality Report") {
		t.Errorf("markdown output:\n%s", out)
	}

	if _, _, err := env.run(t, "report", "--format", "pdf"); !errs.Is(err, errs.KindValidation) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestCheck(t *testing.T) {
	env := setupTestEnv(t)

	out := env.mustRun(t, "check", "--min-yaml", "10")
	if !strings.Contains(out, "All 2 templates pass 1 checks") {
		t.Errorf("output = %q", out)
	}

	_, stderr, err := env.run(t, "check", "--min-overall", "50", "--min-sections", "50")
	e, ok := errs.As(err)
	if !ok || e.Kind() != errs.KindValidation {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(e.Failures) != 2 {
		t.Errorf("failures = %v, want overall and sections for partial", e.Failures)
	}
	if !strings.Contains(stderr, "  - partial: overall") || !strings.Contains(stderr, "  - partial: sections 7.8 < 50.0") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestLearn(t *testing.T) {
	env := setupTestEnv(t)
	out := env.mustRun(t, "learn")
	if !strings.Contains(out, "History is empty.") {
		t.Errorf("learn on empty history = %q", out)
	}

	env.mustRun(t, "record")
	env.appendTo(t, "partial.md", "More words.\n")
	env.mustRun(t, "record")

	want := loadHistory(t, env).Usage
	h := loadHistory(t, env)
	h.Usage = map[string]history.Usage{}
	if err := history.NewStore(env.History).Save(h); err != nil {
		t.Fatal(err)
	}

	out = env.mustRun(t, "learn")
	if !strings.Contains(out, "partial") || !strings.Contains(out, "1.0.1") {
		t.Errorf("learn output:\n%s", out)
	}
	got := loadHistory(t, env).Usage
	if got["partial"] != want["partial"] || got["review/complete"] != want["review/complete"] {
		t.Errorf("learned usage = %+v, want %+v", got, want)
	}
}

func TestHistoryCommand(t *testing.T) {
	env := setupTestEnv(t)
	env.mustRun(t, "record")
	env.appendTo(t, "partial.md", "Tweak.\n")
	env.mustRun(t, "record")

	out := env.mustRun(t, "history", "partial")
	if !strings.Contains(out, "1.0.0") || !strings.Contains(out, "1.0.1") || !strings.Contains(out, "patch") {
		t.Errorf("history output:\n%s", out)
	}

	out = env.mustRun(t, "history")
	if !strings.Contains(out, "review/complete") {
		t.Errorf("summary output:\n%s", out)
	}

	out = env.mustRun(t, "history", "--verify")
	if !strings.Contains(out, "History OK: 3 versions of 2 templates") {
		t.Errorf("verify output = %q", out)
	}

	if _, _, err := env.run(t, "history", "ghost"); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestFix(t *testing.T) {
	env := setupTestEnv(t)
	path := filepath.Join(env.Library, "partial.md")
	original, _ := os.ReadFile(path)

	out := env.mustRun(t, "fix", "--dry-run")
	if !strings.Contains(out, "Would fix partial: + Role") {
		t.Errorf("dry run output:\n%s", out)
	}
	if after, _ := os.ReadFile(path); !bytes.Equal(after, original) {
		t.Error("dry run modified the file")
	}

	out = env.mustRun(t, "fix")
	if !strings.Contains(out, "Fixed partial") || strings.Contains(out, "review/complete") {
		t.Errorf("fix output:\n%s", out)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Errorf("backup missing: %v", err)
	}

	out = env.mustRun(t, "fix", "--no-backup")
	if !strings.Contains(out, "All templates have every required section.") {
		t.Errorf("second fix output:\n%s", out)
	}
}

func TestLinks(t *testing.T) {
	env := setupTestEnv(t)

	_, stderr, err := env.run(t, "links")
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if !strings.Contains(stderr, "review/complete: line") || !strings.Contains(stderr, "docs/adr-template.md (file not found)") {
		t.Errorf("stderr:\n%s", stderr)
	}

	docs := filepath.Join(env.Library, "review", "docs")
	os.MkdirAll(docs, 0755)
	os.WriteFile(filepath.Join(docs, "adr-template.md"), []byte("# ADR\n"), 0644)

	out := env.mustRun(t, "links", filepath.Join(env.Library, "review", "complete.md"))
	if !strings.Contains(out, "OK") {
		t.Errorf("output = %q", out)
	}
}

func TestList(t *testing.T) {
	env := setupTestEnv(t)
	env.mustRun(t, "record", filepath.Join(env.Library, "review", "complete.md"))

	out := env.mustRun(t, "list")
	if !strings.Contains(out, "backend-architect") || !strings.Contains(out, "sonnet") {
		t.Errorf("list output:\n%s", out)
	}

	out = env.mustRun(t, "list", "--json", "--query", "backend")
	var entries []listEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("list is not JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "review/complete" || entries[0].Version != "1.0.0" {
		t.Errorf("entries = %+v", entries)
	}

	out = env.mustRun(t, "list", "--model", "opus")
	if !strings.Contains(out, "No templates found.") {
		t.Errorf("model filter output = %q", out)
	}
}

func TestPolicyCommands(t *testing.T) {
	env := setupTestEnv(t)

	out := env.mustRun(t, "policy", "show")
	if !strings.Contains(out, "name: agent-template") {
		t.Errorf("policy show:\n%s", out)
	}

	out = env.mustRun(t, "policy", "validate", filepath.Join("..", "quality", "testdata", "runbook-policy.yaml"))
	if !strings.Contains(out, `Policy "runbook" is valid`) {
		t.Errorf("validate output = %q", out)
	}

	_, stderr, err := env.run(t, "policy", "validate", filepath.Join("..", "quality", "testdata", "invalid-schema.yaml"))
	if !errs.Is(err, errs.KindValidation) {
		t.Errorf("err = %v, want ValidationError", err)
	}
	if !strings.Contains(stderr, "  - ") {
		t.Errorf("schema failures not listed:\n%s", stderr)
	}
}

func TestCustomPolicyFlag(t *testing.T) {
	env := setupTestEnv(t)
	out := env.mustRun(t, "--policy", filepath.Join("..", "quality", "testdata", "runbook-policy.yaml"), "report", "--format", "json")
	var r report.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatal(err)
	}
	if r.Policy != "runbook" {
		t.Errorf("policy = %q, want runbook", r.Policy)
	}
}

func TestConfigSetGet(t *testing.T) {
	env := setupTestEnv(t)
	out := env.mustRun(t, "config", "set", "report.top", "4")
	if !strings.Contains(out, "Set report.top = 4") {
		t.Errorf("set output = %q", out)
	}
	out = env.mustRun(t, "config", "get", "report.top")
	if strings.TrimSpace(out) != "4" {
		t.Errorf("get output = %q, want 4", out)
	}
	data, err := os.ReadFile(filepath.Join(env.Home, ".agentq", "config.yaml"))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if strings.Contains(string(data), env.History) || strings.Contains(string(data), env.Library) {
		t.Errorf("per-run flags persisted to config:\n%s", data)
	}
}

func TestVersion(t *testing.T) {
	env := setupTestEnv(t)
	buildVersion, buildCommit, buildDate = "1.2.3", "abc", "today"

	out := env.mustRun(t, "version")
	if out != "agentq version 1.2.3 (commit: abc, built: today)\n" {
		t.Errorf("version = %q", out)
	}
	if out := env.mustRun(t, "version", "--short"); out != "1.2.3\n" {
		t.Errorf("version --short = %q", out)
	}
}
