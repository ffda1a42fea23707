package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestReplacementMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not supported on Windows")
	}
	dir := t.TempDir()
	private := filepath.Join(dir, "private.md")
	if err := os.WriteFile(private, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := setMode(private, 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		perm os.FileMode
		want os.FileMode
	}{
		{"existing file keeps its bits", private, 0644, 0600},
		{"new file gets perm", filepath.Join(dir, "new.md"), 0640, 0640},
		{"directory does not lend its bits", dir, 0644, 0644},
		{"type bits are dropped", filepath.Join(dir, "other.md"), os.ModeDir | 0755, 0755},
	}
	for _, tt := range tests {
		if got := replacementMode(tt.path, tt.perm); got != tt.want {
			t.Errorf("%s: replacementMode = %o, want %o", tt.name, got, tt.want)
		}
	}
}

func TestWriteFileAtomicNewFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not supported on Windows")
	}
	path := filepath.Join(t.TempDir(), "report.html")
	if err := WriteFileAtomic(path, []byte("<html>"), 0640); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0640 {
		t.Errorf("permissions = %o, want %o", perm, 0640)
	}
}
