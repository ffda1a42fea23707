package platform

import (
	"os"
	"runtime"
)

// replacementMode returns the permission bits a file written over path
// should get: those of the file already there, else perm.
func replacementMode(path string, perm os.FileMode) os.FileMode {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return info.Mode().Perm()
	}
	return perm.Perm()
}

// setMode applies mode to path. Windows has no Unix permission bits, so it
// is a no-op there.
func setMode(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}
