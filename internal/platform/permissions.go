package platform

import (
	"io/fs"
	"os"
	"runtime"
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// Executable reports whether mode carries any execute bit that the
// platform honors.
func Executable(mode fs.FileMode) bool {
	if runtime.GOOS == "windows" {
		return false
	}
	return mode.Perm()&0111 != 0
}

// SetExecutable applies mode to path when it is executable. os.WriteFile
// keeps the mode of a file that already exists and applies the umask, so
// scripts written over an existing file would otherwise lose their bits.
func SetExecutable(path string, mode fs.FileMode) error {
	if !Executable(mode) {
		return nil
	}
	return Chmod(path, mode.Perm())
}
