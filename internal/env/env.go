package env

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// CygwinRootVar names the variable pointing at the Cygwin installation.
const CygwinRootVar = "CYGWIN_ROOT"

// ErrNoCygwinRoot is returned by CygwinRoot when CYGWIN_ROOT is unset.
var ErrNoCygwinRoot = errors.New(CygwinRootVar + " environment variable must be set")

// WorkDir returns the default workspace directory, creating it if needed.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(userCacheDir, ".icubuild")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// CygwinRoot returns the Cygwin installation root.
func CygwinRoot() (string, error) {
	root := os.Getenv(CygwinRootVar)
	if root == "" {
		return "", ErrNoCygwinRoot
	}
	return root, nil
}

// CygwinPaths returns the directories of a Cygwin installation that must
// precede PATH: <root>/bin and <root>/usr/bin.
func CygwinPaths(root string) []string {
	return []string{
		filepath.Join(root, "bin"),
		filepath.Join(root, "usr", "bin"),
	}
}

// PrependPath prepends dirs, in order, to the PATH-style variable key of
// the current process.
func PrependPath(key string, dirs ...string) {
	if len(dirs) == 0 {
		return
	}
	value := strings.Join(dirs, string(os.PathListSeparator))
	if cur := os.Getenv(key); cur != "" {
		value += string(os.PathListSeparator) + cur
	}
	os.Setenv(key, value)
}

// HostOS returns the settings name of the running operating system.
func HostOS() string {
	switch runtime.GOOS {
	case "darwin":
		return "Macos"
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	}
	return runtime.GOOS
}

// HostArch returns the settings name of the running architecture.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "armv8"
	case "arm":
		return "armv7"
	}
	return runtime.GOARCH
}
