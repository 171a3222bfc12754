// Package module defines the module.Version type along with support code.
package module

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// A Version represents a specific release of an upstream project
// identified by its path.
type Version struct {
	Path    string // Module path in the form "owner/repo"
	Version string // Release version (e.g., "63.1")
}

// String returns the "path@version" form of v.
func (v Version) String() string {
	if v.Version == "" {
		return v.Path
	}
	return v.Path + "@" + v.Version
}

// EscapePath returns the escaped form of the given module path as a valid
// file system path. It fails if the module path is invalid.
func EscapePath(path string) (escaped string, err error) {
	return filepath.Localize(path)
}

// Check reports whether ver is a dotted release version such as "63.1".
func Check(ver string) error {
	if ver == "" || !semver.IsValid("v"+ver) {
		return fmt.Errorf("malformed release version %q", ver)
	}
	return nil
}

// Major returns the major component of ver ("63" for "63.1").
// It returns ver unchanged when ver is not a dotted release version.
func Major(ver string) string {
	major := semver.Major("v" + ver)
	if major == "" {
		return ver
	}
	return strings.TrimPrefix(major, "v")
}

// ReleaseTag returns ver with dots replaced by dashes ("63-1" for "63.1"),
// the form upstream uses for release tags and archive directories.
func ReleaseTag(ver string) string {
	return strings.ReplaceAll(ver, ".", "-")
}
