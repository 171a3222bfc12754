package env

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestWorkDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir, err := WorkDir()
	if err != nil {
		t.Fatalf("WorkDir() returned error: %v", err)
	}
	if filepath.Base(dir) != ".icubuild" {
		t.Errorf("WorkDir() = %q, want a .icubuild directory", dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("WorkDir() created a file instead of a directory")
	}

	again, err := WorkDir()
	if err != nil {
		t.Fatalf("second WorkDir() call failed: %v", err)
	}
	if again != dir {
		t.Errorf("WorkDir() not idempotent: %q then %q", dir, again)
	}
}

func TestCygwinRoot(t *testing.T) {
	t.Setenv(CygwinRootVar, "")
	if _, err := CygwinRoot(); !errors.Is(err, ErrNoCygwinRoot) {
		t.Fatalf("CygwinRoot() error = %v, want ErrNoCygwinRoot", err)
	}

	t.Setenv(CygwinRootVar, "/opt/cygwin")
	root, err := CygwinRoot()
	if err != nil {
		t.Fatalf("CygwinRoot() error = %v", err)
	}
	if root != "/opt/cygwin" {
		t.Fatalf("CygwinRoot() = %q, want /opt/cygwin", root)
	}
}

func TestCygwinPaths(t *testing.T) {
	got := CygwinPaths("root")
	want := []string{filepath.Join("root", "bin"), filepath.Join("root", "usr", "bin")}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("CygwinPaths() = %v, want %v", got, want)
	}
}

func TestPrependPath(t *testing.T) {
	sep := string(os.PathListSeparator)

	t.Setenv("ICUBUILD_TEST_PATH", "")
	PrependPath("ICUBUILD_TEST_PATH", "a")
	if got := os.Getenv("ICUBUILD_TEST_PATH"); got != "a" {
		t.Fatalf("PrependPath on empty = %q, want a", got)
	}

	PrependPath("ICUBUILD_TEST_PATH", "b", "c")
	if got, want := os.Getenv("ICUBUILD_TEST_PATH"), strings.Join([]string{"b", "c", "a"}, sep); got != want {
		t.Fatalf("PrependPath = %q, want %q", got, want)
	}

	PrependPath("ICUBUILD_TEST_PATH")
	if got, want := os.Getenv("ICUBUILD_TEST_PATH"), strings.Join([]string{"b", "c", "a"}, sep); got != want {
		t.Fatalf("PrependPath without dirs changed value to %q", got)
	}
}

func TestHostSettings(t *testing.T) {
	hostOS := HostOS()
	switch runtime.GOOS {
	case "darwin":
		if hostOS != "Macos" {
			t.Errorf("HostOS() = %q, want Macos", hostOS)
		}
	case "linux":
		if hostOS != "Linux" {
			t.Errorf("HostOS() = %q, want Linux", hostOS)
		}
	case "windows":
		if hostOS != "Windows" {
			t.Errorf("HostOS() = %q, want Windows", hostOS)
		}
	}
	if runtime.GOARCH == "amd64" && HostArch() != "x86_64" {
		t.Errorf("HostArch() = %q, want x86_64", HostArch())
	}
}

func TestVisualStudioDirFromEnv(t *testing.T) {
	t.Setenv("VSINSTALLDIR", `C:\VS\2017`)
	dir, err := VisualStudioDir("15")
	if err != nil {
		t.Fatalf("VisualStudioDir() error = %v", err)
	}
	if dir != `C:\VS\2017` {
		t.Fatalf("VisualStudioDir() = %q", dir)
	}
}

func TestVCVarsCommand(t *testing.T) {
	tests := []struct {
		arch, want string
	}{
		{"x86_64", "amd64"},
		{"x86", "x86"},
		{"armv8", "amd64_arm64"},
	}
	for _, tt := range tests {
		got := VCVarsCommand("vs", tt.arch)
		bat := filepath.Join("vs", "VC", "Auxiliary", "Build", "vcvarsall.bat")
		if want := `call "` + bat + `" ` + tt.want; got != want {
			t.Errorf("VCVarsCommand(%q) = %q, want %q", tt.arch, got, want)
		}
	}
}
