package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/execabs"
)

// VisualStudioDir returns the installation directory of Visual Studio.
// VSINSTALLDIR wins; otherwise vswhere is asked for the latest install,
// restricted to major version when it is non-empty.
func VisualStudioDir(major string) (string, error) {
	if dir := os.Getenv("VSINSTALLDIR"); dir != "" {
		return dir, nil
	}
	programFiles := os.Getenv("ProgramFiles(x86)")
	if programFiles == "" {
		return "", errors.New("cannot locate vswhere: ProgramFiles(x86) is not set")
	}
	vswhere := filepath.Join(programFiles, "Microsoft Visual Studio", "Installer", "vswhere.exe")

	args := []string{"-latest", "-products", "*", "-property", "installationPath"}
	if major != "" {
		args = append(args, "-version", fmt.Sprintf("[%s.0,%s.99]", major, major))
	}
	out, err := execabs.Command(vswhere, args...).Output()
	if err != nil {
		return "", fmt.Errorf("vswhere: %w", err)
	}
	dir := strings.TrimSpace(string(out))
	if dir == "" {
		return "", fmt.Errorf("no Visual Studio %s installation found", major)
	}
	return dir, nil
}

// VCVarsArch maps an arch setting to the vcvarsall.bat target argument.
func VCVarsArch(arch string) string {
	switch arch {
	case "x86":
		return "x86"
	case "armv7":
		return "amd64_arm"
	case "armv8":
		return "amd64_arm64"
	}
	return "amd64"
}

// VCVarsCommand returns the cmd.exe line that loads the compiler
// environment for arch from the Visual Studio installed in vsDir.
func VCVarsCommand(vsDir, arch string) string {
	bat := filepath.Join(vsDir, "VC", "Auxiliary", "Build", "vcvarsall.bat")
	return fmt.Sprintf(`call "%s" %s`, bat, VCVarsArch(arch))
}
