package icu

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/icubuild/internal/env"
	"github.com/goplus/icubuild/internal/source"
	"github.com/goplus/icubuild/mod/module"
	"github.com/goplus/icubuild/x/autotools"
)

// Source downloads the release tarball into the build folder and renames
// its top-level directory to "sources". An existing "sources" is never
// replaced.
func (r *Recipe) Source(ctx context.Context) error {
	sources := filepath.Join(r.BuildFolder, "sources")
	if _, err := os.Lstat(sources); err == nil {
		return fmt.Errorf("source: %s: %w", sources, fs.ErrExist)
	}

	url := SourceURL(Version)
	log.Infof("Fetching sources: %s", url)

	fetcher := r.Fetcher
	if fetcher == nil {
		fetcher = source.New(nil)
	}
	if err := fetcher.Get(ctx, url, r.BuildFolder, ""); err != nil {
		return err
	}

	unpacked := filepath.Join(r.BuildFolder, "icu-release-"+module.ReleaseTag(Version))
	return os.Rename(unpacked, sources)
}

// Build configures and compiles ICU with the toolchain selected by the
// settings: Visual Studio under Cygwin, or autotools everywhere else.
func (r *Recipe) Build(ctx context.Context) error {
	r.cfg = r.Plan(r.BuildFolder)

	if r.isMSVC() {
		if err := r.patchRuntime(); err != nil {
			return err
		}
		// a preconfigured environment (such as a CI image) must not leak in
		os.Unsetenv("VisualStudioVersion")
		vccmd, err := r.vcvars()
		if err != nil {
			return err
		}
		return r.buildCygwinMSVC(ctx, vccmd)
	}
	return r.buildAutotools(ctx)
}

// patchRuntime rewrites the MSVC runtime flags of runConfigureICU to the
// configured compiler runtime.
func (r *Recipe) patchRuntime() error {
	script := filepath.Join(r.cfg.SourceDir, "runConfigureICU")
	switch r.Settings.BuildType {
	case "Release":
		return replaceInFile(script, "-MD", "-"+r.Settings.Runtime)
	case "Debug":
		return replaceInFile(script, "-MDd", "-"+r.Settings.Runtime+" -FS")
	}
	return nil
}

func (r *Recipe) vcvars() (string, error) {
	if r.VCVars != nil {
		return r.VCVars(r.Settings)
	}
	vsDir, err := env.VisualStudioDir(r.Settings.CompilerVersion)
	if err != nil {
		return "", err
	}
	return env.VCVarsCommand(vsDir, r.Settings.Arch), nil
}

func (r *Recipe) jobs() int {
	if r.Jobs > 0 {
		return r.Jobs
	}
	return runtime.NumCPU()
}

func (r *Recipe) newAutoTools(prefix string) *autotools.AutoTools {
	at := autotools.New(r.cfg.BuildDir, r.Runner)
	at.Prefix(prefix)
	at.Silent(r.Options.Silent)
	at.Jobs(r.jobs())
	return at
}

func (r *Recipe) buildCygwinMSVC(ctx context.Context, vccmd string) error {
	log.Infof("Platform : %s", r.cfg.Platform)

	root, err := env.CygwinRoot()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	log.Infof("Using Cygwin from: %s", root)
	env.PrependPath("PATH", env.CygwinPaths(root)...)

	if err := os.Mkdir(r.cfg.BuildDir, 0755); err != nil {
		return err
	}

	at := r.newAutoTools(vccmd)

	log.Info("Starting configuration.")
	if err := at.Configure(ctx, r.cfg.ConfigureCommand()); err != nil {
		return err
	}

	log.Info("Starting build.")
	if err := at.Build(ctx); err != nil {
		return err
	}
	if r.Options.WithUnitTests {
		if err := at.Check(ctx); err != nil {
			return err
		}
	}
	return at.Install(ctx)
}

// buildAutotools only configures and makes: the build tree is what
// cross-compiling consumers need, so nothing is installed.
func (r *Recipe) buildAutotools(ctx context.Context) error {
	log.Infof("Platform : %s", r.cfg.Platform)

	at := r.newAutoTools("")
	r.applyBuildEnv(at)
	log.Debugf("Build environment: %v", at.Environ())

	if err := os.Mkdir(r.cfg.BuildDir, 0755); err != nil {
		return err
	}
	if err := at.Configure(ctx, r.cfg.ConfigureCommand()); err != nil {
		return err
	}
	if err := at.Build(ctx); err != nil {
		return err
	}
	if r.Options.WithUnitTests {
		return at.Check(ctx)
	}
	return nil
}

// applyBuildEnv sets the compiler and linker flags derived from settings.
func (r *Recipe) applyBuildEnv(at *autotools.AutoTools) {
	if !r.Options.Shared {
		at.AppendFlag("CPPFLAGS", "-DU_STATIC_IMPLEMENTATION")
	}

	var flags []string
	switch r.Settings.Arch {
	case "x86_64":
		flags = append(flags, "-m64")
	case "x86":
		flags = append(flags, "-m32")
	}
	if r.Settings.BuildType == "Debug" {
		flags = append(flags, "-g")
	} else {
		flags = append(flags, "-O3")
		at.AppendFlag("CPPFLAGS", "-DNDEBUG")
	}
	if flag := appleDeploymentTarget(r.Settings.OS, r.Settings.OSVersion); flag != "" {
		flags = append(flags, flag)
	}
	for _, f := range flags {
		at.AppendFlag("CFLAGS", f)
		at.AppendFlag("CXXFLAGS", f)
		at.AppendFlag("LDFLAGS", f)
	}

	switch r.Settings.Libcxx {
	case "libstdc++11":
		at.AppendFlag("CPPFLAGS", "-D_GLIBCXX_USE_CXX11_ABI=1")
	case "libstdc++":
		at.AppendFlag("CPPFLAGS", "-D_GLIBCXX_USE_CXX11_ABI=0")
	case "libc++":
		if r.Settings.Compiler == "clang" || r.Settings.Compiler == "apple-clang" {
			at.AppendFlag("CXXFLAGS", "-stdlib=libc++")
			at.AppendFlag("LDFLAGS", "-stdlib=libc++")
		}
	}
}

// appleDeploymentTarget returns the minimum OS version flag for Apple
// targets, or "" when os is not an Apple OS or version is unset.
func appleDeploymentTarget(os, version string) string {
	if version == "" {
		return ""
	}
	switch os {
	case "Macos":
		return "-mmacosx-version-min=" + version
	case "iOS":
		return "-mios-version-min=" + version
	case "watchOS":
		return "-mwatchos-version-min=" + version
	case "tvOS":
		return "-mtvos-version-min=" + version
	}
	return ""
}

// replaceInFile replaces every occurrence of old in path with new. It
// fails when old does not occur.
func replaceInFile(path, old, new string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content := string(data)
	if !strings.Contains(content, old) {
		return fmt.Errorf("replace in %s: %q not found", path, old)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.ReplaceAll(content, old, new)), info.Mode().Perm())
}
