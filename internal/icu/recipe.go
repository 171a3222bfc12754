// Package icu is the build recipe of the ICU C/C++ library: it resolves
// settings and options into runConfigureICU flags, drives the native
// toolchain and stages the build tree for cross-compilation packages.
package icu

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/goplus/icubuild/formula"
	"github.com/goplus/icubuild/mod/module"
	"github.com/goplus/icubuild/x/autotools"
)

// Recipe metadata.
const (
	Name        = "icu-cross-build"
	Version     = "63.1"
	Homepage    = "http://site.icu-project.org"
	License     = "http://www.unicode.org/copyright.html#License"
	Description = "ICU is a mature, widely used set of C/C++ and Java libraries " +
		"providing Unicode and Globalization support for software applications."
	URL = "https://github.com/bincrafters/conan-icu"
)

// Module identifies the upstream project and release being built.
var Module = module.Version{Path: "unicode-org/icu", Version: Version}

// SourceURL returns the release tarball of ver.
func SourceURL(ver string) string {
	return "https://github.com/unicode-org/icu/archive/release-" + module.ReleaseTag(ver) + ".tar.gz"
}

// ErrInvalidConfiguration reports settings or options the recipe cannot build.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Data packaging modes accepted by --with-data-packaging.
var DataPackagingModes = []string{"files", "archive", "library", "static"}

// Settings describe the target and the build machine.
type Settings struct {
	OS              string `yaml:"os" json:"os"`
	OSVersion       string `yaml:"os.version,omitempty" json:"os.version,omitempty"`
	Arch            string `yaml:"arch" json:"arch"`
	Compiler        string `yaml:"compiler" json:"compiler"`
	CompilerVersion string `yaml:"compiler.version,omitempty" json:"compiler.version,omitempty"`
	Libcxx          string `yaml:"compiler.libcxx,omitempty" json:"compiler.libcxx,omitempty"`
	Runtime         string `yaml:"compiler.runtime,omitempty" json:"compiler.runtime,omitempty"`
	BuildType       string `yaml:"build_type" json:"build_type"`
	OSBuild         string `yaml:"os_build" json:"os_build"`
	ArchBuild       string `yaml:"arch_build" json:"arch_build"`
}

// Options are the recipe's user-facing switches.
type Options struct {
	Shared        bool   `yaml:"shared" json:"shared"`
	DataPackaging string `yaml:"data_packaging" json:"data_packaging"`
	WithUnitTests bool   `yaml:"with_unit_tests" json:"with_unit_tests"`
	Silent        bool   `yaml:"silent" json:"silent"`
}

// DefaultOptions returns the option values used when none are given.
func DefaultOptions() Options {
	return Options{
		Shared:        false,
		DataPackaging: "static",
		WithUnitTests: false,
		Silent:        true,
	}
}

// Fetcher downloads an archive and unpacks it into a directory.
type Fetcher interface {
	Get(ctx context.Context, url, destDir, sum string) error
}

// Recipe builds one configuration of ICU.
type Recipe struct {
	Settings Settings
	Options  Options

	// BuildFolder receives the unpacked sources and the build tree.
	BuildFolder string
	// PackageFolder receives the staged artifacts.
	PackageFolder string

	Fetcher Fetcher
	Runner  autotools.Runner
	// Jobs is the make job count; zero means one job per CPU.
	Jobs int
	// VCVars returns the command that loads the Visual Studio environment.
	// Nil selects the installed Visual Studio.
	VCVars func(Settings) (string, error)

	cfg Config
}

// New returns a recipe for the given configuration with default hooks.
func New(settings Settings, options Options) *Recipe {
	return &Recipe{Settings: settings, Options: options}
}

// Configure validates the configuration and applies forced settings.
// It must run before Source: an unsupported build machine aborts here.
func (r *Recipe) Configure() error {
	if err := module.Check(Version); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	// only macOS build machines are supported for now
	if r.Settings.OSBuild != "Macos" {
		return fmt.Errorf("%w: build OS should be MacOSX, got %q", ErrInvalidConfiguration, r.Settings.OSBuild)
	}
	if r.Settings.OS == "" || r.Settings.Arch == "" {
		return fmt.Errorf("%w: os and arch settings are required", ErrInvalidConfiguration)
	}
	if r.Settings.BuildType != "Debug" && r.Settings.BuildType != "Release" {
		return fmt.Errorf("%w: unsupported build_type %q", ErrInvalidConfiguration, r.Settings.BuildType)
	}
	if !slices.Contains(DataPackagingModes, r.Options.DataPackaging) {
		return fmt.Errorf("%w: data_packaging %q is not one of %v", ErrInvalidConfiguration, r.Options.DataPackaging, DataPackagingModes)
	}
	if r.Settings.Compiler == "gcc" {
		r.Settings.Libcxx = "libstdc++11"
	}
	if r.isMSVC() && r.Settings.Runtime == "" {
		if r.Settings.BuildType == "Debug" {
			r.Settings.Runtime = "MDd"
		} else {
			r.Settings.Runtime = "MD"
		}
	}
	return nil
}

// BuildRequirements returns the tool packages the build machine needs.
func (r *Recipe) BuildRequirements() []string {
	if r.Settings.OS != "Windows" {
		return nil
	}
	reqs := []string{"cygwin_installer/2.9.0@bincrafters/stable"}
	if !r.isMSVC() {
		reqs = append(reqs, "mingw_installer/1.0@conan/stable")
	}
	return reqs
}

// Matrix returns the full configuration as a settings/options matrix.
func (r *Recipe) Matrix() formula.Matrix {
	require := map[string][]string{}
	for k, v := range map[string]string{
		"os":               r.Settings.OS,
		"os.version":       r.Settings.OSVersion,
		"arch":             r.Settings.Arch,
		"compiler":         r.Settings.Compiler,
		"compiler.version": r.Settings.CompilerVersion,
		"compiler.libcxx":  r.Settings.Libcxx,
		"compiler.runtime": r.Settings.Runtime,
		"build_type":       r.Settings.BuildType,
		"os_build":         r.Settings.OSBuild,
		"arch_build":       r.Settings.ArchBuild,
	} {
		if v != "" {
			require[k] = []string{v}
		}
	}
	return formula.Matrix{
		Require: require,
		Options: map[string][]string{
			"data_packaging":  {r.Options.DataPackaging},
			"shared":          {strconv.FormatBool(r.Options.Shared)},
			"silent":          {strconv.FormatBool(r.Options.Silent)},
			"with_unit_tests": {strconv.FormatBool(r.Options.WithUnitTests)},
		},
	}
}

// PackageID identifies the package. Only the build machine participates:
// the staged build tree serves every target of a cross-compiling recipe,
// and unit tests never change the artifacts.
func (r *Recipe) PackageID() string {
	full := r.Matrix()
	id := formula.Matrix{Require: map[string][]string{}}
	for _, key := range []string{"arch_build", "os_build"} {
		if v, ok := full.Get(key); ok {
			id.Require[key] = []string{v}
		}
	}
	return id.String()
}

// UsesCygwin reports whether the build runs Visual Studio under Cygwin,
// which needs CYGWIN_ROOT.
func (r *Recipe) UsesCygwin() bool {
	return r.isMSVC()
}

func (r *Recipe) isMSVC() bool {
	return r.Settings.Compiler == "Visual Studio"
}
