package icu

import (
	"path/filepath"
	"strings"
)

// Config holds the command-line fragments and directories of one build.
// Every fragment is handed verbatim to runConfigureICU or make.
type Config struct {
	EnableDebug   string
	Platform      string
	Host          string
	ArchBits      string
	EnableStatic  string
	DataPackaging string
	GeneralOpts   string
	Silent        string

	SourceDir string // sources/icu4c/source
	BuildDir  string // sources/icu4c/build
	OutputDir string
}

// NewConfig resolves the option-derived fragments for buildFolder. The
// platform and host fragments depend on the toolchain; see Plan.
func (r *Recipe) NewConfig(buildFolder string) Config {
	cfg := Config{
		SourceDir: filepath.Join(buildFolder, "sources", "icu4c", "source"),
		BuildDir:  filepath.Join(buildFolder, "sources", "icu4c", "build"),
		OutputDir: filepath.Join(buildFolder, "output"),
	}

	if r.Options.Silent {
		cfg.Silent = "--silent"
	} else {
		cfg.Silent = "VERBOSE=1"
	}
	if r.Settings.BuildType == "Debug" {
		cfg.EnableDebug = "--enable-debug --disable-release"
	}
	if r.Settings.Arch == "x86_64" {
		cfg.ArchBits = "64"
	} else {
		cfg.ArchBits = "32"
	}
	if !r.Options.Shared {
		cfg.EnableStatic = "--enable-static --disable-shared"
	} else {
		cfg.EnableStatic = "--enable-shared --disable-static"
	}
	cfg.DataPackaging = "--with-data-packaging=" + r.Options.DataPackaging

	cfg.GeneralOpts = "--disable-samples --disable-layout --disable-layoutex --disable-dyload"
	if !r.Options.WithUnitTests {
		cfg.GeneralOpts += " --disable-tests"
	}
	return cfg
}

// Plan resolves the complete configuration for buildFolder, including
// the runConfigureICU platform and, for MinGW, the host triple.
func (r *Recipe) Plan(buildFolder string) Config {
	cfg := r.NewConfig(buildFolder)
	if r.isMSVC() {
		cfg.Platform = "Cygwin/MSVC"
		return cfg
	}
	switch r.Settings.OS {
	case "Linux":
		if strings.HasPrefix(r.Settings.Compiler, "gcc") {
			cfg.Platform = "Linux/gcc"
		} else {
			cfg.Platform = "Linux"
		}
	case "Macos":
		cfg.Platform = "MacOSX"
	case "Windows":
		cfg.Platform = "MinGW"
		chost := "x86_64-w64-mingw32"
		if r.Settings.Arch == "x86" {
			chost = "i686-w64-mingw32"
		}
		cfg.Host = "--build=" + chost + " --host=" + chost
	}
	return cfg
}

// ConfigureCommand returns the runConfigureICU invocation, relative to the
// build directory. No --prefix is passed: the build tree itself is the
// packaged artifact.
func (c *Config) ConfigureCommand() string {
	parts := []string{
		"../source/runConfigureICU",
		c.EnableDebug,
		c.Platform,
		c.Host,
		"--with-library-bits=" + c.ArchBits,
		c.EnableStatic,
		c.DataPackaging,
		c.GeneralOpts,
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// Config returns the configuration resolved by the last Build.
func (r *Recipe) Config() Config {
	return r.cfg
}
