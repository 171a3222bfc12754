package internal

import (
	"github.com/spf13/cobra"

	"github.com/goplus/icubuild/internal/config"
	"github.com/goplus/icubuild/internal/icu"
)

// configFlags binds the settings and options of a build to a command.
// Flags the user sets override the profile, which overrides host defaults.
type configFlags struct {
	profile     string
	saveProfile string
	values      config.Profile
}

func addConfigFlags(cmd *cobra.Command) *configFlags {
	cf := &configFlags{}
	f := cmd.Flags()
	s, o := &cf.values.Settings, &cf.values.Options

	f.StringVar(&cf.profile, "profile", "", "YAML profile with settings and options")
	f.StringVar(&cf.saveProfile, "save-profile", "", "Write the resolved settings and options to this YAML profile")

	f.StringVar(&s.OS, "os", "", "Target operating system (Linux, Macos, Windows)")
	f.StringVar(&s.OSVersion, "os-version", "", "Minimum target OS version (Apple targets)")
	f.StringVar(&s.Arch, "arch", "", "Target architecture (x86, x86_64, armv8)")
	f.StringVar(&s.Compiler, "compiler", "", "Compiler (gcc, clang, apple-clang, Visual Studio)")
	f.StringVar(&s.CompilerVersion, "compiler-version", "", "Compiler version")
	f.StringVar(&s.Libcxx, "libcxx", "", "C++ standard library")
	f.StringVar(&s.Runtime, "runtime", "", "Visual Studio runtime (MD, MT, MDd, MTd)")
	f.StringVar(&s.BuildType, "build-type", "", "Build type (Debug, Release)")
	f.StringVar(&s.OSBuild, "os-build", "", "Operating system of the build machine")
	f.StringVar(&s.ArchBuild, "arch-build", "", "Architecture of the build machine")

	f.BoolVar(&o.Shared, "shared", false, "Build shared libraries")
	f.StringVar(&o.DataPackaging, "data-packaging", "", "Data packaging mode (files, archive, library, static)")
	f.BoolVar(&o.WithUnitTests, "with-unit-tests", false, "Build and run the unit tests")
	f.BoolVar(&o.Silent, "silent", true, "Quiet make output")
	return cf
}

// resolve returns the profile with the flags the user set applied and,
// with --save-profile, writes it out for later runs.
func (cf *configFlags) resolve(cmd *cobra.Command) (*config.Profile, error) {
	p, err := config.Load(cf.profile)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	s, o := &p.Settings, &p.Options
	v := cf.values

	set := func(name string, dst *string, val string) {
		if f.Changed(name) {
			*dst = val
		}
	}
	set("os", &s.OS, v.Settings.OS)
	set("os-version", &s.OSVersion, v.Settings.OSVersion)
	set("arch", &s.Arch, v.Settings.Arch)
	set("compiler", &s.Compiler, v.Settings.Compiler)
	set("compiler-version", &s.CompilerVersion, v.Settings.CompilerVersion)
	set("libcxx", &s.Libcxx, v.Settings.Libcxx)
	set("runtime", &s.Runtime, v.Settings.Runtime)
	set("build-type", &s.BuildType, v.Settings.BuildType)
	set("os-build", &s.OSBuild, v.Settings.OSBuild)
	set("arch-build", &s.ArchBuild, v.Settings.ArchBuild)
	set("data-packaging", &o.DataPackaging, v.Options.DataPackaging)

	if f.Changed("shared") {
		o.Shared = v.Options.Shared
	}
	if f.Changed("with-unit-tests") {
		o.WithUnitTests = v.Options.WithUnitTests
	}
	if f.Changed("silent") {
		o.Silent = v.Options.Silent
	}

	if cf.saveProfile != "" {
		if err := config.Save(p, cf.saveProfile); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// recipe returns a validated recipe for the resolved configuration.
func (cf *configFlags) recipe(cmd *cobra.Command) (*icu.Recipe, error) {
	p, err := cf.resolve(cmd)
	if err != nil {
		return nil, err
	}
	r := icu.New(p.Settings, p.Options)
	if err := r.Configure(); err != nil {
		return nil, err
	}
	return r, nil
}
