// Package config loads build profiles: the settings and options of one
// ICU configuration, stored as YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goplus/icubuild/internal/env"
	"github.com/goplus/icubuild/internal/icu"
)

// Profile is a complete build configuration.
type Profile struct {
	Settings icu.Settings `yaml:"settings"`
	Options  icu.Options  `yaml:"options"`
}

// DefaultProfile describes a build for the running machine.
func DefaultProfile() *Profile {
	hostOS, hostArch := env.HostOS(), env.HostArch()
	return &Profile{
		Settings: icu.Settings{
			OS:        hostOS,
			Arch:      hostArch,
			Compiler:  defaultCompiler(hostOS),
			BuildType: "Release",
			OSBuild:   hostOS,
			ArchBuild: hostArch,
		},
		Options: icu.DefaultOptions(),
	}
}

func defaultCompiler(hostOS string) string {
	switch hostOS {
	case "Macos":
		return "apple-clang"
	case "Windows":
		return "Visual Studio"
	}
	return "gcc"
}

// Load reads a profile from path on top of DefaultProfile. An empty path
// returns the defaults.
func Load(path string) (*Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path as YAML, creating parent directories.
func Save(p *Profile, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}
