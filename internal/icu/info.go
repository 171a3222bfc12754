package icu

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/icubuild/mod/module"
	"github.com/goplus/icubuild/x/gnu"
)

// Info is the metadata a package exposes to its consumers.
type Info struct {
	IncludeDirs []string            `json:"includedirs"`
	LibDirs     []string            `json:"libdirs"`
	BinDirs     []string            `json:"bindirs"`
	Libs        []string            `json:"libs"`
	SystemLibs  []string            `json:"system_libs,omitempty"`
	Defines     []string            `json:"defines,omitempty"`
	CppFlags    []string            `json:"cppflags,omitempty"`
	Env         map[string][]string `json:"env"`
}

// Dirs returns the binary and library directory names of the package:
// bin64/lib64 for 64-bit Windows, bin/lib everywhere else.
func (s Settings) Dirs() (binDir, libDir string) {
	if s.Arch == "x86_64" && s.OS == "Windows" {
		return "bin64", "lib64"
	}
	return "bin", "lib"
}

// PackageInfo derives the consumer metadata from the package folder.
// Libraries are collected from the package lib dir and from the lib dir
// of the packaged build tree.
func (r *Recipe) PackageInfo() (*Info, error) {
	binDir, libDir := r.Settings.Dirs()

	info := &Info{
		IncludeDirs: []string{"include"},
		LibDirs:     []string{libDir},
		BinDirs:     []string{binDir},
		Env:         map[string][]string{},
	}

	// the autotools path installs nothing, its libraries stay in the
	// packaged build tree
	var found []string
	for _, dir := range []string{libDir, filepath.Join(CrossBuildDir, libDir)} {
		libs, err := CollectLibs(filepath.Join(r.PackageFolder, dir))
		if err != nil {
			return nil, err
		}
		if len(libs) > 0 && dir != libDir {
			info.LibDirs = append(info.LibDirs, dir)
		}
		found = append(found, libs...)
	}
	gnu.Sort(found)
	found = slices.Compact(found)

	vtag := module.Major(Version)
	info.Libs = OrderLibs(found, vtag)

	dataFile := "icudt" + vtag + "l.dat"
	dataPath := filepath.Join(r.PackageFolder, "share", "icu", Version, dataFile)
	info.Env["ICU_DATA"] = []string{strings.ReplaceAll(dataPath, `\`, "/")}
	info.Env["PATH"] = []string{filepath.Join(r.PackageFolder, binDir)}

	if !r.Options.Shared {
		info.Defines = append(info.Defines, "U_STATIC_IMPLEMENTATION")
		switch r.Settings.OS {
		case "Linux":
			info.SystemLibs = append(info.SystemLibs, "dl")
		case "Windows":
			info.SystemLibs = append(info.SystemLibs, "advapi32")
		}
	}
	if r.Settings.Compiler == "gcc" || r.Settings.Compiler == "clang" {
		info.CppFlags = []string{"-std=c++11"}
	}
	return info, nil
}

var libExts = []string{".so", ".lib", ".a", ".dylib", ".bc"}

// CollectLibs returns the link names of the libraries in dir, in version
// order and without duplicates: "libicuuc.a" yields "icuuc", while
// "icuuc.lib" keeps its name. A missing dir has no libraries.
func CollectLibs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var libs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !slices.Contains(libExts, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if ext != ".lib" {
			name = strings.TrimPrefix(name, "lib")
		}
		if !slices.Contains(libs, name) {
			libs = append(libs, name)
		}
	}
	gnu.Sort(libs)
	return libs, nil
}

// OrderLibs drops the libraries whose name carries the version tag and
// moves the common library (icuuc) and then the data library
// (icudata/icudt) to the end, so single-pass linkers resolve every
// symbol.
func OrderLibs(libs []string, vtag string) []string {
	var rest, common, data []string
	for _, lib := range libs {
		if strings.Contains(lib, vtag) {
			continue
		}
		switch {
		case strings.Contains(lib, "icudata") || strings.Contains(lib, "icudt"):
			data = append(data, lib)
		case strings.Contains(lib, "icuuc"):
			common = append(common, lib)
		default:
			rest = append(rest, lib)
		}
	}
	out := make([]string, 0, len(rest)+len(common)+len(data))
	out = append(out, rest...)
	out = append(out, common...)
	return append(out, data...)
}

// Metadata renders info as compiler and linker flags rooted at pkgDir.
func (info *Info) Metadata(pkgDir string) string {
	var flags []string
	for _, d := range info.IncludeDirs {
		flags = append(flags, "-I"+filepath.Join(pkgDir, d))
	}
	for _, d := range info.Defines {
		flags = append(flags, "-D"+d)
	}
	flags = append(flags, info.CppFlags...)
	for _, d := range info.LibDirs {
		flags = append(flags, "-L"+filepath.Join(pkgDir, d))
	}
	for _, l := range info.Libs {
		flags = append(flags, "-l"+l)
	}
	for _, l := range info.SystemLibs {
		flags = append(flags, "-l"+l)
	}
	return strings.Join(flags, " ")
}
