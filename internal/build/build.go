package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/qiniu/x/log"

	"github.com/goplus/icubuild/formula"
	"github.com/goplus/icubuild/internal/env"
	"github.com/goplus/icubuild/internal/icu"
	"github.com/goplus/icubuild/mod/module"
	"github.com/goplus/icubuild/x/autotools"
)

// Options configures a Builder.
type Options struct {
	// WorkspaceDir holds one directory per configuration; defaults to
	// env.WorkDir().
	WorkspaceDir string

	Fetcher icu.Fetcher
	Runner  autotools.Runner
	Jobs    int
	VCVars  func(icu.Settings) (string, error)
}

// Builder runs the recipe for one configuration at a time.
type Builder struct {
	workspaceDir string
	opts         Options
}

// Result describes a finished build.
type Result struct {
	Module     module.Version
	PackageID  string
	BuildDir   string // the configured ICU build tree
	PackageDir string
	Info       *icu.Info
	Metadata   string
	Warnings   []error
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) (*Builder, error) {
	dir := opts.WorkspaceDir
	if dir == "" {
		var err error
		if dir, err = env.WorkDir(); err != nil {
			return nil, err
		}
	}
	return &Builder{workspaceDir: dir, opts: opts}, nil
}

// Workspace directory layout:
//
//	workspaceDir/
//	  <escaped>@<version>-<matrix>/   # one configuration, rebuilt from scratch
//	    build/                        # unpacked sources/ and output/
//	    package/                      # LICENSE, cross_build_dir/, icubuild.json
func (b *Builder) configDir(r *icu.Recipe) (string, error) {
	escaped, err := module.EscapePath(icu.Module.Path)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s@%s-%s", escaped, icu.Module.Version, dirName(r.Matrix()))
	return filepath.Join(b.workspaceDir, name), nil
}

var dirNameReplacer = strings.NewReplacer(" ", "_", "|", "+", "/", "_", `\`, "_", ":", "_")

func dirName(m formula.Matrix) string {
	return dirNameReplacer.Replace(m.String())
}

// NewRecipe returns a validated recipe for settings and options, wired to
// the builder's hooks. It creates nothing on disk.
func (b *Builder) NewRecipe(settings icu.Settings, options icu.Options) (*icu.Recipe, error) {
	r := icu.New(settings, options)
	if err := r.Configure(); err != nil {
		return nil, err
	}
	r.Fetcher = b.opts.Fetcher
	r.Runner = b.opts.Runner
	r.Jobs = b.opts.Jobs
	r.VCVars = b.opts.VCVars
	return r, nil
}

// Build validates the configuration, fetches the sources into a fresh
// per-configuration directory, builds, packages and records the result.
func (b *Builder) Build(ctx context.Context, settings icu.Settings, options icu.Options) (*Result, error) {
	r, err := b.NewRecipe(settings, options)
	if err != nil {
		return nil, err
	}
	if r.UsesCygwin() {
		if _, err := env.CygwinRoot(); err != nil {
			return nil, fmt.Errorf("%w: %w", icu.ErrInvalidConfiguration, err)
		}
	}

	dir, err := b.configDir(r)
	if err != nil {
		return nil, err
	}
	log.Infof("Building %s (%s) in %s", icu.Module, r.Matrix().String(), dir)

	if err := os.RemoveAll(dir); err != nil {
		return nil, err
	}
	r.BuildFolder = filepath.Join(dir, "build")
	r.PackageFolder = filepath.Join(dir, "package")
	if err := os.MkdirAll(r.BuildFolder, 0755); err != nil {
		return nil, err
	}

	if err := r.Source(ctx); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	proj := &formula.Project{SourceFS: os.DirFS(filepath.Join(r.BuildFolder, "sources"))}
	if !proj.Exists("icu4c/source/runConfigureICU") {
		return nil, fmt.Errorf("source: %s has no icu4c/source/runConfigureICU", icu.SourceURL(icu.Version))
	}

	if err := r.Build(ctx); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	if err := r.Package(); err != nil {
		return nil, err
	}
	info, err := r.PackageInfo()
	if err != nil {
		return nil, err
	}

	out := &formula.BuildResult{}
	out.SetMetadata(info.Metadata(r.PackageFolder))
	if len(info.Libs) == 0 {
		_, libDir := r.Settings.Dirs()
		out.AddErr(fmt.Errorf("no libraries in %s", filepath.Join(r.PackageFolder, libDir)))
	}
	for _, err := range out.Errs() {
		log.Warn(err)
	}

	rec := &Record{
		Module:        icu.Module.String(),
		PackageID:     r.PackageID(),
		Settings:      r.Settings,
		Options:       r.Options,
		BuildRequires: r.BuildRequirements(),
		Info:          info,
		BuildTime:     time.Now(),
	}
	if err := SaveRecord(r.PackageFolder, rec); err != nil {
		return nil, err
	}

	return &Result{
		Module:     icu.Module,
		PackageID:  rec.PackageID,
		BuildDir:   r.Config().BuildDir,
		PackageDir: r.PackageFolder,
		Info:       info,
		Metadata:   out.Metadata(),
		Warnings:   out.Errs(),
	}, nil
}
