package icu

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/qiniu/x/log"

	"github.com/goplus/icubuild/formula"
)

// CrossBuildDir is the package subdirectory holding the build tree.
const CrossBuildDir = "cross_build_dir"

var errNotBuilt = errors.New("package: recipe has not been built")

// Package stages the license and the complete build tree, symlinks
// included, into the package folder. Consumers cross-compiling ICU reuse
// the tree's host tools and generated data.
func (r *Recipe) Package() error {
	if r.cfg.BuildDir == "" {
		return errNotBuilt
	}
	if err := os.MkdirAll(r.PackageFolder, 0755); err != nil {
		return err
	}

	proj := &formula.Project{SourceFS: os.DirFS(filepath.Join(r.BuildFolder, "sources"))}
	license, err := proj.ReadFile("icu4c/LICENSE")
	if err != nil {
		return fmt.Errorf("package license: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.PackageFolder, "LICENSE"), license, 0644); err != nil {
		return fmt.Errorf("package license: %w", err)
	}

	dst := filepath.Join(r.PackageFolder, CrossBuildDir)
	log.Infof("Packaging build tree %s", r.cfg.BuildDir)
	if err := CopyTree(r.cfg.BuildDir, dst); err != nil {
		return fmt.Errorf("package build tree: %w", err)
	}
	return nil
}

// CopyTree copies src into dst keeping relative paths and symlinks.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			os.Remove(target)
			return os.Symlink(link, target)
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		default:
			return copyFile(path, target)
		}
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
