package internal

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/icubuild/internal/build"
	"github.com/goplus/icubuild/internal/icu"
	"github.com/goplus/icubuild/x/autotools"
)

var (
	buildOutput string
	buildJobs   int
	buildFlags  *configFlags
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch, configure, build and package ICU",
	Long: `Build downloads the ICU release, builds it for the resolved settings and
options and stages LICENSE, cross_build_dir and icubuild.json into the
package directory of the workspace.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildFlags = addConfigFlags(buildCmd)
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output path (directory or .zip file)")
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "Parallel make jobs (default: number of CPUs)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	p, err := buildFlags.resolve(cmd)
	if err != nil {
		return err
	}

	// Resolve output path to absolute before build
	if buildOutput != "" {
		abs, err := filepath.Abs(buildOutput)
		if err != nil {
			return fmt.Errorf("failed to resolve output path: %w", err)
		}
		buildOutput = abs
	}

	runner := autotools.ShellRunner{Stderr: os.Stderr}
	if rootVerbose {
		runner.Stdout = os.Stdout
	} else {
		runner.Stdout = io.Discard
	}

	builder, err := build.NewBuilder(build.Options{
		WorkspaceDir: rootWorkDir,
		Runner:       runner,
		Jobs:         buildJobs,
	})
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}

	result, err := builder.Build(context.Background(), p.Settings, p.Options)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", icu.Module, err)
	}

	if result.Metadata != "" {
		fmt.Fprintln(cmd.OutOrStdout(), result.Metadata)
	}
	if buildOutput != "" {
		if err := outputResult(result.PackageDir, buildOutput); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// outputResult writes the package to dest.
// If dest ends with ".zip", creates a zip archive; otherwise copies the directory.
func outputResult(srcDir, dest string) error {
	if strings.HasSuffix(dest, ".zip") {
		return zipDir(srcDir, dest)
	}
	return icu.CopyTree(srcDir, dest)
}

// zipDir creates a zip archive at dest from the contents of srcDir.
// Symbolic links are stored as links, the way unzip restores them.
func zipDir(srcDir, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			writer, err := w.CreateHeader(header)
			if err != nil {
				return err
			}
			_, err = io.WriteString(writer, target)
			return err
		}

		header.Method = zip.Deflate
		writer, err := w.CreateHeader(header)
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(writer, file)
		return err
	})
}
