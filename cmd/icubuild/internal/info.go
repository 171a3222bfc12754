package internal

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/icubuild/internal/build"
)

var infoCmd = &cobra.Command{
	Use:   "info <package-dir>",
	Short: "Print the metadata of a built package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkgDir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		rec, err := build.LoadRecord(pkgDir)
		if err != nil {
			return fmt.Errorf("failed to read package metadata: %w", err)
		}
		printRecord(cmd.OutOrStdout(), pkgDir, rec)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printRecord(w io.Writer, pkgDir string, rec *build.Record) {
	fmt.Fprintf(w, "module:     %s\n", rec.Module)
	fmt.Fprintf(w, "package id: %s\n", rec.PackageID)
	if len(rec.BuildRequires) > 0 {
		fmt.Fprintf(w, "requires:   %s\n", strings.Join(rec.BuildRequires, " "))
	}
	if rec.Info == nil {
		return
	}
	info := rec.Info
	fmt.Fprintf(w, "libdirs:    %s\n", strings.Join(info.LibDirs, " "))
	fmt.Fprintf(w, "bindirs:    %s\n", strings.Join(info.BinDirs, " "))
	fmt.Fprintf(w, "libs:       %s\n", strings.Join(append(append([]string{}, info.Libs...), info.SystemLibs...), " "))
	if len(info.Defines) > 0 {
		fmt.Fprintf(w, "defines:    %s\n", strings.Join(info.Defines, " "))
	}
	if len(info.CppFlags) > 0 {
		fmt.Fprintf(w, "cppflags:   %s\n", strings.Join(info.CppFlags, " "))
	}
	keys := make([]string, 0, len(info.Env))
	for k := range info.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "env %s=%s\n", k, strings.Join(info.Env[k], string(filepath.ListSeparator)))
	}
	fmt.Fprintf(w, "metadata:\n%s\n", info.Metadata(pkgDir))
}
