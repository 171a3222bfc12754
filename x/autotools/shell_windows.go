//go:build windows

package autotools

import (
	"context"
	"syscall"

	"golang.org/x/sys/execabs"
)

// shellCommand hands cmdline to cmd.exe verbatim; the default argument
// escaping would mangle the quotes of chained commands.
func shellCommand(ctx context.Context, cmdline string) *execabs.Cmd {
	cmd := execabs.CommandContext(ctx, "cmd.exe")
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: `cmd.exe /S /C "` + cmdline + `"`}
	return cmd
}
