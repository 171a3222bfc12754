//go:build !windows

package autotools

import (
	"context"

	"golang.org/x/sys/execabs"
)

func shellCommand(ctx context.Context, cmdline string) *execabs.Cmd {
	return execabs.CommandContext(ctx, "sh", "-c", cmdline)
}
