// Package autotools wraps the classic configure/make/make-install workflow.
package autotools

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/qiniu/x/log"
)

// Runner executes a shell command line inside dir. env is the complete
// environment of the command; nil means the current process environment.
type Runner interface {
	Run(ctx context.Context, dir string, env []string, cmdline string) error
}

// ExecError reports an external command that could not be started or
// exited with a non-zero status.
type ExecError struct {
	Cmdline string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Cmdline, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ShellRunner runs command lines through the host shell: "sh -c" on
// POSIX hosts and "cmd /C" on Windows.
type ShellRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r ShellRunner) Run(ctx context.Context, dir string, env []string, cmdline string) error {
	cmd := shellCommand(ctx, cmdline)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return &ExecError{Cmdline: cmdline, Err: err}
	}
	return nil
}

// AutoTools drives Autotools-style builds inside a single build directory.
type AutoTools struct {
	buildDir string
	prefix   string
	env      map[string]string
	silent   bool
	jobs     int
	runner   Runner
}

// New returns an AutoTools that runs its commands in buildDir with runner.
// A nil runner means ShellRunner.
func New(buildDir string, runner Runner) *AutoTools {
	if runner == nil {
		runner = ShellRunner{}
	}
	return &AutoTools{
		buildDir: buildDir,
		env:      make(map[string]string),
		silent:   true,
		jobs:     1,
		runner:   runner,
	}
}

// Prefix sets a command that is chained with "&&" before every command
// line, such as a script that loads a compiler environment.
func (a *AutoTools) Prefix(cmdline string) { a.prefix = cmdline }

// Silent selects quiet ("--silent") or verbose ("VERBOSE=1") make output.
func (a *AutoTools) Silent(silent bool) { a.silent = silent }

// Jobs sets the make job count. Values below 1 are treated as 1.
func (a *AutoTools) Jobs(n int) {
	if n < 1 {
		n = 1
	}
	a.jobs = n
}

// Env sets key=value for every command spawned later.
func (a *AutoTools) Env(key, value string) {
	a.env[key] = value
}

// AppendFlag appends a space-separated flag to key. The current process
// value of key is the starting point when key has not been set yet.
func (a *AutoTools) AppendFlag(key, flag string) {
	cur, ok := a.env[key]
	if !ok {
		cur = os.Getenv(key)
	}
	if cur != "" {
		flag = cur + " " + flag
	}
	a.env[key] = flag
}

// Environ returns the variables set through Env and AppendFlag, sorted.
func (a *AutoTools) Environ() []string {
	keys := make([]string, 0, len(a.env))
	for k := range a.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+a.env[k])
	}
	return out
}

// MakeFlag returns the make verbosity argument.
func (a *AutoTools) MakeFlag() string {
	if a.silent {
		return "--silent"
	}
	return "VERBOSE=1"
}

// Configure runs the configure command line under bash inside the build
// directory. The directory must exist.
func (a *AutoTools) Configure(ctx context.Context, configureCmd string) error {
	return a.Run(ctx, "bash -c "+Quote(configureCmd))
}

// Build runs "make <verbosity> -j <jobs>".
func (a *AutoTools) Build(ctx context.Context) error {
	return a.Run(ctx, "make "+a.MakeFlag()+" -j "+strconv.Itoa(a.jobs))
}

// Check runs "make <verbosity> check".
func (a *AutoTools) Check(ctx context.Context) error {
	return a.Run(ctx, "make "+a.MakeFlag()+" check")
}

// Install runs "make <verbosity> install".
func (a *AutoTools) Install(ctx context.Context) error {
	return a.Run(ctx, "make "+a.MakeFlag()+" install")
}

// Run runs cmdline in the build directory, chained after the prefix
// command when one is set.
func (a *AutoTools) Run(ctx context.Context, cmdline string) error {
	line := a.Commandline(cmdline)
	log.Debugf("autotools: [%s] %s", a.buildDir, line)

	var env []string
	if len(a.env) > 0 {
		env = mergeEnv(os.Environ(), a.env)
	}
	return a.runner.Run(ctx, a.buildDir, env, line)
}

// Commandline returns cmdline as it is handed to the runner.
func (a *AutoTools) Commandline(cmdline string) string {
	if a.prefix == "" {
		return cmdline
	}
	return a.prefix + " && " + cmdline
}

// Quote single-quotes s for a POSIX shell.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// mergeEnv returns base with every key in overrides replaced or appended.
func mergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	idx := make(map[string]int, len(base))
	for _, kv := range base {
		if k, _, ok := strings.Cut(kv, "="); ok {
			idx[k] = len(out)
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if i, ok := idx[k]; ok {
			out[i] = k + "=" + overrides[k]
		} else {
			out = append(out, k+"="+overrides[k])
		}
	}
	return out
}
