// SPDX-License-Identifier: MPL-2.0

package meson

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"
)

// mesonArgsEnv is prepended to the setup argument vector when set, so callers
// can inject configure options without touching pyproject.toml.
const mesonArgsEnv = "MESON_ARGS"

// logTailLimit bounds how much of meson-log.txt is attached to a setup
// failure.
const logTailLimit = 8 << 10

// Invoker drives the meson phases against one build directory. The
// per-phase argument slices are forwarded verbatim after the arguments the
// pipeline itself requires.
type Invoker struct {
	Runner Runner
	Log    *log.Logger

	SetupArgs   []string
	InstallArgs []string
	DistArgs    []string
}

// SplitArgs tokenizes a pass-through argument string with shell word rules,
// so quoted tokens keep embedded whitespace.
func SplitArgs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	fields, err := shell.Fields(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("tokenize arguments %q: %w", raw, err)
	}
	return fields, nil
}

// Setup configures builddir for the project in sourceDir, installing into
// prefix. MESON_ARGS tokens come first, then the configured setup arguments;
// -Dlibdir=lib is always appended last so installed libraries land under a
// predictable root.
func (i *Invoker) Setup(ctx context.Context, sourceDir, builddir, prefix string) error {
	args := []string{"setup"}
	if raw := os.Getenv(mesonArgsEnv); raw != "" {
		extra, err := SplitArgs(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", mesonArgsEnv, err)
		}
		i.logger().Debug("prepending environment arguments", "env", mesonArgsEnv, "args", extra)
		args = append(args, extra...)
	}
	args = append(args, i.SetupArgs...)
	args = append(args, "--prefix", prefix, "-Dlibdir=lib", builddir)

	i.logger().Info("configuring build directory", "builddir", builddir)
	if err := i.run(ctx, PhaseSetup, args, RunOptions{Dir: sourceDir}); err != nil {
		if perr, ok := err.(*PhaseError); ok && perr.Cause == nil {
			if tail := setupLogTail(builddir); tail != "" {
				perr.Output = strings.TrimRight(perr.Output, "\n") + "\n" + tail
			}
		}
		return err
	}
	return nil
}

// Install runs the install phase into the prefix given at setup.
func (i *Invoker) Install(ctx context.Context, builddir string) error {
	args := append([]string{"install", "-C", builddir}, i.InstallArgs...)
	i.logger().Info("installing into scratch prefix", "builddir", builddir)
	return i.run(ctx, PhaseInstall, args, RunOptions{})
}

// Dist runs the dist phase, producing archives under
// <builddir>/meson-dist. Formats are joined into meson's --formats option;
// when none are given meson's default format applies.
func (i *Invoker) Dist(ctx context.Context, builddir string, formats []string) error {
	args := []string{"dist", "-C", builddir}
	if len(formats) > 0 {
		args = append(args, "--formats", strings.Join(formats, ","))
	}
	args = append(args, i.DistArgs...)
	i.logger().Info("creating source archive", "builddir", builddir)
	return i.run(ctx, PhaseDist, args, RunOptions{})
}

func (i *Invoker) run(ctx context.Context, phase Phase, args []string, opts RunOptions) error {
	i.logger().Debug("running meson", "phase", phase, "args", args)
	res, err := i.Runner.Run(ctx, phase, args, opts)
	if err != nil {
		return &PhaseError{Phase: phase, ExitCode: -1, Cause: err}
	}
	if res.ExitCode != 0 {
		return &PhaseError{Phase: phase, ExitCode: res.ExitCode, Output: res.Output}
	}
	return nil
}

func (i *Invoker) logger() *log.Logger {
	if i.Log != nil {
		return i.Log
	}
	return log.New(io.Discard)
}

// setupLogTail returns the end of meson's own log file, which usually names
// the failing configure check more precisely than the console output.
func setupLogTail(builddir string) string {
	data, err := os.ReadFile(filepath.Join(builddir, "meson-logs", "meson-log.txt"))
	if err != nil || len(data) == 0 {
		return ""
	}
	if len(data) > logTailLimit {
		data = data[len(data)-logTailLimit:]
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		}
	}
	return "meson-log.txt tail:\n" + strings.TrimRight(string(data), "\n")
}
