// SPDX-License-Identifier: MPL-2.0

package meson

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

type (
	// Phase identifies one step of the build pipeline. Phases run strictly
	// in sequence; each depends on the previous one's output on disk.
	Phase string

	// RunOptions carries the per-invocation execution parameters.
	RunOptions struct {
		// Dir is the working directory for the subprocess. Empty means
		// the current process directory.
		Dir string
	}

	// Result is the outcome of one subprocess run. Output holds the
	// combined stdout and stderr in captured mode and is empty in
	// streamed mode.
	Result struct {
		ExitCode int
		Output   string
	}

	// Runner executes the meson binary. It is the single seam between the
	// pipeline and the host system: tests substitute a scripted fake.
	//
	// Run returns an error only when the subprocess could not be started
	// at all; a non-zero exit is reported through Result.ExitCode.
	Runner interface {
		Run(ctx context.Context, phase Phase, args []string, opts RunOptions) (Result, error)
	}
)

const (
	PhaseSetup      Phase = "setup"
	PhaseInstall    Phase = "install"
	PhaseDist       Phase = "dist"
	PhaseIntrospect Phase = "introspect"
)

// String returns the phase name as used on the meson command line.
func (p Phase) String() string { return string(p) }

// CLIRunner runs the real meson binary with os/exec.
type CLIRunner struct {
	// Binary is the meson executable; resolved via PATH when not absolute.
	Binary string
	// Stream controls output handling: when true, subprocess stdout and
	// stderr are forwarded to Out as they are produced; when false they
	// are captured and returned in Result.Output.
	Stream bool
	// Out receives streamed subprocess output. Defaults to os.Stderr:
	// stdout of the backend process is reserved for hook results.
	Out io.Writer
}

// Run implements Runner.
func (r *CLIRunner) Run(ctx context.Context, phase Phase, args []string, opts RunOptions) (Result, error) {
	binary := r.Binary
	if binary == "" {
		binary = "meson"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = opts.Dir

	var captured bytes.Buffer
	if r.Stream {
		out := r.Out
		if out == nil {
			out = os.Stderr
		}
		cmd.Stdout = out
		cmd.Stderr = out
	} else {
		cmd.Stdout = &captured
		cmd.Stderr = &captured
	}

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return Result{ExitCode: exitErr.ExitCode(), Output: captured.String()}, nil
		}
		return Result{}, fmt.Errorf("run %s: %w", binary, err)
	}
	return Result{ExitCode: 0, Output: captured.String()}, nil
}
