// SPDX-License-Identifier: MPL-2.0

// Package backend implements the hook surface: the five operations a build
// frontend invokes against a project. Every operation is stateless, reads
// the project config itself, allocates its own scratch directories, and
// returns the path of whatever it produced; nothing persists between
// invocations except what the caller receives.
package backend

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/mesonpack/mesonpack/internal/config"
	"github.com/mesonpack/mesonpack/internal/meson"
	"github.com/mesonpack/mesonpack/pkg/pyproject"
)

// Override keys recognized in the caller's per-invocation settings map (the
// -C flag on the command line, the settings map of the hook protocol).
const (
	OverrideSetupArgs   = "setup-args"
	OverrideInstallArgs = "install-args"
	OverrideDistArgs    = "dist-args"
	OverrideVerbose     = "verbose"
)

// Backend executes hook operations for one project directory.
type Backend struct {
	// Settings are the effective settings for this invocation, typically
	// process configuration with the caller's overrides already applied.
	Settings config.Settings
	// SourceDir is the project root holding pyproject.toml. Empty means the
	// current directory.
	SourceDir string
	// Runner executes the build system. Nil selects the configured meson
	// binary.
	Runner meson.Runner
	// Log receives progress events. Nil discards them.
	Log *log.Logger
}

// ApplyOverrides returns the settings with the caller's per-invocation
// overrides applied on top. Unrecognized keys are ignored: the hook protocol
// hands one settings map to every backend involved in a build, so foreign
// keys are expected.
func ApplyOverrides(s config.Settings, overrides map[string]string) config.Settings {
	for key, value := range overrides {
		switch key {
		case OverrideSetupArgs:
			s.SetupArgs = value
		case OverrideInstallArgs:
			s.InstallArgs = value
		case OverrideDistArgs:
			s.DistArgs = value
		case OverrideVerbose:
			if n, err := strconv.Atoi(value); err == nil && n >= 0 {
				s.Verbosity = n
			} else if on, err := strconv.ParseBool(value); err == nil {
				s.Verbosity = 0
				if on {
					s.Verbosity = 1
				}
			}
		}
	}
	return s
}

// sourceDir returns the project root, defaulting to the current directory.
func (b *Backend) sourceDir() string {
	if b.SourceDir != "" {
		return b.SourceDir
	}
	return "."
}

// document loads and parses the project config. Hooks re-read it on every
// invocation; the file is the interface, not this process's memory.
func (b *Backend) document() (*pyproject.Document, error) {
	doc, err := pyproject.Load(filepath.Join(b.sourceDir(), pyproject.FileName))
	if err != nil {
		return nil, err
	}
	b.logger().Debug("loaded project config", "path", doc.String())
	return doc, nil
}

// invoker assembles the phase driver: configure options from the project
// config first, then the per-invocation argument strings, tokenized with
// shell word rules. A string that does not tokenize is a settings problem,
// not a build failure.
func (b *Backend) invoker(doc *pyproject.Document) (*meson.Invoker, error) {
	inv := &meson.Invoker{Runner: b.Runner, Log: b.Log}
	if inv.Runner == nil {
		inv.Runner = &meson.CLIRunner{Binary: b.Settings.Meson, Stream: b.Settings.Streamed()}
	}

	inv.SetupArgs = append(inv.SetupArgs, doc.MesonOptions()...)
	for _, raw := range []struct {
		dst *[]string
		src string
	}{
		{&inv.SetupArgs, b.Settings.SetupArgs},
		{&inv.InstallArgs, b.Settings.InstallArgs},
		{&inv.DistArgs, b.Settings.DistArgs},
	} {
		args, err := meson.SplitArgs(raw.src)
		if err != nil {
			return nil, &config.InvalidSettingsError{FieldErrors: []error{err}}
		}
		*raw.dst = append(*raw.dst, args...)
	}
	return inv, nil
}

// scratch allocates the private build and install-prefix directories for one
// invocation. Both live under the system temp directory, never under the
// source tree, so tree snapshots cannot pick them up.
func (b *Backend) scratch() (builddir, prefix string, cleanup func(), err error) {
	builddir, err = os.MkdirTemp("", "mesonpack-build-")
	if err != nil {
		return "", "", nil, fmt.Errorf("allocate scratch directory: %w", err)
	}
	prefix, err = os.MkdirTemp("", "mesonpack-prefix-")
	if err != nil {
		os.RemoveAll(builddir)
		return "", "", nil, fmt.Errorf("allocate scratch directory: %w", err)
	}
	return builddir, prefix, func() {
		os.RemoveAll(prefix)
		os.RemoveAll(builddir)
	}, nil
}

func (b *Backend) logger() *log.Logger {
	if b.Log != nil {
		return b.Log
	}
	return log.New(io.Discard)
}
