// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesonpack/mesonpack/internal/backend"
	"github.com/mesonpack/mesonpack/internal/config"
	"github.com/mesonpack/mesonpack/internal/issue"
)

// hookParams bundles the dependencies and flags for one hook command,
// enabling the core logic in the run functions to be tested without a real
// Cobra command or a meson binary on PATH.
type hookParams struct {
	stdout  io.Writer
	backend *backend.Backend
	outDir  string
}

// runHook resolves the effective settings, assembles the hook parameters and
// executes one hook body with unified failure rendering. It is the shared
// RunE body of all five subcommands.
func runHook(cmd *cobra.Command, run func(ctx context.Context, p hookParams) error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	settings, err := resolveSettings(cmd.ErrOrStderr(),
		config.LoadOptions{ConfigFilePath: cfgFile}, configSettings, verbosity)
	if err != nil {
		return fail(cmd.ErrOrStderr(), err, verbosity > 0)
	}

	p := hookParams{
		stdout:  cmd.OutOrStdout(),
		backend: newHookBackend(settings),
	}
	if f := cmd.Flags().Lookup("output-dir"); f != nil {
		p.outDir = f.Value.String()
	}

	if err := run(cmd.Context(), p); err != nil {
		return fail(cmd.ErrOrStderr(), err, settings.Verbosity > 0)
	}
	return nil
}

// newHookBackend wires the resolved settings into a backend operating on the
// current directory, the way build front ends invoke it.
func newHookBackend(settings config.Settings) *backend.Backend {
	return &backend.Backend{
		Settings: settings,
		Log:      newLogger(settings),
	}
}

// ensureOutputDir creates the directory a hook writes its result into.
func ensureOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return issue.WrapWithContext(err, "create output directory", dir)
	}
	return nil
}
