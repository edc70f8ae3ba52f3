// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newBuildWheelCommand creates the `mesonpack build-wheel` command, which
// runs the full binary packaging pipeline.
func newBuildWheelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build-wheel",
		Short: "Build a binary wheel",
		Long: `Build a binary wheel and print its path on stdout.

The pipeline configures a scratch build directory, installs into a
scratch prefix, classifies every installed file into wheel categories
(scripts, data, headers, libraries) and assembles the archive together
with its RECORD manifest.

Extra arguments for the setup and install phases come from the
setup-args and install-args settings and from the MESON_ARGS
environment variable.`,
		Example: `  mesonpack build-wheel -o dist

  # Stream meson output and pass configure options through
  mesonpack -v -C setup-args="-Dbuildtype=release" build-wheel -o dist`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, runBuildWheel)
		},
	}

	cmd.Flags().StringP("output-dir", "o", ".", "directory to write the wheel into")

	return cmd
}

// runBuildWheel is the core wheel logic, separated from Cobra for testability.
func runBuildWheel(ctx context.Context, p hookParams) error {
	if err := ensureOutputDir(p.outDir); err != nil {
		return err
	}

	path, err := p.backend.BuildWheel(ctx, p.outDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(p.stdout, path)
	return nil
}
