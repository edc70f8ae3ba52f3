// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newPrepareMetadataCommand creates the `mesonpack prepare-metadata` command,
// which writes the wheel metadata directory without compiling anything.
func newPrepareMetadataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare-metadata",
		Short: "Write the wheel metadata directory without building",
		Long: `Write the .dist-info directory a finished wheel would contain,
without compiling anything.

The directory holds METADATA, WHEEL and, when the project declares
entry points, entry_points.txt. When name and version are stated in
pyproject.toml no meson process runs at all; fields deferred with
dynamic cost one configure of a scratch build directory.

The path of the created directory is printed on stdout.`,
		Example: `  mesonpack prepare-metadata -o dist`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, runPrepareMetadata)
		},
	}

	cmd.Flags().StringP("output-dir", "o", ".", "directory to write the metadata directory into")

	return cmd
}

// runPrepareMetadata is the core metadata logic, separated from Cobra for
// testability.
func runPrepareMetadata(ctx context.Context, p hookParams) error {
	if err := ensureOutputDir(p.outDir); err != nil {
		return err
	}

	path, err := p.backend.PrepareMetadata(ctx, p.outDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(p.stdout, path)
	return nil
}
