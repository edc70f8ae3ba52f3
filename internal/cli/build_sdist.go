// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newBuildSdistCommand creates the `mesonpack build-sdist` command, which
// packs the project sources into a distributable archive.
func newBuildSdistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build-sdist",
		Short: "Build a source archive",
		Long: `Build a source archive (sdist) and print its path on stdout.

Two snapshot policies exist, selected with source-policy under
[tool.mesonpack]:

  git         pack the files tracked in the git index (the default);
              a filesystem walk applies when no repository is present
  meson-dist  run meson dist and re-root the archive it produces

Either way the archive carries a fresh PKG-INFO and the pyproject.toml
it was built from, so the sdist can rebuild itself.`,
		Example: `  mesonpack build-sdist -o dist`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, runBuildSdist)
		},
	}

	cmd.Flags().StringP("output-dir", "o", ".", "directory to write the archive into")

	return cmd
}

// runBuildSdist is the core sdist logic, separated from Cobra for testability.
func runBuildSdist(ctx context.Context, p hookParams) error {
	if err := ensureOutputDir(p.outDir); err != nil {
		return err
	}

	path, err := p.backend.BuildSdist(ctx, p.outDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(p.stdout, path)
	return nil
}
